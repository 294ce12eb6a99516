package dormly

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// User-facing messages. Handlers return these verbatim; anything more
// specific stays in logs.
const (
	MsgOtpSent             = "OTP has been sent to your email. Please check your inbox."
	MsgOtpResent           = "New OTP has been sent to your email."
	MsgOtpVerified         = "Email verified successfully. Your account has been created."
	MsgUserActivated       = "Your account has been activated successfully."
	MsgPasswordResetSent   = "If the email exists, a password reset code has been sent."
	MsgPasswordResetDone   = "Password has been reset successfully."
	MsgRegistrationCreated = "Registration successful. Please check your email to confirm your account."
)

// Stable failure messages for the identity lifecycle. Login and
// forgot-password deliberately reuse generic wording so that callers cannot
// enumerate which emails have accounts.
var (
	ErrEmailAlreadyRegistered = goerrors.New("Email already registered", goerrors.CategoryConflict)
	ErrPendingUserNotFound    = goerrors.New("No pending registration found for this email.", goerrors.CategoryNotFound)
	ErrPendingUserDataMissing = goerrors.New("Pending registration data not found.", goerrors.CategoryNotFound)
	// expiry failures carry 410 so clients offer a retry instead of
	// treating them as server faults
	ErrRegistrationExpired    = goerrors.New("Registration has expired. Please register again.", goerrors.CategoryOperation).WithCode(http.StatusGone)

	ErrOtpNotFound           = goerrors.New("OTP not found or already verified.", goerrors.CategoryNotFound)
	ErrOtpExpired            = goerrors.New("OTP has expired. Please request a new one.", goerrors.CategoryOperation).WithCode(http.StatusGone)
	ErrOtpInvalid            = goerrors.New("Invalid OTP code.", goerrors.CategoryAuth)
	ErrOtpMaxAttemptsReached = goerrors.New("Maximum verification attempts reached. Please request a new OTP.", goerrors.CategoryRateLimit)

	ErrInvalidCredentials  = goerrors.New("Invalid email or password.", goerrors.CategoryAuth)
	ErrAccountNotConfirmed = goerrors.New("Account is not confirmed. Please verify your email first.", goerrors.CategoryAuth)
	ErrUserNotFound        = goerrors.New("User not found.", goerrors.CategoryNotFound)
	ErrUserNotConfirmed    = goerrors.New("User account is not confirmed", goerrors.CategoryOperation)

	ErrResetTokenInvalid = goerrors.New("Invalid or already used password reset token", goerrors.CategoryAuth)
	ErrResetTokenExpired = goerrors.New("Password reset token has expired", goerrors.CategoryOperation).WithCode(http.StatusGone)

	ErrFailedToSendOtpEmail = goerrors.New("Failed to send OTP email. Please try again.", goerrors.CategoryOperation)
	ErrFailedToSendReset    = goerrors.New("Failed to send password reset email", goerrors.CategoryOperation)

	ErrTokenInvalid = goerrors.New("invalid or expired token", goerrors.CategoryAuth)

	ErrRoomNotFound  = goerrors.New("Room not found.", goerrors.CategoryNotFound)
	ErrAssetNotFound = goerrors.New("Asset not found.", goerrors.CategoryNotFound)
)

// wrapInternal folds an unexpected lower-level error into a generic internal
// failure, preserving the cause for logs while keeping driver detail away
// from callers.
func wrapInternal(err error, msg string) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// isCategorized reports whether err is one of our typed failures, as
// opposed to a raw storage/driver error.
func isCategorized(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich)
}
