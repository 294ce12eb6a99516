package dormly

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/uptrace/bun"
)

// RegistrationResponse is returned on a successful registration
// submission.
type RegistrationResponse struct {
	Email             string `json:"email"`
	Message           string `json:"message"`
	ExpirationMinutes int    `json:"expiration_minutes"`
}

// LoginInput are the credentials presented at login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token plus a profile summary.
type LoginResponse struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token"`
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Confirmed bool      `json:"is_confirmed"`
}

// Registrar coordinates the whole identity lifecycle: pending-user
// creation, OTP issuance and delivery, activation, login, and password
// reset. It is the only component that creates accounts.
type Registrar struct {
	repo      RepositoryManager
	validator *InputValidator
	hasher    PasswordAuthenticator
	otp       OtpService
	reset     PasswordResetService
	mailer    Mailer
	tokens    TokenService
	otpOpts   OtpOptions
	logger    Logger
}

func NewRegistrar(
	repo RepositoryManager,
	validator *InputValidator,
	hasher PasswordAuthenticator,
	otp OtpService,
	reset PasswordResetService,
	mailer Mailer,
	tokens TokenService,
	otpOpts OtpOptions,
	logger Logger,
) *Registrar {
	if logger == nil {
		logger = defLogger{}
	}
	return &Registrar{
		repo:      repo,
		validator: validator,
		hasher:    hasher,
		otp:       otp,
		reset:     reset,
		mailer:    mailer,
		tokens:    tokens,
		otpOpts:   otpOpts,
		logger:    logger,
	}
}

const workflowTimeout = 10 * time.Second

// Register validates the submission, supersedes any previous pending
// registration for the email, persists a fresh pending row plus OTP in one
// transaction, and dispatches the code. A failed email send leaves the
// pending state in place so a resend can recover without re-registering.
func (r *Registrar) Register(ctx context.Context, in RegisterInput, baseURL string) (*RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	if err := r.validator.ValidateRegister(in); err != nil {
		return nil, err
	}

	if _, err := r.repo.Users().GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !IsRecordNotFound(err) {
		r.logger.Error("register account lookup failed", "email", in.Email, "error", err)
		return nil, wrapInternal(err, "Failed to create user. Please try again later.")
	}

	var code string
	err := r.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// supersede: a repeat submission before confirmation restarts the flow
		if err := r.repo.PendingUsers().DeleteByEmailTx(ctx, tx, in.Email); err != nil {
			return wrapInternal(err, "failed to supersede pending registration")
		}

		hash, err := r.hasher.HashPassword(in.Password)
		if err != nil {
			return wrapInternal(err, "failed to hash password")
		}

		pending := &PendingUser{
			Email:        in.Email,
			Username:     in.Username,
			PasswordHash: hash,
			ExpiresAt:    time.Now().Add(time.Duration(r.otpOpts.PendingUserExpiryMinutes) * time.Minute),
		}

		if _, err := r.repo.PendingUsers().CreateTx(ctx, tx, pending); err != nil {
			return wrapInternal(err, "failed to persist pending registration")
		}

		code, err = r.otp.GenerateAndSaveTx(ctx, tx, in.Email)
		return err
	})
	if err != nil {
		if isCategorized(err) {
			return nil, err
		}
		r.logger.Error("register transaction failed", "email", in.Email, "error", err)
		return nil, wrapInternal(err, "Failed to create user. Please try again later.")
	}

	if err := r.mailer.SendOtpEmail(ctx, in.Email, code, verificationURL(baseURL, in.Email, code)); err != nil {
		// pending row and OTP persist; a resend recovers this case
		r.logger.Warn("failed to send OTP email", "email", in.Email, "error", err)
		return nil, ErrFailedToSendOtpEmail
	}

	return &RegistrationResponse{
		Email:             in.Email,
		Message:           MsgOtpSent,
		ExpirationMinutes: r.otpOpts.ExpirationMinutes,
	}, nil
}

// Activate promotes a pending registration into a confirmed account. This
// is the only path that creates an account; the pending row and its
// challenge are removed in the same transaction.
func (r *Registrar) Activate(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	pending, err := r.repo.PendingUsers().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return ErrPendingUserDataMissing
		}
		r.logger.Error("activate pending lookup failed", "email", email, "error", err)
		return wrapInternal(err, "Failed to activate user account.")
	}

	if pending.Expired(time.Now()) {
		if err := r.repo.PendingUsers().DeleteByEmail(ctx, email); err != nil {
			r.logger.Error("failed to delete stale pending registration", "email", email, "error", err)
		}
		return ErrRegistrationExpired
	}

	err = r.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()
		user := &User{
			Email:        pending.Email,
			Username:     pending.Username,
			PasswordHash: pending.PasswordHash,
			Confirmed:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if _, err := r.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return r.repo.PendingUsers().DeleteByEmailTx(ctx, tx, email)
	})
	if err != nil {
		r.logger.Error("activate transaction failed", "email", email, "error", err)
		return wrapInternal(err, "Failed to activate user account.")
	}

	r.logger.Info("user activated", "email", email)
	return nil
}

// VerifyOtp checks the submitted code and, on success, activates the
// account in the same call.
func (r *Registrar) VerifyOtp(ctx context.Context, email, code string) error {
	if err := r.otp.Verify(ctx, email, code); err != nil {
		return err
	}
	return r.Activate(ctx, email)
}

// ResendOtp reissues the code and dispatches it again.
func (r *Registrar) ResendOtp(ctx context.Context, email, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	code, err := r.otp.Resend(ctx, email)
	if err != nil {
		return err
	}

	if err := r.mailer.SendOtpEmail(ctx, email, code, verificationURL(baseURL, email, code)); err != nil {
		r.logger.Warn("failed to resend OTP email", "email", email, "error", err)
		return ErrFailedToSendOtpEmail
	}

	return nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same generic failure so callers cannot tell
// which addresses have accounts.
func (r *Registrar) Login(ctx context.Context, in LoginInput) (*LoginResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	user, err := r.repo.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		r.logger.Error("login account lookup failed", "email", in.Email, "error", err)
		return nil, wrapInternal(err, "Failed to login. Please try again later.")
	}

	if !user.Confirmed {
		return nil, ErrAccountNotConfirmed
	}

	if !r.hasher.VerifyPassword(in.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := r.tokens.Generate(user)
	if err != nil {
		r.logger.Error("login token generation failed", "email", in.Email, "error", err)
		return nil, wrapInternal(err, "Failed to login. Please try again later.")
	}

	r.logger.Info("user logged in", "email", in.Email)
	return &LoginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		Token:     token,
	}, nil
}

// CurrentUser resolves the authenticated account id to a profile.
func (r *Registrar) CurrentUser(ctx context.Context, id int64) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	user, err := r.repo.Users().GetByID(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("current user lookup failed", "id", id, "error", err)
		return nil, wrapInternal(err, "Failed to retrieve user information.")
	}

	return &Profile{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		Confirmed: user.Confirmed,
	}, nil
}

// SendPasswordResetOtp always reports success when token generation fails,
// so the response never reveals whether the email has a confirmed account.
// A delivery failure after successful generation is surfaced: at that point
// the account is known to exist and the caller needs to know no email is
// coming.
func (r *Registrar) SendPasswordResetOtp(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	token, err := r.reset.GenerateResetToken(ctx, email)
	if err != nil {
		r.logger.Warn("reset token generation failed", "email", email, "error", err)
		return nil
	}

	if err := r.mailer.SendPasswordResetEmail(ctx, email, token); err != nil {
		r.logger.Warn("failed to send password reset email", "email", email, "error", err)
		return ErrFailedToSendReset
	}

	r.logger.Info("password reset token sent", "email", email)
	return nil
}

// ResetPassword validates the new password before the token store is
// touched, then burns the token, stores the re-hashed password and cleans
// up in a single transaction.
func (r *Registrar) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, cancel := context.WithTimeout(ctx, workflowTimeout)
	defer cancel()

	if err := r.validator.ValidateResetPassword(in); err != nil {
		return err
	}

	err := r.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := r.reset.VerifyResetTokenTx(ctx, tx, in.Email, in.Token); err != nil {
			return err
		}

		user, err := r.repo.Users().GetByEmailTx(ctx, tx, in.Email)
		if err != nil {
			if IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return wrapInternal(err, "failed to look up account")
		}

		hash, err := r.hasher.HashPassword(in.Password)
		if err != nil {
			return wrapInternal(err, "failed to hash password")
		}

		if err := r.repo.Users().UpdatePasswordTx(ctx, tx, user.ID, hash); err != nil {
			return wrapInternal(err, "failed to store new password")
		}

		return r.reset.CleanupTokensTx(ctx, tx, in.Email)
	})
	if err != nil {
		if isCategorized(err) {
			return err
		}
		r.logger.Error("password reset failed", "email", in.Email, "error", err)
		return wrapInternal(err, "Failed to reset password. Please try again later.")
	}

	r.logger.Info("password reset completed", "email", in.Email)
	return nil
}

func verificationURL(baseURL, email, code string) string {
	return fmt.Sprintf("%s/user/verify?email=%s&otp=%s", baseURL, url.QueryEscape(email), url.QueryEscape(code))
}
