package dormly

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// OtpService drives the per-email challenge state machine:
// NoChallenge -> Issued -> Verified | Expired | MaxAttemptsExceeded.
type OtpService interface {
	GenerateAndSave(ctx context.Context, email string) (string, error)
	GenerateAndSaveTx(ctx context.Context, tx bun.IDB, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	Resend(ctx context.Context, email string) (string, error)
}

type otpService struct {
	repo   RepositoryManager
	opts   OtpOptions
	logger Logger
}

func NewOtpService(repo RepositoryManager, opts OtpOptions, logger Logger) OtpService {
	if logger == nil {
		logger = defLogger{}
	}
	return &otpService{repo: repo, opts: opts, logger: logger}
}

func (s *otpService) GenerateAndSave(ctx context.Context, email string) (string, error) {
	var code string
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		code, err = s.GenerateAndSaveTx(ctx, tx, email)
		return err
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// GenerateAndSaveTx mints a fresh code for the email's pending
// registration, replacing any previous challenge. The plaintext code is
// returned to the caller for delivery; it is stored as-is (short TTL and
// the attempt cap bound the exposure).
func (s *otpService) GenerateAndSaveTx(ctx context.Context, tx bun.IDB, email string) (string, error) {
	pending, err := s.repo.PendingUsers().GetByEmailTx(ctx, tx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return "", ErrPendingUserNotFound
		}
		return "", wrapInternal(err, "failed to look up pending registration")
	}

	if pending.Expired(time.Now()) {
		return "", ErrRegistrationExpired
	}

	// at most one live challenge per email
	if err := s.repo.OtpCodes().DeleteByEmailTx(ctx, tx, email); err != nil {
		return "", wrapInternal(err, "failed to clear previous challenge")
	}

	code, err := randomNumericCode(s.opts.CodeLength)
	if err != nil {
		return "", wrapInternal(err, "failed to generate code")
	}

	record := &OtpCode{
		Email:       email,
		Code:        code,
		ExpiresAt:   time.Now().Add(time.Duration(s.opts.ExpirationMinutes) * time.Minute),
		Verified:    false,
		Attempts:    0,
		MaxAttempts: s.opts.MaxAttempts,
	}

	if _, err := s.repo.OtpCodes().CreateTx(ctx, tx, record); err != nil {
		return "", wrapInternal(err, "failed to persist challenge")
	}

	s.logger.Info("OTP generated", "email", email)
	return code, nil
}

// Verify checks a submitted code against the live challenge. Wrong codes
// count against the attempt cap; expired and capped challenges fail without
// incrementing further.
func (s *otpService) Verify(ctx context.Context, email, code string) error {
	record, err := s.repo.OtpCodes().GetUnverifiedByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return ErrOtpNotFound
		}
		return wrapInternal(err, "failed to look up challenge")
	}

	if record.Expired(time.Now()) {
		return ErrOtpExpired
	}

	if record.Attempts >= record.MaxAttempts {
		return ErrOtpMaxAttemptsReached
	}

	if record.Code != code {
		record.Attempts++
		if err := s.repo.OtpCodes().Update(ctx, record); err != nil {
			return wrapInternal(err, "failed to record attempt")
		}
		return otpInvalidError(record.RemainingAttempts())
	}

	record.Verified = true
	if err := s.repo.OtpCodes().Update(ctx, record); err != nil {
		return wrapInternal(err, "failed to mark challenge verified")
	}

	s.logger.Info("OTP verified", "email", email)
	return nil
}

// Resend reissues a code under the same guards as GenerateAndSave; the
// previous challenge, if any, stops verifying.
func (s *otpService) Resend(ctx context.Context, email string) (string, error) {
	code, err := s.GenerateAndSave(ctx, email)
	if err != nil {
		return "", err
	}

	s.logger.Info("OTP resent", "email", email)
	return code, nil
}

// otpInvalidError carries the remaining-attempts count for clients. The
// plain sentinel rides along as the source so errors.Is unwraps to
// ErrOtpInvalid.
func otpInvalidError(remaining int) error {
	err := goerrors.New(
		fmt.Sprintf("Invalid OTP code. Remaining attempts: %d", remaining),
		goerrors.CategoryAuth,
	).WithMetadata(map[string]any{"remaining_attempts": remaining})
	err.Source = ErrOtpInvalid
	return err
}

// randomNumericCode draws a fixed-length digit string from crypto/rand.
func randomNumericCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
