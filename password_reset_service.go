package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// PasswordResetService mints and verifies single-use reset tokens for
// confirmed accounts.
type PasswordResetService interface {
	GenerateResetToken(ctx context.Context, email string) (string, error)
	VerifyResetToken(ctx context.Context, email, token string) error
	VerifyResetTokenTx(ctx context.Context, tx bun.IDB, email, token string) error
	CleanupTokens(ctx context.Context, email string) error
	CleanupTokensTx(ctx context.Context, tx bun.IDB, email string) error
}

type passwordResetService struct {
	repo   RepositoryManager
	opts   PasswordResetOptions
	logger Logger
}

func NewPasswordResetService(repo RepositoryManager, opts PasswordResetOptions, logger Logger) PasswordResetService {
	if logger == nil {
		logger = defLogger{}
	}
	return &passwordResetService{repo: repo, opts: opts, logger: logger}
}

// GenerateResetToken issues a token for a confirmed account, replacing any
// live token for the email. The distinct not-found / not-confirmed errors
// are internal; the orchestrator folds both into a generic success so
// callers cannot enumerate accounts.
func (s *passwordResetService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	var token string

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if IsRecordNotFound(err) {
				s.logger.Warn("reset token requested for unknown email", "email", email)
				return ErrUserNotFound
			}
			return wrapInternal(err, "failed to look up account")
		}

		if !user.Confirmed {
			s.logger.Warn("reset token requested for unconfirmed account", "email", email)
			return ErrUserNotConfirmed
		}

		// one live token per email
		if err := s.repo.PasswordResets().DeleteByEmailTx(ctx, tx, email); err != nil {
			return wrapInternal(err, "failed to clear previous token")
		}

		token, err = randomNumericCode(s.opts.CodeLength)
		if err != nil {
			return wrapInternal(err, "failed to generate token")
		}

		record := &PasswordResetToken{
			Email:     email,
			Token:     token,
			ExpiresAt: time.Now().Add(time.Duration(s.opts.ExpirationMinutes) * time.Minute),
			Used:      false,
		}

		if _, err := s.repo.PasswordResets().CreateTx(ctx, tx, record); err != nil {
			return wrapInternal(err, "failed to persist token")
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("password reset token generated", "email", email)
	return token, nil
}

func (s *passwordResetService) VerifyResetToken(ctx context.Context, email, token string) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.VerifyResetTokenTx(ctx, tx, email, token)
	})
}

// VerifyResetTokenTx is a side-effecting verify: success marks the row
// used, so replaying the same token fails with InvalidOrUsedToken.
func (s *passwordResetService) VerifyResetTokenTx(ctx context.Context, tx bun.IDB, email, token string) error {
	record, err := s.repo.PasswordResets().GetUnusedTx(ctx, tx, email, token)
	if err != nil {
		if IsRecordNotFound(err) {
			return ErrResetTokenInvalid
		}
		return wrapInternal(err, "failed to look up reset token")
	}

	if record.Expired(time.Now()) {
		return ErrResetTokenExpired
	}

	if err := s.repo.PasswordResets().MarkUsedTx(ctx, tx, record.ID); err != nil {
		return wrapInternal(err, "failed to mark token used")
	}

	s.logger.Info("password reset token verified", "email", email)
	return nil
}

func (s *passwordResetService) CleanupTokens(ctx context.Context, email string) error {
	if err := s.repo.PasswordResets().DeleteExpiredOrUsed(ctx, email, time.Now()); err != nil {
		return wrapInternal(err, "failed to clean up reset tokens")
	}
	return nil
}

// CleanupTokensTx removes expired and used tokens for the email. Hygiene
// only; correctness never depends on it running.
func (s *passwordResetService) CleanupTokensTx(ctx context.Context, tx bun.IDB, email string) error {
	if err := s.repo.PasswordResets().DeleteExpiredOrUsedTx(ctx, tx, email, time.Now()); err != nil {
		return wrapInternal(err, "failed to clean up reset tokens")
	}
	return nil
}
