package dormly_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	dormly "github.com/dormly/go-dormly"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPending(t *testing.T, repo dormly.RepositoryManager, email string, expiresIn time.Duration) {
	t.Helper()
	_, err := repo.PendingUsers().Create(context.Background(), &dormly.PendingUser{
		Email:        email,
		Username:     "dorm-resident",
		PasswordHash: "irrelevant-for-otp",
		ExpiresAt:    time.Now().Add(expiresIn),
	})
	require.NoError(t, err)
}

func TestOtpGenerateAndVerify(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewOtpService(repo, dormly.DefaultOtpOptions(), nil)

	seedPending(t, repo, "resident@example.com", 30*time.Minute)

	code, err := svc.GenerateAndSave(ctx, "resident@example.com")
	require.NoError(t, err)
	assert.Len(t, code, dormly.DefaultOtpOptions().CodeLength)

	require.NoError(t, svc.Verify(ctx, "resident@example.com", code))

	// a verified challenge cannot be replayed
	err = svc.Verify(ctx, "resident@example.com", code)
	assert.ErrorIs(t, err, dormly.ErrOtpNotFound)
}

func TestOtpGenerateRequiresPendingRegistration(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewOtpService(repo, dormly.DefaultOtpOptions(), nil)

	_, err := svc.GenerateAndSave(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, dormly.ErrPendingUserNotFound)
}

func TestOtpGenerateRejectsExpiredRegistration(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewOtpService(repo, dormly.DefaultOtpOptions(), nil)

	seedPending(t, repo, "late@example.com", -time.Minute)

	_, err := svc.GenerateAndSave(ctx, "late@example.com")
	assert.ErrorIs(t, err, dormly.ErrRegistrationExpired)
}

func TestOtpRegenerateReplacesPreviousCode(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewOtpService(repo, dormly.DefaultOtpOptions(), nil)

	seedPending(t, repo, "resident@example.com", 30*time.Minute)

	first, err := svc.GenerateAndSave(ctx, "resident@example.com")
	require.NoError(t, err)

	second, err := svc.Resend(ctx, "resident@example.com")
	require.NoError(t, err)

	n, err := repo.OtpCodes().CountByEmail(ctx, "resident@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only one live challenge per email")

	if first != second {
		err = svc.Verify(ctx, "resident@example.com", first)
		assert.Error(t, err, "superseded code must not verify")
	}
	require.NoError(t, svc.Verify(ctx, "resident@example.com", second))
}

func TestOtpWrongCodeCountsAttempts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	opts := dormly.DefaultOtpOptions()
	svc := dormly.NewOtpService(repo, opts, nil)

	seedPending(t, repo, "resident@example.com", 30*time.Minute)

	code, err := svc.GenerateAndSave(ctx, "resident@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 1; i < opts.MaxAttempts; i++ {
		err = svc.Verify(ctx, "resident@example.com", wrong)
		require.ErrorIs(t, err, dormly.ErrOtpInvalid)
		assert.Contains(t, err.Error(), fmt.Sprintf("%d", opts.MaxAttempts-i))
	}

	// last allowed attempt burns the challenge
	err = svc.Verify(ctx, "resident@example.com", wrong)
	require.ErrorIs(t, err, dormly.ErrOtpInvalid)

	// the cap holds even for the correct code afterwards
	err = svc.Verify(ctx, "resident@example.com", code)
	assert.ErrorIs(t, err, dormly.ErrOtpMaxAttemptsReached)
}

func TestOtpExpiredCode(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	opts := dormly.DefaultOtpOptions()
	opts.ExpirationMinutes = -1
	svc := dormly.NewOtpService(repo, opts, nil)

	seedPending(t, repo, "resident@example.com", 30*time.Minute)

	code, err := svc.GenerateAndSave(ctx, "resident@example.com")
	require.NoError(t, err)

	err = svc.Verify(ctx, "resident@example.com", code)
	assert.ErrorIs(t, err, dormly.ErrOtpExpired)
}

func TestOtpInvalidErrorKeepsSentinelAndMetadata(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewOtpService(repo, dormly.DefaultOtpOptions(), nil)

	seedPending(t, repo, "resident@example.com", 30*time.Minute)

	code, err := svc.GenerateAndSave(ctx, "resident@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err = svc.Verify(ctx, "resident@example.com", wrong)
	require.ErrorIs(t, err, dormly.ErrOtpInvalid)

	var rich *goerrors.Error
	require.ErrorAs(t, err, &rich)
	assert.Equal(t, goerrors.CategoryAuth, rich.Category)
	assert.EqualValues(t, dormly.DefaultOtpOptions().MaxAttempts-1, rich.Metadata["remaining_attempts"])
}
