package dormly_test

import (
	"context"
	"testing"

	dormly "github.com/dormly/go-dormly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo dormly.RepositoryManager, email string, confirmed bool) *dormly.User {
	t.Helper()
	user, err := repo.Users().Create(context.Background(), &dormly.User{
		Email:        email,
		Username:     "dorm-resident",
		PasswordHash: "stored-hash",
		Confirmed:    confirmed,
	})
	require.NoError(t, err)
	return user
}

func TestResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewPasswordResetService(repo, dormly.DefaultPasswordResetOptions(), nil)

	seedUser(t, repo, "resident@example.com", true)

	token, err := svc.GenerateResetToken(ctx, "resident@example.com")
	require.NoError(t, err)
	assert.Len(t, token, dormly.DefaultPasswordResetOptions().CodeLength)

	require.NoError(t, svc.VerifyResetToken(ctx, "resident@example.com", token))

	// single use: the same token cannot be burned twice
	err = svc.VerifyResetToken(ctx, "resident@example.com", token)
	assert.ErrorIs(t, err, dormly.ErrResetTokenInvalid)
}

func TestResetTokenOnlyForConfirmedAccounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewPasswordResetService(repo, dormly.DefaultPasswordResetOptions(), nil)

	_, err := svc.GenerateResetToken(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, dormly.ErrUserNotFound)

	seedUser(t, repo, "pending@example.com", false)
	_, err = svc.GenerateResetToken(ctx, "pending@example.com")
	assert.ErrorIs(t, err, dormly.ErrUserNotConfirmed)
}

func TestResetTokenRegenerateReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewPasswordResetService(repo, dormly.DefaultPasswordResetOptions(), nil)

	seedUser(t, repo, "resident@example.com", true)

	first, err := svc.GenerateResetToken(ctx, "resident@example.com")
	require.NoError(t, err)
	second, err := svc.GenerateResetToken(ctx, "resident@example.com")
	require.NoError(t, err)

	n, err := repo.PasswordResets().CountByEmail(ctx, "resident@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only one live reset token per email")

	if first != second {
		err = svc.VerifyResetToken(ctx, "resident@example.com", first)
		assert.ErrorIs(t, err, dormly.ErrResetTokenInvalid)
	}
	require.NoError(t, svc.VerifyResetToken(ctx, "resident@example.com", second))
}

func TestResetTokenExpired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	opts := dormly.DefaultPasswordResetOptions()
	opts.ExpirationMinutes = -1
	svc := dormly.NewPasswordResetService(repo, opts, nil)

	seedUser(t, repo, "resident@example.com", true)

	token, err := svc.GenerateResetToken(ctx, "resident@example.com")
	require.NoError(t, err)

	err = svc.VerifyResetToken(ctx, "resident@example.com", token)
	assert.ErrorIs(t, err, dormly.ErrResetTokenExpired)
}

func TestResetTokenCleanup(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := dormly.NewPasswordResetService(repo, dormly.DefaultPasswordResetOptions(), nil)

	seedUser(t, repo, "resident@example.com", true)

	token, err := svc.GenerateResetToken(ctx, "resident@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyResetToken(ctx, "resident@example.com", token))

	require.NoError(t, svc.CleanupTokens(ctx, "resident@example.com"))

	n, err := repo.PasswordResets().CountByEmail(ctx, "resident@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
