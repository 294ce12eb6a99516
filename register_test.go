package dormly_test

import (
	"context"
	"strings"
	"testing"
	"time"

	dormly "github.com/dormly/go-dormly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type registrarFixture struct {
	registrar *dormly.Registrar
	repo      dormly.RepositoryManager
	mailer    *capturingMailer
	otp       dormly.OtpService
	tokens    dormly.TokenService
}

func newRegistrarFixture(t *testing.T) *registrarFixture {
	t.Helper()

	cfg := dormly.DefaultConfig()
	cfg.Token.Secret = "test-secret-please-rotate"

	repo := newTestRepo(t)
	mailer := &capturingMailer{}

	validator, err := dormly.NewInputValidator(cfg.Validation)
	require.NoError(t, err)

	hasher := dormly.NewHasher(cfg.Hashing)
	tokens := dormly.NewTokenService(cfg.Token, nil)
	otp := dormly.NewOtpService(repo, cfg.Otp, nil)
	reset := dormly.NewPasswordResetService(repo, cfg.Reset, nil)

	registrar := dormly.NewRegistrar(repo, validator, hasher, otp, reset, mailer, tokens, cfg.Otp, nil)

	return &registrarFixture{
		registrar: registrar,
		repo:      repo,
		mailer:    mailer,
		otp:       otp,
		tokens:    tokens,
	}
}

func (f *registrarFixture) register(t *testing.T, email string) {
	t.Helper()
	_, err := f.registrar.Register(context.Background(), dormly.RegisterInput{
		Email:           email,
		Username:        "dorm-resident",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}, "http://app.test")
	require.NoError(t, err)
}

func (f *registrarFixture) registerAndActivate(t *testing.T, email string) {
	t.Helper()
	f.register(t, email)
	require.NoError(t, f.registrar.VerifyOtp(context.Background(), email, f.mailer.lastOtp(t)))
}

func TestRegisterHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	out, err := f.registrar.Register(ctx, dormly.RegisterInput{
		Email:           "resident@example.com",
		Username:        "dorm-resident",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}, "http://app.test")
	require.NoError(t, err)
	assert.Equal(t, "resident@example.com", out.Email)
	assert.Equal(t, dormly.MsgOtpSent, out.Message)
	assert.Equal(t, dormly.DefaultOtpOptions().ExpirationMinutes, out.ExpirationMinutes)

	// registration alone creates no account
	_, err = f.registrar.Login(ctx, dormly.LoginInput{Email: "resident@example.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, dormly.ErrInvalidCredentials)

	require.NoError(t, f.registrar.VerifyOtp(ctx, "resident@example.com", f.mailer.lastOtp(t)))

	session, err := f.registrar.Login(ctx, dormly.LoginInput{Email: "resident@example.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "dorm-resident", session.Username)

	userID, err := f.tokens.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, userID)

	profile, err := f.registrar.CurrentUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "resident@example.com", profile.Email)
	assert.True(t, profile.Confirmed)
}

func TestRegisterRejectsExistingAccount(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.registerAndActivate(t, "resident@example.com")

	_, err := f.registrar.Register(ctx, dormly.RegisterInput{
		Email:           "resident@example.com",
		Username:        "dorm-resident",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}, "http://app.test")
	assert.ErrorIs(t, err, dormly.ErrEmailAlreadyRegistered)
}

func TestRegisterSupersedesPendingRegistration(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.register(t, "resident@example.com")
	firstCode := f.mailer.lastOtp(t)

	f.register(t, "resident@example.com")
	secondCode := f.mailer.lastOtp(t)

	if firstCode != secondCode {
		err := f.registrar.VerifyOtp(ctx, "resident@example.com", firstCode)
		assert.Error(t, err, "superseded code must not verify")
	}

	require.NoError(t, f.registrar.VerifyOtp(ctx, "resident@example.com", secondCode))
}

func TestRegisterEmailFailureKeepsPendingState(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.mailer.failNext = true
	_, err := f.registrar.Register(ctx, dormly.RegisterInput{
		Email:           "resident@example.com",
		Username:        "dorm-resident",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}, "http://app.test")
	assert.ErrorIs(t, err, dormly.ErrFailedToSendOtpEmail)

	// resend recovers without registering again
	require.NoError(t, f.registrar.ResendOtp(ctx, "resident@example.com", "http://app.test"))
	require.NoError(t, f.registrar.VerifyOtp(ctx, "resident@example.com", f.mailer.lastOtp(t)))
}

func TestResendOtpWithoutPendingRegistration(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	err := f.registrar.ResendOtp(ctx, "nobody@example.com", "http://app.test")
	assert.ErrorIs(t, err, dormly.ErrPendingUserNotFound)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.registerAndActivate(t, "resident@example.com")

	_, err := f.registrar.Login(ctx, dormly.LoginInput{Email: "resident@example.com", Password: "WrongPass1!"})
	assert.ErrorIs(t, err, dormly.ErrInvalidCredentials)

	_, err = f.registrar.Login(ctx, dormly.LoginInput{Email: "nobody@example.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, dormly.ErrInvalidCredentials)

	// unconfirmed accounts are told apart from bad credentials
	f.register(t, "pending@example.com")
	seedUser(t, f.repo, "unconfirmed@example.com", false)
	_, err = f.registrar.Login(ctx, dormly.LoginInput{Email: "unconfirmed@example.com", Password: "anything"})
	assert.ErrorIs(t, err, dormly.ErrAccountNotConfirmed)
}

func TestForgotPasswordNeverRevealsAccounts(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	// unknown email still reports success and sends nothing
	require.NoError(t, f.registrar.SendPasswordResetOtp(ctx, "nobody@example.com"))
	assert.Empty(t, f.mailer.resetCodes)

	f.registerAndActivate(t, "resident@example.com")
	require.NoError(t, f.registrar.SendPasswordResetOtp(ctx, "resident@example.com"))
	assert.Len(t, f.mailer.resetCodes, 1)
}

func TestForgotPasswordSurfacesDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.registerAndActivate(t, "resident@example.com")

	f.mailer.failNext = true
	err := f.registrar.SendPasswordResetOtp(ctx, "resident@example.com")
	assert.ErrorIs(t, err, dormly.ErrFailedToSendReset)
}

func TestResetPasswordEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.registerAndActivate(t, "resident@example.com")
	require.NoError(t, f.registrar.SendPasswordResetOtp(ctx, "resident@example.com"))
	token := f.mailer.lastReset(t)

	err := f.registrar.ResetPassword(ctx, dormly.ResetPasswordInput{
		Email:           "resident@example.com",
		Token:           token,
		Password:        "N3wSecret!",
		PasswordConfirm: "N3wSecret!",
	})
	require.NoError(t, err)

	// old password stops working, new one logs in
	_, err = f.registrar.Login(ctx, dormly.LoginInput{Email: "resident@example.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, dormly.ErrInvalidCredentials)

	_, err = f.registrar.Login(ctx, dormly.LoginInput{Email: "resident@example.com", Password: "N3wSecret!"})
	require.NoError(t, err)

	// the token is burned
	err = f.registrar.ResetPassword(ctx, dormly.ResetPasswordInput{
		Email:           "resident@example.com",
		Token:           token,
		Password:        "An0therOne!",
		PasswordConfirm: "An0therOne!",
	})
	assert.ErrorIs(t, err, dormly.ErrResetTokenInvalid)
}

func TestResetPasswordValidatesBeforeTouchingToken(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	f.registerAndActivate(t, "resident@example.com")
	require.NoError(t, f.registrar.SendPasswordResetOtp(ctx, "resident@example.com"))
	token := f.mailer.lastReset(t)

	// weak password fails validation and must not consume the token
	err := f.registrar.ResetPassword(ctx, dormly.ResetPasswordInput{
		Email:           "resident@example.com",
		Token:           token,
		Password:        "weak",
		PasswordConfirm: "weak",
	})
	require.Error(t, err)

	err = f.registrar.ResetPassword(ctx, dormly.ResetPasswordInput{
		Email:           "resident@example.com",
		Token:           token,
		Password:        "N3wSecret!",
		PasswordConfirm: "N3wSecret!",
	})
	require.NoError(t, err)
}

func TestActivateWithoutPendingRegistration(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	err := f.registrar.Activate(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, dormly.ErrPendingUserDataMissing)
}

func TestRegisterBuildsVerificationURL(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	mailer := new(MockMailer)
	mailer.On("SendOtpEmail", mock.Anything, "resident@example.com", mock.AnythingOfType("string"), mock.MatchedBy(func(u string) bool {
		return strings.HasPrefix(u, "http://app.test/user/verify?email=resident%40example.com&otp=")
	})).Return(nil).Once()

	registrar := dormly.NewRegistrar(
		f.repo,
		newTestValidator(t),
		dormly.NewHasher(dormly.DefaultPasswordHashingOptions()),
		f.otp,
		nil,
		mailer,
		f.tokens,
		dormly.DefaultOtpOptions(),
		nil,
	)

	_, err := registrar.Register(ctx, dormly.RegisterInput{
		Email:           "resident@example.com",
		Username:        "dorm-resident",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}, "http://app.test")
	require.NoError(t, err)

	mailer.AssertExpectations(t)
}

func TestActivateExpiredRegistrationDeletesStaleState(t *testing.T) {
	ctx := context.Background()
	f := newRegistrarFixture(t)

	seedPending(t, f.repo, "late@example.com", -time.Minute)

	err := f.registrar.Activate(ctx, "late@example.com")
	require.ErrorIs(t, err, dormly.ErrRegistrationExpired)

	// the stale row is gone, so the email can register from scratch
	_, err = f.repo.PendingUsers().GetByEmail(ctx, "late@example.com")
	assert.True(t, dormly.IsRecordNotFound(err))

	f.register(t, "late@example.com")
	require.NoError(t, f.registrar.VerifyOtp(ctx, "late@example.com", f.mailer.lastOtp(t)))
}
