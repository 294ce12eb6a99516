package dormly_test

import (
	"strings"
	"testing"

	dormly "github.com/dormly/go-dormly"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *dormly.InputValidator {
	t.Helper()
	v, err := dormly.NewInputValidator(dormly.DefaultValidationOptions())
	require.NoError(t, err)
	return v
}

func validRegisterInput() dormly.RegisterInput {
	return dormly.RegisterInput{
		Email:           "resident@example.com",
		Username:        "dorm-resident",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}
}

func TestValidateRegisterAccepts(t *testing.T) {
	v := newTestValidator(t)
	assert.NoError(t, v.ValidateRegister(validRegisterInput()))
}

func TestValidateRegisterRejects(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name   string
		mutate func(*dormly.RegisterInput)
		field  string
	}{
		{"missing email", func(in *dormly.RegisterInput) { in.Email = "" }, "email"},
		{"malformed email", func(in *dormly.RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"username too short", func(in *dormly.RegisterInput) { in.Username = "short" }, "username"},
		{"username too long", func(in *dormly.RegisterInput) { in.Username = strings.Repeat("a", 51) }, "username"},
		{"password too short", func(in *dormly.RegisterInput) {
			in.Password = "Ab1!x"
			in.PasswordConfirm = "Ab1!x"
		}, "password"},
		{"password too long", func(in *dormly.RegisterInput) {
			long := "Ab1!" + strings.Repeat("x", 20)
			in.Password = long
			in.PasswordConfirm = long
		}, "password"},
		{"password missing uppercase", func(in *dormly.RegisterInput) {
			in.Password = "sup3rsecret!"
			in.PasswordConfirm = "sup3rsecret!"
		}, "password"},
		{"password missing lowercase", func(in *dormly.RegisterInput) {
			in.Password = "SUP3RSECRET!"
			in.PasswordConfirm = "SUP3RSECRET!"
		}, "password"},
		{"password missing digit", func(in *dormly.RegisterInput) {
			in.Password = "SuperSecret!"
			in.PasswordConfirm = "SuperSecret!"
		}, "password"},
		{"password missing special", func(in *dormly.RegisterInput) {
			in.Password = "Sup3rSecret"
			in.PasswordConfirm = "Sup3rSecret"
		}, "password"},
		{"confirmation mismatch", func(in *dormly.RegisterInput) { in.PasswordConfirm = "Different1!" }, "password_confirm"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validRegisterInput()
			tc.mutate(&in)

			err := v.ValidateRegister(in)
			require.Error(t, err)

			var rich *goerrors.Error
			require.ErrorAs(t, err, &rich)
			assert.Equal(t, goerrors.CategoryValidation, rich.Category)
			assert.Contains(t, rich.Metadata, tc.field)
		})
	}
}

func TestValidateResetPassword(t *testing.T) {
	v := newTestValidator(t)

	valid := dormly.ResetPasswordInput{
		Email:           "resident@example.com",
		Token:           "123456",
		Password:        "N3wSecret!",
		PasswordConfirm: "N3wSecret!",
	}
	assert.NoError(t, v.ValidateResetPassword(valid))

	missingToken := valid
	missingToken.Token = ""
	err := v.ValidateResetPassword(missingToken)
	require.Error(t, err)

	var rich *goerrors.Error
	require.ErrorAs(t, err, &rich)
	assert.Contains(t, rich.Metadata, "token")

	mismatch := valid
	mismatch.PasswordConfirm = "Other1!x"
	err = v.ValidateResetPassword(mismatch)
	require.Error(t, err)
	require.ErrorAs(t, err, &rich)
	assert.Contains(t, rich.Metadata, "password_confirm")
}

func TestNewInputValidatorRejectsBadPattern(t *testing.T) {
	opts := dormly.DefaultValidationOptions()
	opts.Password.SpecialCharPattern = "["
	_, err := dormly.NewInputValidator(opts)
	assert.Error(t, err)
}
