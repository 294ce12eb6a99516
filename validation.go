package dormly

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// RegisterInput is the registration submission.
type RegisterInput struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ResetPasswordInput carries the reset token together with the new
// password.
type ResetPasswordInput struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// InputValidator applies the configured rule set to incoming payloads.
type InputValidator struct {
	opts      ValidationOptions
	upperRe   *regexp.Regexp
	lowerRe   *regexp.Regexp
	digitRe   *regexp.Regexp
	specialRe *regexp.Regexp
}

func NewInputValidator(opts ValidationOptions) (*InputValidator, error) {
	specialRe, err := regexp.Compile(opts.Password.SpecialCharPattern)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid special-char pattern")
	}

	return &InputValidator{
		opts:      opts,
		upperRe:   regexp.MustCompile(`[A-Z]`),
		lowerRe:   regexp.MustCompile(`[a-z]`),
		digitRe:   regexp.MustCompile(`[0-9]`),
		specialRe: specialRe,
	}, nil
}

// ValidateRegister returns a CategoryValidation error listing every
// violated rule, or nil.
func (v *InputValidator) ValidateRegister(in RegisterInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email address is not valid"),
		),
		validation.Field(&in.Username,
			validation.Required.Error("Username is required"),
			validation.Length(v.opts.UsernameMinLength, v.opts.UsernameMaxLength).
				Error(lengthMessage("username", v.opts.UsernameMinLength, v.opts.UsernameMaxLength)),
		),
		validation.Field(&in.Password, v.passwordRules()...),
		validation.Field(&in.PasswordConfirm,
			validation.Required.Error("Password confirmation is required"),
			validation.By(stringEquals(in.Password, "Passwords do not match")),
		),
	)
	return asValidationError(err)
}

// ValidateResetPassword checks the new password and the confirm match
// before anything touches the token store.
func (v *InputValidator) ValidateResetPassword(in ResetPasswordInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email address is not valid"),
		),
		validation.Field(&in.Token,
			validation.Required.Error("Reset token is required"),
		),
		validation.Field(&in.Password, v.passwordRules()...),
		validation.Field(&in.PasswordConfirm,
			validation.Required.Error("Password confirmation is required"),
			validation.By(stringEquals(in.Password, "Passwords do not match")),
		),
	)
	return asValidationError(err)
}

func (v *InputValidator) passwordRules() []validation.Rule {
	p := v.opts.Password

	rules := []validation.Rule{
		validation.Required.Error("Password is required"),
		validation.Length(p.MinLength, p.MaxLength).
			Error(lengthMessage("password", p.MinLength, p.MaxLength)),
	}

	if p.RequireUppercase {
		rules = append(rules, validation.Match(v.upperRe).
			Error("Your password must contain at least one uppercase letter."))
	}
	if p.RequireLowercase {
		rules = append(rules, validation.Match(v.lowerRe).
			Error("Your password must contain at least one lowercase letter."))
	}
	if p.RequireDigit {
		rules = append(rules, validation.Match(v.digitRe).
			Error("Your password must contain at least one number."))
	}
	if p.RequireSpecialChar {
		rules = append(rules, validation.Match(v.specialRe).
			Error("Your password must contain at least one special character."))
	}

	return rules
}

// stringEquals checks that both values match.
func stringEquals(expected, msg string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New(msg)
		}
		return nil
	}
}

func lengthMessage(field string, min, max int) string {
	return fmt.Sprintf("Your %s length must be between %d and %d.", field, min, max)
}

// asValidationError lifts ozzo's field->error map into our taxonomy so the
// caller gets every violated rule in one response.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrors validation.Errors
	if errors.As(err, &fieldErrors) {
		details := make(map[string]any, len(fieldErrors))
		for field, ferr := range fieldErrors {
			details[field] = ferr.Error()
		}
		return goerrors.New("Validation failed", goerrors.CategoryValidation).
			WithMetadata(details)
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, "Validation failed")
}
