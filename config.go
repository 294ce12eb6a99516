package dormly

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// OtpOptions controls OTP minting for pending registrations.
type OtpOptions struct {
	CodeLength               int
	ExpirationMinutes        int
	MaxAttempts              int
	PendingUserExpiryMinutes int
}

func DefaultOtpOptions() OtpOptions {
	return OtpOptions{
		CodeLength:               6,
		ExpirationMinutes:        10,
		MaxAttempts:              5,
		PendingUserExpiryMinutes: 30,
	}
}

// PasswordHashingOptions are the PBKDF2 parameters. Iterations is the
// throughput/security tradeoff knob; raising it slows every login.
type PasswordHashingOptions struct {
	SaltSize   int
	HashSize   int
	Iterations int
}

func DefaultPasswordHashingOptions() PasswordHashingOptions {
	return PasswordHashingOptions{
		SaltSize:   16,
		HashSize:   32,
		Iterations: 10000,
	}
}

// PasswordResetOptions controls reset-token minting.
type PasswordResetOptions struct {
	CodeLength        int
	ExpirationMinutes int
}

func DefaultPasswordResetOptions() PasswordResetOptions {
	return PasswordResetOptions{
		CodeLength:        6,
		ExpirationMinutes: 15,
	}
}

// TokenOptions configures JWT signing and validation.
type TokenOptions struct {
	Secret            string
	Issuer            string
	Audience          string
	ExpirationMinutes int
}

func DefaultTokenOptions() TokenOptions {
	return TokenOptions{
		Issuer:            "dormly",
		Audience:          "dormly-clients",
		ExpirationMinutes: 60,
	}
}

// PasswordPolicy is the configurable complexity rule set applied to new
// passwords on registration and reset.
type PasswordPolicy struct {
	MinLength          int
	MaxLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	SpecialCharPattern string
}

// ValidationOptions bundles the input validation rules.
type ValidationOptions struct {
	UsernameMinLength int
	UsernameMaxLength int
	Password          PasswordPolicy
}

func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		UsernameMinLength: 10,
		UsernameMaxLength: 50,
		Password: PasswordPolicy{
			MinLength:          8,
			MaxLength:          16,
			RequireUppercase:   true,
			RequireLowercase:   true,
			RequireDigit:       true,
			RequireSpecialChar: true,
			SpecialCharPattern: `[\!\?\*\.@#\$%&]`,
		},
	}
}

// MailerOptions configures the SMTP gateway.
type MailerOptions struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SenderName string
	From       string
	Insecure   bool
	Timeout    time.Duration
}

func DefaultMailerOptions() MailerOptions {
	return MailerOptions{
		Port:       587,
		SenderName: "Dormly",
		Timeout:    10 * time.Second,
	}
}

// Config is the full configuration surface, injected by value into each
// component constructor. There is no ambient/static lookup.
type Config struct {
	DBDSN      string
	ListenAddr string
	BaseURL    string
	Otp        OtpOptions
	Hashing    PasswordHashingOptions
	Reset      PasswordResetOptions
	Token      TokenOptions
	Validation ValidationOptions
	Mailer     MailerOptions
}

func DefaultConfig() Config {
	return Config{
		DBDSN:      "file::memory:?cache=shared",
		ListenAddr: ":8080",
		BaseURL:    "http://localhost:8080",
		Otp:        DefaultOtpOptions(),
		Hashing:    DefaultPasswordHashingOptions(),
		Reset:      DefaultPasswordResetOptions(),
		Token:      DefaultTokenOptions(),
		Validation: DefaultValidationOptions(),
		Mailer:     DefaultMailerOptions(),
	}
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when present. Missing variables fall back to defaults.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)

	cfg.Otp.CodeLength = getInt("OTP_CODE_LENGTH", cfg.Otp.CodeLength)
	cfg.Otp.ExpirationMinutes = getInt("OTP_EXPIRATION_MINUTES", cfg.Otp.ExpirationMinutes)
	cfg.Otp.MaxAttempts = getInt("OTP_MAX_ATTEMPTS", cfg.Otp.MaxAttempts)
	cfg.Otp.PendingUserExpiryMinutes = getInt("PENDING_USER_EXPIRY_MINUTES", cfg.Otp.PendingUserExpiryMinutes)

	cfg.Hashing.SaltSize = getInt("PASSWORD_SALT_SIZE", cfg.Hashing.SaltSize)
	cfg.Hashing.HashSize = getInt("PASSWORD_HASH_SIZE", cfg.Hashing.HashSize)
	cfg.Hashing.Iterations = getInt("PASSWORD_HASH_ITERATIONS", cfg.Hashing.Iterations)

	cfg.Reset.CodeLength = getInt("RESET_CODE_LENGTH", cfg.Reset.CodeLength)
	cfg.Reset.ExpirationMinutes = getInt("RESET_EXPIRATION_MINUTES", cfg.Reset.ExpirationMinutes)

	cfg.Token.Secret = getEnv("JWT_SECRET", cfg.Token.Secret)
	cfg.Token.Issuer = getEnv("JWT_ISSUER", cfg.Token.Issuer)
	cfg.Token.Audience = getEnv("JWT_AUDIENCE", cfg.Token.Audience)
	cfg.Token.ExpirationMinutes = getInt("JWT_EXPIRATION_MINUTES", cfg.Token.ExpirationMinutes)

	cfg.Validation.UsernameMinLength = getInt("USERNAME_MIN_LENGTH", cfg.Validation.UsernameMinLength)
	cfg.Validation.UsernameMaxLength = getInt("USERNAME_MAX_LENGTH", cfg.Validation.UsernameMaxLength)
	cfg.Validation.Password.MinLength = getInt("PASSWORD_MIN_LENGTH", cfg.Validation.Password.MinLength)
	cfg.Validation.Password.MaxLength = getInt("PASSWORD_MAX_LENGTH", cfg.Validation.Password.MaxLength)
	cfg.Validation.Password.RequireUppercase = getBool("PASSWORD_REQUIRE_UPPERCASE", cfg.Validation.Password.RequireUppercase)
	cfg.Validation.Password.RequireLowercase = getBool("PASSWORD_REQUIRE_LOWERCASE", cfg.Validation.Password.RequireLowercase)
	cfg.Validation.Password.RequireDigit = getBool("PASSWORD_REQUIRE_DIGIT", cfg.Validation.Password.RequireDigit)
	cfg.Validation.Password.RequireSpecialChar = getBool("PASSWORD_REQUIRE_SPECIAL", cfg.Validation.Password.RequireSpecialChar)

	cfg.Mailer.Host = getEnv("SMTP_HOST", cfg.Mailer.Host)
	cfg.Mailer.Port = getInt("SMTP_PORT", cfg.Mailer.Port)
	cfg.Mailer.Username = getEnv("SMTP_USERNAME", cfg.Mailer.Username)
	cfg.Mailer.Password = getEnv("SMTP_PASSWORD", cfg.Mailer.Password)
	cfg.Mailer.From = getEnv("SMTP_FROM", cfg.Mailer.From)
	cfg.Mailer.SenderName = getEnv("SMTP_SENDER_NAME", cfg.Mailer.SenderName)
	cfg.Mailer.Insecure = getBool("SMTP_INSECURE", cfg.Mailer.Insecure)
	cfg.Mailer.Timeout = getDuration("SMTP_TIMEOUT", cfg.Mailer.Timeout)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
