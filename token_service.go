package dormly

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService signs and validates bearer tokens. Tokens are stateless:
// validity is signature + registered claims only, there is no server-side
// revocation list and logout is a client-side token discard.
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(token string) (int64, error)
}

// AuthClaims is the claim set carried by issued tokens.
type AuthClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// TokenServiceImpl implements TokenService with a symmetric HS256 key.
type TokenServiceImpl struct {
	opts   TokenOptions
	logger Logger
}

func NewTokenService(opts TokenOptions, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{opts: opts, logger: logger}
}

var _ TokenService = (*TokenServiceImpl)(nil)

// Generate builds a claim set for the account and signs it. The jti is a
// fresh uuid per token so identical logins never collide.
func (ts *TokenServiceImpl) Generate(user *User) (string, error) {
	if user == nil {
		return "", goerrors.New("user must not be nil", goerrors.CategoryInternal)
	}

	now := time.Now()
	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.opts.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			Audience:  jwt.ClaimStrings{ts.opts.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.opts.ExpirationMinutes) * time.Minute)),
			ID:        uuid.New().String(),
		},
		Email:    user.Email,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(ts.opts.Secret))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Validate checks signature, issuer, audience and expiry in one pass with
// zero clock-skew tolerance. Callers only learn "invalid"; whether the
// token was expired or malformed stays in logs.
func (ts *TokenServiceImpl) Validate(raw string) (int64, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	}
	if ts.opts.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.opts.Issuer))
	}
	if ts.opts.Audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.opts.Audience))
	}

	token, err := jwt.ParseWithClaims(raw, &AuthClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(ts.opts.Secret), nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("token validation failed", "error", err)
		return 0, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return 0, ErrTokenInvalid
	}

	id, err := strconv.ParseInt(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil {
		ts.logger.Error("token subject is not a numeric account id", "subject", claims.RegisteredClaims.Subject)
		return 0, ErrTokenInvalid
	}

	return id, nil
}
