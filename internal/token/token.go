// Package token signs and verifies the three token classes used across
// the services: session, email-verification, and password-reset. Each
// class has its own secret and its own claim shape, so a token minted
// for one purpose can never verify as another.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quizdeck/backend/config"
)

// ErrInvalid is returned for any token that does not verify: bad
// signature, wrong secret, malformed payload, or missing claims. No
// partial claims are ever returned alongside it.
var ErrInvalid = errors.New("invalid token")

// SessionClaims is what a verified session token asserts.
type SessionClaims struct {
	UserID   string
	Role     string
	IssuedAt time.Time
}

// Codec holds the per-class signing secrets. Construct one with
// NewCodec and share it; it is stateless and safe for concurrent use.
type Codec struct {
	sessionSecret      []byte
	verificationSecret []byte
	resetSecret        []byte
}

// NewCodec validates the configured secrets and returns a codec. All
// three secrets must be set and pairwise distinct; reusing a secret
// across classes would let a reset link act as a session cookie.
func NewCodec(cfg config.SecretsConfig) (*Codec, error) {
	session := strings.TrimSpace(cfg.SessionSecret)
	verification := strings.TrimSpace(cfg.VerificationSecret)
	reset := strings.TrimSpace(cfg.ResetSecret)

	if session == "" || verification == "" || reset == "" {
		return nil, errors.New("all three token secrets are required")
	}
	if session == verification || session == reset || verification == reset {
		return nil, errors.New("token secrets must be pairwise distinct")
	}

	return &Codec{
		sessionSecret:      []byte(session),
		verificationSecret: []byte(verification),
		resetSecret:        []byte(reset),
	}, nil
}

type sessionJWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type emailJWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignSession mints a session token for the given account. The role is
// denormalized into the token so middleware holders need not re-query
// the record store for routing decisions. No expiry claim is set; a
// session lives until the session secret rotates.
func (c *Codec) SignSession(userID, role string) (string, error) {
	claims := sessionJWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.sessionSecret)
}

// VerifySession checks a session token and returns its claims, or
// ErrInvalid.
func (c *Codec) VerifySession(tokenString string) (SessionClaims, error) {
	claims := sessionJWTClaims{}
	if err := c.verify(tokenString, &claims, c.sessionSecret); err != nil {
		return SessionClaims{}, ErrInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return SessionClaims{}, ErrInvalid
	}
	issuedAt := time.Time{}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return SessionClaims{
		UserID:   claims.Subject,
		Role:     claims.Role,
		IssuedAt: issuedAt,
	}, nil
}

// SignVerification mints an email-verification token bound to the
// given address.
func (c *Codec) SignVerification(email string) (string, error) {
	return c.signEmail(email, c.verificationSecret)
}

// VerifyVerification checks an email-verification token and returns
// the email it was bound to, or ErrInvalid.
func (c *Codec) VerifyVerification(tokenString string) (string, error) {
	return c.verifyEmail(tokenString, c.verificationSecret)
}

// SignReset mints a password-reset token bound to the given address.
func (c *Codec) SignReset(email string) (string, error) {
	return c.signEmail(email, c.resetSecret)
}

// VerifyReset checks a password-reset token and returns the email it
// was bound to, or ErrInvalid.
func (c *Codec) VerifyReset(tokenString string) (string, error) {
	return c.verifyEmail(tokenString, c.resetSecret)
}

func (c *Codec) signEmail(email string, secret []byte) (string, error) {
	// The per-issuance id makes every mint unique, so re-issuing a
	// link supersedes the previous one: the stored copy changes and
	// the old token fails the verbatim comparison.
	claims := emailJWTClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (c *Codec) verifyEmail(tokenString string, secret []byte) (string, error) {
	claims := emailJWTClaims{}
	if err := c.verify(tokenString, &claims, secret); err != nil {
		return "", ErrInvalid
	}
	if strings.TrimSpace(claims.Email) == "" {
		return "", ErrInvalid
	}
	return claims.Email, nil
}

func (c *Codec) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("token not valid")
	}
	return nil
}
