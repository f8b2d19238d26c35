package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Algorithm selects the HMAC signing algorithm for issued tokens.
// Only HS256 and HS512 are accepted; any other value is rejected when the
// Codec is constructed, not at first use.
type Algorithm string

const (
	AlgHS256 Algorithm = "HS256"
	AlgHS512 Algorithm = "HS512"
)

// Purpose tags a token with the flow it is valid for. A token issued for one
// purpose never verifies under another.
type Purpose string

const (
	PurposeAccess       Purpose = "access"
	PurposeRefresh      Purpose = "refresh"
	PurposeEmailConfirm Purpose = "email_confirm"
)

var (
	// ErrMalformed is returned for input that is not a token at all.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned when the signature does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned for a well-formed, correctly signed token past
	// its expiry.
	ErrExpired = errors.New("token expired")
	// ErrPurposeMismatch is returned when a valid token is presented to the
	// wrong flow (e.g. a refresh token on an access check).
	ErrPurposeMismatch = errors.New("token purpose mismatch")
)

// Config holds the signing material and verification tuning for a Codec.
// The secret is process-wide configuration, loaded once at startup.
type Config struct {
	Secret    []byte
	Algorithm Algorithm
	Issuer    string
	// Leeway is the tolerated clock skew during verification. Zero means
	// none.
	Leeway time.Duration
}

// Codec signs and verifies compact, expiring, purpose-tagged tokens.
type Codec struct {
	config Config
	method jwt.SigningMethod
}

type claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// New validates cfg and returns a Codec. The algorithm allow-list and secret
// presence are checked here so that misconfiguration fails process startup.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	var method jwt.SigningMethod
	switch Algorithm(strings.ToUpper(string(cfg.Algorithm))) {
	case AlgHS256:
		method = jwt.SigningMethodHS256
	case AlgHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	return &Codec{config: cfg, method: method}, nil
}

// Issue produces a signed token embedding subject, purpose, issue time, and
// expiry time.
func (c *Codec) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}
	if ttl <= 0 {
		return "", errors.New("non-positive ttl")
	}

	// The ID makes every issuance unique. Timestamps alone have second
	// precision, and rotation depends on the new refresh token superseding
	// the old one even within the same second.
	now := time.Now()
	cl := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if c.config.Issuer != "" {
		cl.Issuer = c.config.Issuer
	}

	return jwt.NewWithClaims(c.method, cl).SignedString(c.config.Secret)
}

// Verify checks the signature first, then expiry, then the purpose tag, and
// returns the embedded subject. No claim is trusted before the signature
// verifies.
func (c *Codec) Verify(tokenStr string, want Purpose) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		return "", mapParseError(err)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return "", ErrMalformed
	}
	if cl.Purpose != want {
		return "", ErrPurposeMismatch
	}
	if cl.Subject == "" {
		return "", ErrMalformed
	}

	return cl.Subject, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		// Unexpected signing method, missing issuer, future iat and the
		// rest all collapse into signature-level rejection.
		return ErrSignatureInvalid
	}
}
