// Package jwt provides the access-token verifier for citygate.
//
// Tokens are JWTs signed with either a shared HMAC secret or an RSA key
// whose public half is configured as PEM. Verification is pure: the key is
// loaded once at construction and no network or storage access happens per
// token.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/debug"
)

// Config holds the verifier configuration.
type Config struct {
	// Secret is the HMAC signing secret. Exactly one of Secret and
	// PublicKeyPEM must be set.
	Secret []byte

	// PublicKeyPEM is an RSA public key used to verify RS256/384/512 tokens.
	PublicKeyPEM []byte

	// Issuer is the expected iss claim. If empty, issuer is not validated.
	Issuer string

	// Audience is the expected aud claim. If empty, audience is not validated.
	Audience string

	// TokenType is the required token_type claim. Default: "access".
	TokenType string

	// Now is the clock used for expiry checks. Default: time.Now.
	Now func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.TokenType == "" {
		c.TokenType = "access"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// tokenClaims is the JWT wire form of auth.Claims.
type tokenClaims struct {
	jwtlib.RegisteredClaims
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	TenantID  *string `json:"tenant_id"`
	TokenType string  `json:"token_type"`
}

// Verifier validates access tokens.
type Verifier struct {
	config  Config
	key     any
	methods []string
}

var _ auth.Verifier = (*Verifier)(nil)

// New creates a verifier. It fails if the key material is missing,
// ambiguous, or unparsable.
func New(cfg Config) (*Verifier, error) {
	cfg.applyDefaults()

	switch {
	case len(cfg.Secret) > 0 && len(cfg.PublicKeyPEM) > 0:
		return nil, errors.New("configure either a secret or a public key, not both")
	case len(cfg.Secret) > 0:
		return &Verifier{
			config:  cfg,
			key:     cfg.Secret,
			methods: []string{"HS256", "HS384", "HS512"},
		}, nil
	case len(cfg.PublicKeyPEM) > 0:
		pub, err := jwtlib.ParseRSAPublicKeyFromPEM(cfg.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("parsing public key: %w", err)
		}
		return &Verifier{
			config:  cfg,
			key:     pub,
			methods: []string{"RS256", "RS384", "RS512"},
		}, nil
	default:
		return nil, errors.New("no signing key configured")
	}
}

// Verify validates raw and returns its claims.
//
// Expiry is evaluated before the signature, so a token past its exp claim
// reports ExpiredToken whether or not its signature is valid.
func (v *Verifier) Verify(raw string) (auth.Claims, error) {
	now := v.config.Now()

	var peek tokenClaims
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, &peek); err != nil {
		return auth.Claims{}, invalid(fmt.Errorf("malformed token: %w", err))
	}
	if peek.ExpiresAt != nil && !now.Before(peek.ExpiresAt.Time) {
		return auth.Claims{}, auth.NewError(auth.ExpiredToken, jwtlib.ErrTokenExpired)
	}

	var tc tokenClaims
	_, err := jwtlib.ParseWithClaims(raw, &tc, func(*jwtlib.Token) (any, error) {
		return v.key, nil
	}, v.parserOptions()...)
	if err != nil {
		debug.Log("auth", "JWT validation failed", "error", err)
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return auth.Claims{}, auth.NewError(auth.ExpiredToken, err)
		}
		return auth.Claims{}, invalid(err)
	}

	return v.claims(&tc)
}

// claims converts verified wire claims to auth.Claims, enforcing the token
// category and the closed role set.
func (v *Verifier) claims(tc *tokenClaims) (auth.Claims, error) {
	if tc.TokenType != v.config.TokenType {
		return auth.Claims{}, invalid(fmt.Errorf("token_type %q, want %q", tc.TokenType, v.config.TokenType))
	}
	if tc.Subject == "" {
		return auth.Claims{}, invalid(errors.New("missing sub claim"))
	}

	role, err := auth.ParseRole(tc.Role)
	if err != nil {
		return auth.Claims{}, invalid(err)
	}

	claims := auth.Claims{
		Subject:   tc.Subject,
		Email:     tc.Email,
		Role:      role,
		TenantID:  tc.TenantID,
		ExpiresAt: tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, nil
}

// parserOptions builds JWT parser options based on the configuration.
func (v *Verifier) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods(v.methods),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithTimeFunc(v.config.Now),
	}

	if v.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(v.config.Issuer))
	}

	if v.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(v.config.Audience))
	}

	return opts
}

func invalid(cause error) error {
	return auth.NewError(auth.InvalidToken, cause)
}
