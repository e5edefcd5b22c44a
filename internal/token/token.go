package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. Every failure wraps ErrInvalidToken.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrWrongKind    = fmt.Errorf("%w: unexpected kind", ErrInvalidToken)
)

var signingMethod = jwt.SigningMethodHS256

// IssueParams describes a token to sign.
type IssueParams struct {
	ID       string
	Subject  string
	Issuer   string
	Kind     Kind
	Identity Identity
	IssuedAt time.Time
	Lifetime time.Duration
}

// Issue signs a token. The result is deterministic for identical parameters.
// Identity claims are only written for access tokens.
func Issue(key Key, p IssueParams) (string, error) {
	if key.IsZero() {
		return "", errors.New("token: signing key not configured")
	}
	if p.Subject == "" {
		return "", errors.New("token: subject required")
	}
	if p.Lifetime <= 0 {
		return "", fmt.Errorf("token: lifetime must be positive, got %s", p.Lifetime)
	}
	if p.Kind != KindAccess && p.Kind != KindRefresh {
		return "", fmt.Errorf("token: unknown kind %q", p.Kind)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.ID,
			Subject:   p.Subject,
			Issuer:    p.Issuer,
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.IssuedAt.Add(p.Lifetime)),
		},
		Kind: p.Kind,
	}
	if p.Kind == KindAccess {
		claims.FirstName = p.Identity.FirstName
		claims.LastName = p.Identity.LastName
		claims.Role = p.Identity.Role
		claims.Permissions = p.Identity.Permissions
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(key.b)
	if err != nil {
		return "", fmt.Errorf("token: sign %s token: %w", p.Kind, err)
	}
	return signed, nil
}

// VerifyOptions tune Verify.
type VerifyOptions struct {
	// Expected, when set, must equal the kind claim.
	Expected Kind
	// Issuer, when set, must equal the iss claim.
	Issuer string
	// Now overrides the clock used for exp/iat checks.
	Now    func() time.Time
	Leeway time.Duration
}

// Verify checks signature, expiry, issuer and kind and returns the decoded claims.
// All failures wrap ErrInvalidToken.
func Verify(tok string, key Key, opts VerifyOptions) (*Claims, error) {
	if key.IsZero() {
		return nil, errors.New("token: verification key not configured")
	}
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(opts.Now))
	}
	if opts.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(opts.Leeway))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return key.b, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if opts.Expected != "" && claims.Kind != opts.Expected {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrWrongKind, opts.Expected, claims.Kind)
	}
	return claims, nil
}
