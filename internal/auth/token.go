package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates what a token may be used for.
type TokenKind string

const (
	KindAccess  TokenKind = "ACCESS"
	KindRefresh TokenKind = "REFRESH"
)

// Claims is the JWT payload carried by every token this service issues:
// {sub, userId, rol, type, iat, exp}.
type Claims struct {
	UserID int64     `json:"userId"`
	Role   Role      `json:"rol"`
	Kind   TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer tokens with a single shared HS512 secret.
// Signature verification and expiry are checked independently so callers can
// tell a tampered token from a well-formed expired one.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCodecClock overrides the codec time source (tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec from the shared secret.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is not configured")
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token of the given kind for the subject. exp = iat + ttl.
func (c *Codec) Issue(subject string, accountID int64, role Role, kind TokenKind, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}
	now := c.now().UTC()
	claims := Claims{
		UserID: accountID,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
}

// Decode verifies the signature and structure and returns the claims.
// Expiry is deliberately not checked here; see IsExpired and Validate.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsExpired reports whether the token's exp claim is in the past. Tokens
// that do not decode are reported expired.
func (c *Codec) IsExpired(token string) bool {
	claims, err := c.Decode(token)
	if err != nil {
		return true
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

// ExtractSubject returns the sub claim.
func (c *Codec) ExtractSubject(token string) (string, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractAccountID returns the userId claim.
func (c *Codec) ExtractAccountID(token string) (int64, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// ExtractRole returns the rol claim.
func (c *Codec) ExtractRole(token string) (Role, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

// ExtractKind returns the type claim.
func (c *Codec) ExtractKind(token string) (TokenKind, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return "", err
	}
	return claims.Kind, nil
}

// Validate reports whether the token decodes, carries the expected subject
// and is not expired.
func (c *Codec) Validate(token, expectedSubject string) bool {
	claims, err := c.Decode(token)
	if err != nil {
		return false
	}
	if claims.Subject != expectedSubject {
		return false
	}
	return c.now().Before(claims.ExpiresAt.Time)
}

// IsRefreshKind reports whether the type claim equals REFRESH. Decode
// failures yield false so the check can never escalate a broken token.
func (c *Codec) IsRefreshKind(token string) bool {
	claims, err := c.Decode(token)
	if err != nil {
		return false
	}
	return claims.Kind == KindRefresh
}

// Info returns the public claim projection served by the validate-token
// endpoint.
func (c *Codec) Info(token string) (map[string]any, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"username":   claims.Subject,
		"userId":     claims.UserID,
		"rol":        claims.Role,
		"type":       claims.Kind,
		"issuedAt":   claims.IssuedAt.Time.UTC(),
		"expiration": claims.ExpiresAt.Time.UTC(),
		"expired":    !c.now().Before(claims.ExpiresAt.Time),
	}, nil
}
