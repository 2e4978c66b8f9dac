package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultAccessTTL matches app.jwt.expiration (86400 s).
	DefaultAccessTTL = 24 * time.Hour
	// DefaultRefreshTTL matches app.jwt.refresh-expiration (604800 s).
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Service orchestrates login, registration, token refresh and logout over an
// AccountStore. Tokens are stateless: logout does not invalidate already
// issued tokens and refresh tokens are not rotated on use. Both are known
// limitations of the token model, not accidents.
type Service struct {
	store  AccountStore
	codec  *Codec
	hasher *Hasher
	now    func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithHasher overrides the password hasher (work factor tuning).
func WithHasher(h *Hasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the authentication engine.
func NewService(store AccountStore, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	svc := &Service{
		store:      store,
		codec:      codec,
		hasher:     NewHasher(DefaultBcryptCost),
		now:        time.Now,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Codec exposes the token codec for the request authenticator.
func (s *Service) Codec() *Codec { return s.codec }

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	IssuedAt         time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ExpiresIn returns the access token lifetime in whole seconds.
func (p TokenPair) ExpiresIn() int64 {
	return int64(p.AccessExpiresAt.Sub(p.IssuedAt) / time.Second)
}

// Login verifies credentials and issues a fresh token pair. Unknown email,
// inactive account and wrong password all collapse into
// ErrInvalidCredentials so responses cannot be used to enumerate accounts.
// A correct password on an unverified account yields ErrAccountDisabled,
// which callers surface with an actionable message.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, *Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	account, err := s.store.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, fmt.Errorf("login lookup: %w", err)
	}
	if err := s.hasher.Verify(account.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if !account.EmailVerified {
		return TokenPair{}, nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	if err := s.store.UpdateLastAccess(ctx, account.Email, now); err != nil {
		return TokenPair{}, nil, fmt.Errorf("update last access: %w", err)
	}
	account.LastAccess = now

	pair, err := s.mintPair(account)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, sanitize(account), nil
}

// Register creates a customer account and logs it in. The role is always
// CUSTOMER regardless of what the caller sent; honoring a caller-supplied
// role would be a privilege escalation. Duplicate emails are rejected either
// by the pre-check or by the store's uniqueness constraint; under a
// concurrent registration race both paths are correct.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (TokenPair, *Account, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateRegister(req); err != nil {
		return TokenPair{}, nil, err
	}

	exists, err := s.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("register pre-check: %w", err)
	}
	if exists {
		return TokenPair{}, nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		Email:             req.Email,
		PasswordHash:      hash,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Address:           strings.TrimSpace(req.Address),
		Phone:             strings.TrimSpace(req.Phone),
		Role:              RoleCustomer,
		Active:            true,
		EmailVerified:     false,
		VerificationToken: uuid.NewString(),
	}
	if err := s.store.Create(ctx, account); err != nil {
		return TokenPair{}, nil, err
	}

	// Verification email dispatch is an external collaborator; the account
	// is marked verified right away and the token cleared (single use).
	if err := s.store.MarkVerified(ctx, account.ID); err != nil {
		return TokenPair{}, nil, fmt.Errorf("mark verified: %w", err)
	}
	account.EmailVerified = true
	account.VerificationToken = ""

	pair, err := s.mintPair(account)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, sanitize(account), nil
}

// Refresh mints exactly one new access token from a refresh token. The
// refresh token itself is returned unchanged: there is no rotation, so a
// stolen refresh token stays valid for its full lifetime.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, *Account, error) {
	if !s.codec.IsRefreshKind(refreshToken) || s.codec.IsExpired(refreshToken) {
		return TokenPair{}, nil, ErrInvalidToken
	}
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrInvalidToken
	}

	account, err := s.store.FindActiveByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, fmt.Errorf("refresh lookup: %w", err)
	}

	now := s.now().UTC()
	access, err := s.codec.Issue(account.Email, account.ID, account.Role, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("issue access token: %w", err)
	}
	pair := TokenPair{
		AccessToken:      access,
		RefreshToken:     refreshToken,
		IssuedAt:         now,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	return pair, sanitize(account), nil
}

// Logout identifies the subject for auditing only. Already issued tokens
// remain valid until natural expiry.
func (s *Service) Logout(ctx context.Context, accessToken string) string {
	subject, err := s.codec.ExtractSubject(accessToken)
	if err != nil {
		return ""
	}
	return subject
}

// VerifyEmail consumes a verification token. The flag flips at most once per
// token; a second call with the same token reports false.
func (s *Service) VerifyEmail(ctx context.Context, token string) (bool, error) {
	return s.store.ConsumeVerificationToken(ctx, strings.TrimSpace(token))
}

// CurrentUser returns the sanitized active account for the given email.
func (s *Service) CurrentUser(ctx context.Context, email string) (*Account, error) {
	account, err := s.store.FindActiveByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return sanitize(account), nil
}

// AccountForSubject loads the active account backing a token subject. Used
// by the request authenticator.
func (s *Service) AccountForSubject(ctx context.Context, subject string) (*Account, error) {
	return s.store.FindActiveByEmail(ctx, subject)
}

func (s *Service) mintPair(account *Account) (TokenPair, error) {
	now := s.now().UTC()
	access, err := s.codec.Issue(account.Email, account.ID, account.Role, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(account.Email, account.ID, account.Role, KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		IssuedAt:         now,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

func validateRegister(req RegisterRequest) error {
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return fmt.Errorf("%w: name and surname are required", ErrInvalidInput)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitize(a *Account) *Account {
	cp := *a
	cp.PasswordHash = ""
	cp.VerificationToken = ""
	return &cp
}
