package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pretorsport/api/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer "
)

// Authenticator resolves bearer tokens into request identities. It runs once
// per request and never writes a response: failed or absent authentication
// simply leaves the request unauthenticated for the policy to deny.
type Authenticator struct {
	svc    *auth.Service
	policy *Policy
	cache  *gocache.Cache
}

// NewAuthenticator constructs the request authenticator. Account lookups are
// cached per subject for cacheTTL to keep hot paths off the store; the TTL is
// short enough that deactivations take effect almost immediately.
func NewAuthenticator(svc *auth.Service, policy *Policy, cacheTTL time.Duration) *Authenticator {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Second
	}
	return &Authenticator{
		svc:    svc,
		policy: policy,
		cache:  gocache.New(cacheTTL, time.Minute),
	}
}

// Middleware attaches an Identity to the request context when a valid ACCESS
// bearer token is presented. A REFRESH token never authenticates a request,
// no matter how valid its signature is.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.policy.IsPublic(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := extractBearerToken(r.Header.Get(authHeader))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		codec := a.svc.Codec()
		subject, err := codec.ExtractSubject(token)
		if err != nil {
			// Decode errors stay internal; the policy produces the
			// actual deny response.
			next.ServeHTTP(w, r)
			return
		}

		if _, already := auth.IdentityFromContext(r.Context()); !already {
			account, err := a.account(r.Context(), subject)
			if err == nil && account.Active &&
				codec.Validate(token, account.Email) &&
				!codec.IsRefreshKind(token) {
				ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{
					AccountID: account.ID,
					Email:     account.Email,
					Role:      account.Role,
				})
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Invalidate drops the cached account for a subject. Called on logout so a
// follow-up request observes store state immediately.
func (a *Authenticator) Invalidate(subject string) {
	a.cache.Delete(strings.ToLower(strings.TrimSpace(subject)))
}

func (a *Authenticator) account(ctx context.Context, subject string) (*auth.Account, error) {
	key := strings.ToLower(strings.TrimSpace(subject))
	if v, ok := a.cache.Get(key); ok {
		if account, ok := v.(*auth.Account); ok {
			return account, nil
		}
	}
	account, err := a.svc.AccountForSubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	a.cache.SetDefault(key, account)
	return account, nil
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerScheme)) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", false
	}
	return token, true
}
