package httpapi

import (
	"net/http"
	"strings"

	"github.com/pretorsport/api/internal/auth"
)

// Rule maps (method, path pattern) to the access it requires. A nil Roles
// slice with Public=false means any authenticated identity is enough.
type Rule struct {
	Method  string // "*" matches any method
	Pattern string // exact path, or a "/prefix/*" pattern
	Public  bool
	Roles   []auth.Role
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "*" && r.Method != method {
		return false
	}
	if base, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		if base == "" {
			return true
		}
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == r.Pattern
}

func (r Rule) permits(role auth.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Policy is the ordered, deny-by-default authorization table. It is built
// once at startup and never mutated; the first matching rule governs a
// request, and unmatched requests require an authenticated identity of any
// role.
type Policy struct {
	rules []Rule
}

// NewPolicy wraps an ordered rule list.
func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the service's permission matrix.
func DefaultPolicy() *Policy {
	staff := []auth.Role{auth.RoleStaff, auth.RoleAdmin}
	admin := []auth.Role{auth.RoleAdmin}

	return NewPolicy([]Rule{
		// CORS preflight never carries credentials.
		{Method: http.MethodOptions, Pattern: "/*", Public: true},

		{Method: http.MethodPost, Pattern: "/auth/login", Public: true},
		{Method: http.MethodPost, Pattern: "/auth/register", Public: true},
		{Method: http.MethodPost, Pattern: "/auth/refresh", Public: true},
		{Method: http.MethodPost, Pattern: "/auth/validate-token", Public: true},
		{Method: http.MethodGet, Pattern: "/auth/verify-email", Public: true},
		{Method: http.MethodGet, Pattern: "/auth/health", Public: true},
		{Method: http.MethodPost, Pattern: "/auth/logout"},
		{Method: http.MethodGet, Pattern: "/auth/me"},
		{Method: http.MethodGet, Pattern: "/auth/roles"},

		{Method: http.MethodGet, Pattern: "/healthz", Public: true},
		{Method: http.MethodGet, Pattern: "/readyz", Public: true},
		{Method: http.MethodGet, Pattern: "/v1/info", Public: true},
		{Method: http.MethodGet, Pattern: "/metrics", Public: true},
		{Method: "*", Pattern: "/public/*", Public: true},
		{Method: http.MethodGet, Pattern: "/images/*", Public: true},

		// Catalog: reads are public, writes are staff, deletes admin only.
		{Method: http.MethodGet, Pattern: "/productos/*", Public: true},
		{Method: http.MethodGet, Pattern: "/categorias/*", Public: true},
		{Method: http.MethodPost, Pattern: "/productos/*", Roles: staff},
		{Method: http.MethodPut, Pattern: "/productos/*", Roles: staff},
		{Method: http.MethodDelete, Pattern: "/productos/*", Roles: admin},
		{Method: http.MethodPost, Pattern: "/categorias/*", Roles: staff},
		{Method: http.MethodPut, Pattern: "/categorias/*", Roles: staff},
		{Method: http.MethodDelete, Pattern: "/categorias/*", Roles: admin},

		{Method: "*", Pattern: "/proveedores/*", Roles: staff},

		{Method: http.MethodGet, Pattern: "/usuarios/me"},
		{Method: http.MethodPut, Pattern: "/usuarios/me"},
		{Method: http.MethodGet, Pattern: "/usuarios/*", Roles: staff},
		{Method: http.MethodPost, Pattern: "/usuarios/*", Roles: admin},
		{Method: http.MethodPut, Pattern: "/usuarios/*", Roles: staff},
		{Method: http.MethodDelete, Pattern: "/usuarios/*", Roles: admin},

		{Method: http.MethodGet, Pattern: "/pedidos/mis-pedidos"},
		{Method: http.MethodPost, Pattern: "/pedidos"},
		{Method: http.MethodGet, Pattern: "/pedidos/*", Roles: staff},
		{Method: http.MethodPut, Pattern: "/pedidos/*", Roles: staff},
		{Method: http.MethodDelete, Pattern: "/pedidos/*", Roles: admin},

		{Method: "*", Pattern: "/carrito/*"},
		{Method: "*", Pattern: "/pagos/*"},
		{Method: "*", Pattern: "/ventas/*", Roles: staff},
		{Method: "*", Pattern: "/reportes/*", Roles: staff},
		{Method: "*", Pattern: "/estadisticas/*", Roles: staff},
		{Method: "*", Pattern: "/admin/*", Roles: admin},
	})
}

// IsPublic reports whether the route needs no authentication at all. The
// request authenticator uses it as its skip list.
func (p *Policy) IsPublic(method, path string) bool {
	for _, rule := range p.rules {
		if rule.matches(method, path) {
			return rule.Public
		}
	}
	return false
}

// Middleware enforces the policy after authentication. It is the only place
// that produces 401/403 responses.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, authenticated := auth.IdentityFromContext(r.Context())

		for _, rule := range p.rules {
			if !rule.matches(r.Method, r.URL.Path) {
				continue
			}
			switch {
			case rule.Public:
				next.ServeHTTP(w, r)
			case !authenticated:
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
			case !rule.permits(identity.Role):
				writeError(w, r, http.StatusForbidden, "forbidden", "you do not have permission to access this resource")
			default:
				next.ServeHTTP(w, r)
			}
			return
		}

		// Unmatched routes still require an authenticated identity.
		if !authenticated {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
