package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pretorsport/api/internal/obs"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Router assembles the full middleware chain and route table. Order matters:
// the request id must exist before logging, authentication must run before
// the policy, and the policy is the only gate that rejects requests.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(SecurityHeaders)
	r.Use(CORS)
	r.Use(func(next http.Handler) http.Handler {
		return MaxBodyBytes(next, maxBodyBytes)
	})
	r.Use(obs.Instrument)
	r.Use(a.authn.Middleware)
	r.Use(a.policy.Middleware)

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Get("/v1/info", a.handleInfo)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", a.handleLogin)
		r.Post("/register", a.handleRegister)
		r.Post("/refresh", a.handleRefresh)
		r.Post("/logout", a.handleLogout)
		r.Post("/validate-token", a.handleValidateToken)
		r.Get("/verify-email", a.handleVerifyEmail)
		r.Get("/me", a.handleMe)
		r.Get("/roles", a.handleRoles)
		r.Get("/health", a.handleAuthHealth)
	})

	r.Route("/productos", func(r chi.Router) {
		r.Get("/", a.handleListProducts)
		r.Get("/{id}", a.handleGetProduct)
		r.Post("/", a.handleCreateProduct)
		r.Put("/{id}", a.handleUpdateProduct)
		r.Delete("/{id}", a.handleDeleteProduct)
	})

	r.Route("/categorias", func(r chi.Router) {
		r.Get("/", a.handleListCategories)
		r.Get("/{id}", a.handleGetCategory)
		r.Post("/", a.handleCreateCategory)
		r.Put("/{id}", a.handleUpdateCategory)
		r.Delete("/{id}", a.handleDeleteCategory)
	})

	return r
}
