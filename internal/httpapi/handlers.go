package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pretorsport/api/internal/auth"
	"github.com/pretorsport/api/internal/catalog"
	"github.com/pretorsport/api/internal/obs"
)

// ReadyProbe reports whether downstream dependencies can serve traffic.
type ReadyProbe func(ctx context.Context) error

// API bundles the handler dependencies and builds the router.
type API struct {
	auth    *auth.Service
	authn   *Authenticator
	policy  *Policy
	catalog catalog.Service
	ready   ReadyProbe
	version string
	commit  string
}

// Option configures the API.
type Option func(*API)

// WithReadyProbe wires a readiness check, typically the database ping.
func WithReadyProbe(p ReadyProbe) Option {
	return func(a *API) {
		if p != nil {
			a.ready = p
		}
	}
}

// WithBuildInfo sets the version and commit reported by /v1/info.
func WithBuildInfo(version, commit string) Option {
	return func(a *API) {
		a.version = version
		a.commit = commit
	}
}

// WithCatalog wires the catalog service.
func WithCatalog(c catalog.Service) Option {
	return func(a *API) {
		if c != nil {
			a.catalog = c
		}
	}
}

// New constructs the API. The policy defaults to DefaultPolicy and the
// catalog to an empty in-memory store so the server always starts.
func New(svc *auth.Service, authn *Authenticator, policy *Policy, opts ...Option) *API {
	if policy == nil {
		policy = DefaultPolicy()
	}
	a := &API{
		auth:    svc,
		authn:   authn,
		policy:  policy,
		catalog: catalog.NewInMemory(),
		ready:   func(context.Context) error { return nil },
		version: "dev",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.ready(ctx); err != nil {
		obs.Error("readiness probe failed", map[string]any{"error": err.Error()})
		writeError(w, r, http.StatusServiceUnavailable, "not_ready", "a dependency is unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "pretorsport-api",
		"version": a.version,
		"commit":  a.commit,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Error("encode response", map[string]any{"error": err.Error()})
	}
}

// writeError emits the uniform error envelope. Messages are already chosen
// by callers to avoid leaking account existence or internals.
func writeError(w http.ResponseWriter, r *http.Request, status int, category, message string) {
	body := map[string]any{
		"error":   category,
		"message": message,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// mapAuthError translates service sentinels to HTTP responses. Anything
// unrecognized is logged and reported as a generic 500.
func mapAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, r, http.StatusUnauthorized, "account_disabled", "account is not verified or has been deactivated")
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, r, http.StatusBadRequest, "duplicate_email", "an account with that email already exists")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	default:
		obs.Error("auth handler error", map[string]any{
			"error":      err.Error(),
			"request_id": RequestIDFromContext(r.Context()),
		})
		writeError(w, r, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func mapCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		obs.Error("catalog handler error", map[string]any{
			"error":      err.Error(),
			"request_id": RequestIDFromContext(r.Context()),
		})
		writeError(w, r, http.StatusInternalServerError, "internal", "internal server error")
	}
}
