package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pretorsport/api/internal/auth"
	"github.com/pretorsport/api/internal/catalog"
)

type testEnv struct {
	api    *API
	router http.Handler
	store  *auth.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := auth.NewMemoryStore()
	codec, err := auth.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	svc, err := auth.NewService(store, codec, auth.WithHasher(auth.NewHasher(bcrypt.MinCost)))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	policy := DefaultPolicy()
	authn := NewAuthenticator(svc, policy, 50*time.Millisecond)
	api := New(svc, authn, policy, WithCatalog(catalog.NewInMemory()))

	return &testEnv{api: api, router: api.Router(), store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func (e *testEnv) registerAna(t *testing.T) map[string]any {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"nombre":    "Ana",
		"apellidos": "Garcia",
		"email":     "ana@example.com",
		"password":  "sup3rsecret",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	return decodeBody(t, rr)
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)

	if body["tokenType"] != "Bearer" {
		t.Fatalf("unexpected tokenType: %v", body["tokenType"])
	}
	if body["accessToken"] == "" || body["refreshToken"] == "" {
		t.Fatal("expected both tokens in the response")
	}
	user, ok := body["usuario"].(map[string]any)
	if !ok {
		t.Fatalf("expected usuario object, got %T", body["usuario"])
	}
	if user["rol"] != "CUSTOMER" {
		t.Fatalf("self-registration must yield CUSTOMER, got %v", user["rol"])
	}
	if user["nombreCompleto"] != "Ana Garcia" {
		t.Fatalf("unexpected nombreCompleto: %v", user["nombreCompleto"])
	}
	if user["iniciales"] != "AG" {
		t.Fatalf("unexpected iniciales: %v", user["iniciales"])
	}
	if env.store.Count() != 1 {
		t.Fatalf("expected one stored account, got %d", env.store.Count())
	}
}

func TestRegisterIgnoresRequestedRole(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"nombre":    "Eve",
		"apellidos": "Intrusa",
		"email":     "eve@example.com",
		"password":  "sup3rsecret",
		"rol":       "ADMIN",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	user := decodeBody(t, rr)["usuario"].(map[string]any)
	if user["rol"] != "CUSTOMER" {
		t.Fatalf("requested role must be ignored, got %v", user["rol"])
	}
}

func TestRegisterDuplicateAndValidation(t *testing.T) {
	env := newTestEnv(t)
	env.registerAna(t)

	rr := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"nombre":    "Ana",
		"apellidos": "Otra",
		"email":     "ANA@example.com",
		"password":  "sup3rsecret",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rr.Code)
	}
	if decodeBody(t, rr)["error"] != "duplicate_email" {
		t.Fatalf("unexpected error category: %v", decodeBody(t, rr)["error"])
	}

	rr = env.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"nombre":    "Ana",
		"apellidos": "Corta",
		"email":     "corta@example.com",
		"password":  "short",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rr.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.registerAna(t)

	rr := env.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "sup3rsecret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["expiresIn"] != float64(86400) {
		t.Fatalf("unexpected expiresIn: %v", body["expiresIn"])
	}

	rr = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rr.Code)
	}
	deny := decodeBody(t, rr)
	if deny["error"] != "invalid_credentials" {
		t.Fatalf("unexpected error category: %v", deny["error"])
	}

	// Unknown email must be indistinguishable from a wrong password.
	rr = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "nadie@example.com",
		"password": "whatever",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: expected 401, got %d", rr.Code)
	}
	if decodeBody(t, rr)["error"] != "invalid_credentials" {
		t.Fatal("unknown email must map to the same generic category")
	}
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)
	token := body["accessToken"].(string)

	rr := env.do(t, http.MethodGet, "/auth/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	me := decodeBody(t, rr)
	if me["email"] != "ana@example.com" {
		t.Fatalf("unexpected email: %v", me["email"])
	}

	rr = env.do(t, http.MethodGet, "/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /auth/me: expected 401, got %d", rr.Code)
	}
}

func TestRefreshTokenNeverAuthenticatesRequests(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)
	refresh := body["refreshToken"].(string)

	rr := env.do(t, http.MethodGet, "/auth/me", refresh, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token on protected route: expected 401, got %d", rr.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)
	refresh := body["refreshToken"].(string)

	rr := env.do(t, http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": refresh})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	refreshed := decodeBody(t, rr)
	if refreshed["refreshToken"] != refresh {
		t.Fatal("refresh token must be returned unchanged")
	}
	if refreshed["accessToken"] == "" {
		t.Fatal("expected a fresh access token")
	}

	// An access token is not a refresh credential.
	rr = env.do(t, http.MethodPost, "/auth/refresh", "", map[string]any{
		"refreshToken": body["accessToken"],
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("access token as refresh: expected 401, got %d", rr.Code)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)
	token := body["accessToken"].(string)

	rr := env.do(t, http.MethodPost, "/auth/logout", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodeBody(t, rr)["message"] == "" {
		t.Fatal("expected a confirmation message")
	}

	// Tokens are stateless: the same token still works after logout.
	rr = env.do(t, http.MethodGet, "/auth/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("token should survive logout, got %d", rr.Code)
	}
}

func TestValidateTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)
	token := body["accessToken"].(string)

	rr := env.do(t, http.MethodPost, "/auth/validate-token", "", map[string]any{"token": token})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	result := decodeBody(t, rr)
	if result["valid"] != true {
		t.Fatalf("expected valid=true, got %v", result["valid"])
	}
	info, ok := result["tokenInfo"].(map[string]any)
	if !ok {
		t.Fatalf("expected tokenInfo object, got %T", result["tokenInfo"])
	}
	if info["username"] != "ana@example.com" {
		t.Fatalf("unexpected username: %v", info["username"])
	}
	if info["type"] != "ACCESS" {
		t.Fatalf("unexpected type: %v", info["type"])
	}

	rr = env.do(t, http.MethodPost, "/auth/validate-token", "", map[string]any{"token": "garbage"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	result = decodeBody(t, rr)
	if result["valid"] != false {
		t.Fatalf("garbage token should be invalid, got %v", result["valid"])
	}
	if _, ok := result["tokenInfo"]; ok {
		t.Fatal("invalid tokens must not leak tokenInfo")
	}
}

func TestRolesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := env.registerAna(t)
	token := body["accessToken"].(string)

	rr := env.do(t, http.MethodGet, "/auth/roles", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var roles []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &roles); err != nil {
		t.Fatalf("decode roles: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(roles))
	}
	if roles[0]["nombre"] != "CUSTOMER" {
		t.Fatalf("unexpected first role: %v", roles[0]["nombre"])
	}

	rr = env.do(t, http.MethodGet, "/auth/roles", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous roles listing: expected 401, got %d", rr.Code)
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/auth/health"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}
