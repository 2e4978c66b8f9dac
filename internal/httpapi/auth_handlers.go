package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/pretorsport/api/internal/audit"
	"github.com/pretorsport/api/internal/auth"
	"github.com/pretorsport/api/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName string `json:"nombre"`
	LastName  string `json:"apellidos"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Address   string `json:"direccion"`
	Phone     string `json:"telefono"`
	// Role is accepted but ignored: self-registration is always CUSTOMER.
	Role string `json:"rol"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type userPayload struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"nombre"`
	LastName      string    `json:"apellidos"`
	Email         string    `json:"email"`
	Role          auth.Role `json:"rol"`
	FullName      string    `json:"nombreCompleto"`
	Initials      string    `json:"iniciales"`
	EmailVerified bool      `json:"emailVerificado"`
	LastAccess    string    `json:"ultimoAcceso,omitempty"`
}

type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int64       `json:"expiresIn"`
	IssuedAt     string      `json:"issuedAt"`
	ExpiresAt    string      `json:"expiresAt"`
	User         userPayload `json:"usuario"`
}

func newUserPayload(a *auth.Account) userPayload {
	p := userPayload{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		Role:          a.Role,
		FullName:      a.FullName(),
		Initials:      a.Initials(),
		EmailVerified: a.EmailVerified,
	}
	if !a.LastAccess.IsZero() {
		p.LastAccess = a.LastAccess.UTC().Format(time.RFC3339)
	}
	return p
}

func newAuthResponse(pair auth.TokenPair, account *auth.Account) authResponse {
	return authResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn(),
		IssuedAt:     pair.IssuedAt.UTC().Format(time.RFC3339),
		ExpiresAt:    pair.AccessExpiresAt.UTC().Format(time.RFC3339),
		User:         newUserPayload(account),
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}

	pair, account, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			obs.ObserveLogin("invalid_credentials")
		case errors.Is(err, auth.ErrAccountDisabled):
			obs.ObserveLogin("disabled")
		default:
			obs.ObserveLogin("error")
		}
		audit.LogEvent(r.Context(), "auth.login_failed", map[string]any{"email": req.Email})
		mapAuthError(w, r, err)
		return
	}

	obs.ObserveLogin("success")
	obs.ObserveTokenIssued(string(auth.KindAccess))
	obs.ObserveTokenIssued(string(auth.KindRefresh))
	audit.LogEvent(r.Context(), "auth.login", map[string]any{"account_id": account.ID, "email": account.Email})
	writeJSON(w, http.StatusOK, newAuthResponse(pair, account))
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}

	pair, account, err := a.auth.Register(r.Context(), auth.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Address:   req.Address,
		Phone:     req.Phone,
	})
	if err != nil {
		mapAuthError(w, r, err)
		return
	}

	obs.ObserveTokenIssued(string(auth.KindAccess))
	obs.ObserveTokenIssued(string(auth.KindRefresh))
	audit.LogEvent(r.Context(), "auth.register", map[string]any{"account_id": account.ID, "email": account.Email})
	writeJSON(w, http.StatusCreated, newAuthResponse(pair, account))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}

	pair, account, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		mapAuthError(w, r, err)
		return
	}

	obs.ObserveTokenIssued(string(auth.KindAccess))
	audit.LogEvent(r.Context(), "auth.refresh", map[string]any{"account_id": account.ID})
	writeJSON(w, http.StatusOK, newAuthResponse(pair, account))
}

// handleLogout always reports success. Tokens are stateless so there is
// nothing to revoke server side; the account cache entry is dropped and the
// event audited.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := extractBearerToken(r.Header.Get(authHeader))
	if subject := a.auth.Logout(r.Context(), token); subject != "" {
		a.authn.Invalidate(subject)
		audit.LogEvent(r.Context(), "auth.logout", map[string]any{"email": subject})
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "logout successful"})
}

func (a *API) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}

	info, err := a.auth.Codec().Info(req.Token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false})
		return
	}
	expired, _ := info["expired"].(bool)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     !expired,
		"tokenInfo": info,
	})
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	ok, err := a.auth.VerifyEmail(r.Context(), token)
	if err != nil {
		mapAuthError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid_token", "verification token is invalid or already used")
		return
	}
	audit.LogEvent(r.Context(), "auth.email_verified", nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": "email verified"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	account, err := a.auth.CurrentUser(r.Context(), identity.Email)
	if err != nil {
		mapAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserPayload(account))
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles := auth.Roles()
	out := make([]map[string]any, 0, len(roles))
	for _, role := range roles {
		out = append(out, map[string]any{
			"nombre":      role,
			"displayName": role.DisplayName(),
			"descripcion": role.Description(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAuthHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "auth",
	})
}
