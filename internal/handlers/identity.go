package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/types"
)

// IdentityHandler provides the identity service's HTTP surface: the
// authentication flows plus the validation endpoints other services
// delegate to.
type IdentityHandler struct {
	service *services.IdentityService
}

func NewIdentityHandler(service *services.IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

// IdentityRouter registers the identity routes on the given router.
func IdentityRouter(r chi.Router, service *services.IdentityService) {
	h := NewIdentityHandler(service)

	r.Get("/health", Health(service.Health))
	r.Post("/registerByEmail", h.Register)
	r.Post("/loginByEmail", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/validate", h.Validate)
	r.Post("/validateAdmin", h.ValidateAdmin)
	r.Put("/verifyEmail/{email}/{token}", h.VerifyEmail)
	r.Put("/resendVerificationEmail/{email}", h.ResendVerification)
	r.Put("/sendPasswordResetEmail/{email}", h.SendPasswordReset)
	r.Get("/verifyResetPasswordLinkValidity/{id}/{token}", h.CheckResetLink)
	r.Put("/changePassword/{id}", h.ChangePassword)
	r.Delete("/deleteAccount/{id}", h.DeleteAccount)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// Register kicks off the registration flow. Record-store failures
// (duplicate email, validation) are relayed to the caller unchanged.
func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		writeError(w, httperr.BadRequest("All fields are required."))
		return
	}
	if req.Role != types.RoleUser && req.Role != types.RoleAdmin {
		writeError(w, httperr.BadRequest("Role must be USER or ADMIN."))
		return
	}

	userID, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Success: true, UserID: userID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool       `json:"success"`
	User    types.User `json:"user"`
}

// Login checks credentials and attaches the session cookie. The
// cookie is HttpOnly so browser scripts cannot read it.
func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, httperr.BadRequest("Email and password are required."))
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authgate.CookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Success: true, User: user})
}

// Logout clears the session cookie. There is no server-side session
// state, so this always succeeds; the token itself stays valid until
// the session secret rotates.
func (h *IdentityHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authgate.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Validate is the session validation endpoint the delegated middleware
// calls. It accepts the cookie only and resolves the current profile.
func (h *IdentityHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, h.service.Validate)
}

// ValidateAdmin additionally requires the ADMIN role.
func (h *IdentityHandler) ValidateAdmin(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, h.service.ValidateAdmin)
}

func (h *IdentityHandler) validate(w http.ResponseWriter, r *http.Request, check func(ctx context.Context, token string) (types.User, error)) {
	cookie, err := r.Cookie(authgate.CookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, httperr.Unauthorised("Unauthorised"))
		return
	}

	user, err := check(r.Context(), cookie.Value)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// emailParam reads the {email} route segment. Addresses arrive
// percent-encoded ("+" as %2B), so decode before lookup.
func emailParam(r *http.Request) string {
	email := chi.URLParam(r, "email")
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}
	return email
}

// VerifyEmail redeems an email-verification link.
func (h *IdentityHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	tokenString := chi.URLParam(r, "token")

	if err := h.service.VerifyEmail(r.Context(), email, tokenString); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResendVerification issues a fresh verification email.
func (h *IdentityHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)

	if err := h.service.ResendVerification(r.Context(), email); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendPasswordReset issues a reset email.
func (h *IdentityHandler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)

	if err := h.service.SendPasswordReset(r.Context(), email); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckResetLink reports whether a reset link is still redeemable,
// letting the frontend validate before showing the new-password form.
func (h *IdentityHandler) CheckResetLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tokenString := chi.URLParam(r, "token")

	if err := h.service.CheckResetLink(r.Context(), id, tokenString); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true})
}

type changePasswordRequest struct {
	Token             string `json:"token"`
	OldPassword       string `json:"oldPassword"`
	HashedNewPassword string `json:"hashedNewPassword"`
}

// ChangePassword accepts exactly one credential alongside the new
// password: a reset token or the current password. Requests carrying
// both, neither, or an unexpected field are rejected before any
// record-store access.
func (h *IdentityHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var req changePasswordRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}

	if req.HashedNewPassword == "" {
		writeError(w, httperr.BadRequest("A new password is required."))
		return
	}
	hasToken := req.Token != ""
	hasOld := req.OldPassword != ""
	if hasToken == hasOld {
		writeError(w, httperr.BadRequest("Provide either a reset token or the old password, not both."))
		return
	}

	var err error
	if hasToken {
		err = h.service.ChangePasswordWithToken(r.Context(), id, req.Token, req.HashedNewPassword)
	} else {
		err = h.service.ChangePasswordWithOld(r.Context(), id, req.OldPassword, req.HashedNewPassword)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteAccount removes an account. The current password must be
// confirmed in the request body.
func (h *IdentityHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}
	if req.Password == "" {
		writeError(w, httperr.BadRequest("A password is required."))
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id, req.Password); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
