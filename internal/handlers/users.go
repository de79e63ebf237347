package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/storage"
	"github.com/quizdeck/backend/internal/store"
	"github.com/quizdeck/backend/types"
)

const maxAvatarBytes = 8 << 20

// UserHandler provides the user-record service's HTTP surface: the
// record endpoints the identity service drives over the trust channel,
// plus the browser-facing profile and avatar routes.
type UserHandler struct {
	userService *services.UserService
	avatars     storage.ObjectStore
}

func NewUserHandler(userService *services.UserService, avatars storage.ObjectStore) *UserHandler {
	return &UserHandler{userService: userService, avatars: avatars}
}

// UserRouter registers the user routes. Every route except /health
// goes through the gate; the identity service reaches the record
// endpoints with the bypass header instead of a cookie.
func UserRouter(r chi.Router, userService *services.UserService, avatars storage.ObjectStore, gate *authgate.Gate, ping func(ctx context.Context) error) {
	h := NewUserHandler(userService, avatars)

	r.Get("/health", Health(ping))
	r.With(gate.Require).Get("/profile", h.Profile)
	r.Route("/users", func(r chi.Router) {
		r.Use(gate.Require)
		r.Post("/", h.Create)
		r.Get("/by-email/{email}", h.GetByEmail)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Put("/avatar", h.UploadAvatar)
			r.Get("/avatar", h.GetAvatar)
		})
	})
}

// Profile returns the caller's own account, freshly loaded and
// sanitized. Bypass requests carry no identity and are rejected.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := authgate.FromContext(r.Context())
	if !ok {
		writeError(w, httperr.Unauthorised("Unauthorised"))
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.ID)
	if err != nil {
		respondUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// Create inserts a new account. The password arrives already hashed;
// the identity service owns the hashing.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.recordAccess(w, r, "") {
		return
	}

	var user types.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}

	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	if user.Name == "" || user.Email == "" || user.PasswordHash == "" {
		writeError(w, httperr.BadRequest("All fields are required."))
		return
	}
	if user.Role != types.RoleUser && user.Role != types.RoleAdmin {
		writeError(w, httperr.BadRequest("Role must be USER or ADMIN."))
		return
	}

	created, err := h.userService.Create(r.Context(), user)
	if err != nil {
		respondUserError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if !h.recordAccess(w, r, id) {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondUserError(w, err)
		return
	}
	h.writeUser(w, r, user)
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}

	user, err := h.userService.GetByEmail(r.Context(), email)
	if err != nil {
		respondUserError(w, err)
		return
	}
	if !h.recordAccess(w, r, user.ID) {
		return
	}
	h.writeUser(w, r, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if !h.recordAccess(w, r, "") {
		return
	}

	var user types.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}
	user.ID = id

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		respondUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if !h.recordAccess(w, r, id) {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		respondUserError(w, err)
		return
	}
	if h.avatars != nil {
		_ = h.avatars.Delete(r.Context(), storage.AvatarKey(id))
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadAvatar stores a profile picture in object storage and records
// its key on the account.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if !h.recordAccess(w, r, id) {
		return
	}
	if h.avatars == nil {
		writeError(w, httperr.Internal())
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, httperr.BadRequest("Invalid multipart body."))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, httperr.BadRequest("An avatar file is required."))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, httperr.BadRequest("Avatar must be an image."))
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondUserError(w, err)
		return
	}

	key := storage.AvatarKey(id)
	if err := h.avatars.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		respondUserError(w, err)
		return
	}

	user.AvatarKey = key
	if _, err := h.userService.Update(r.Context(), user); err != nil {
		respondUserError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAvatar streams the stored profile picture.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if h.avatars == nil {
		writeError(w, httperr.NotFound("Avatar not found."))
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondUserError(w, err)
		return
	}
	if user.AvatarKey == "" {
		writeError(w, httperr.NotFound("Avatar not found."))
		return
	}

	object, err := h.avatars.Get(r.Context(), user.AvatarKey)
	if err != nil {
		respondUserError(w, err)
		return
	}
	defer object.Close()

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, object)
}

// recordAccess authorizes access to raw record endpoints: trust-channel
// callers (no session identity) get unrestricted access, a session
// holder may touch their own record (when selfID is set) or anything
// if they hold the ADMIN role.
func (h *UserHandler) recordAccess(w http.ResponseWriter, r *http.Request, selfID string) bool {
	identity, viaSession := authgate.FromContext(r.Context())
	if !viaSession {
		return true
	}
	if identity.Role == types.RoleAdmin {
		return true
	}
	if selfID != "" && identity.ID == selfID {
		return true
	}
	writeError(w, httperr.Forbidden("Admin access required."))
	return false
}

// writeUser sanitizes the record unless the caller came in over the
// trust channel; credential fields never reach a browser.
func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, user types.User) {
	if _, viaSession := authgate.FromContext(r.Context()); viaSession {
		user = user.Public()
	}
	writeJSON(w, http.StatusOK, user)
}

func respondUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, httperr.NotFound("User not found."))
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, httperr.Conflict("A user with this email already exists."))
	default:
		respondError(w, err)
	}
}
