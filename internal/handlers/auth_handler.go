package handlers

import (
	"log"
	"net/http"

	"github.com/apodboard/backend/internal/middleware"
	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
)

type AuthHandler struct {
	users        *services.UserService
	tokens       *services.TokenService
	secureCookie bool
}

func NewAuthHandler(users *services.UserService, tokens *services.TokenService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, services.ErrMissingCredentials)
		return
	}
	req := models.RegisterRequest{
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[Register] created user=%d email=%s", user.ID, user.Email)
	h.startSession(w, r, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, services.ErrMissingCredentials)
		return
	}
	req := models.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.users.Login(r.Context(), &req)
	if err != nil {
		log.Printf("[Login] failed for email=%s: %v", req.Email, err)
		writeError(w, r, err)
		return
	}
	h.startSession(w, r, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, _, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, token, h.tokens.TTL(), h.secureCookie)
	redirectHome(w, r)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, h.secureCookie)
	redirectHome(w, r)
}

// Protected echoes the caller's session claims.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, r, services.ErrInvalidToken)
		return
	}
	resp := models.ClaimsResponse{ID: claims.ID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	writeJSON(w, http.StatusOK, models.OK(resp))
}
