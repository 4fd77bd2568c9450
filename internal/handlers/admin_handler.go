package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/apodboard/backend/internal/middleware"
	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
)

// AdminHandler serves the account moderation forms. Routes are mounted behind
// middleware.RequireAdmin.
type AdminHandler struct {
	users *services.UserService
}

func NewAdminHandler(users *services.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "ban", h.users.Ban)
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "unban", h.users.Unban)
}

func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "promote", h.users.Promote)
}

func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "demote", h.users.Demote)
}

func (h *AdminHandler) apply(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, string) error) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Fail("Invalid form body"))
		return
	}
	req := models.UserEmailRequest{Email: r.PostFormValue("email")}
	req.Normalize()

	if err := fn(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	actor := ""
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		actor = claims.Email
	}
	log.Printf("[Admin] %s %s by %s", action, req.Email, actor)
	redirectHome(w, r)
}
