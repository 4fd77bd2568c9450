package handlers

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/apodboard/backend/internal/middleware"
	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
)

type accessResolver interface {
	Resolve(ctx context.Context, email string) (models.Access, error)
}

type PageHandler struct {
	policy    accessResolver
	votes     *services.VoteService
	templates *Templates
}

func NewPageHandler(policy accessResolver, votes *services.VoteService, templates *Templates) *PageHandler {
	return &PageHandler{policy: policy, votes: votes, templates: templates}
}

type mainPage struct {
	Email        string
	UserID       int64
	IsAdmin      bool
	Posts        []models.DisplayPost
	TopPosts     []models.DisplayPost
	AdminActions []string
}

// Index renders the landing page for anonymous visitors, the banned page for
// banned users, and the post listing for everyone else.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		h.render(w, r, h.templates.Index, mainPage{})
		return
	}

	access, err := h.policy.Resolve(r.Context(), claims.Email)
	if err != nil {
		// A valid token for an account that no longer exists.
		if errors.Is(err, services.ErrUserNotFound) {
			h.render(w, r, h.templates.Index, mainPage{})
			return
		}
		writeError(w, r, err)
		return
	}
	if access.Banned {
		h.render(w, r, h.templates.Banned, mainPage{Email: claims.Email})
		return
	}

	posts, err := h.votes.DisplayPosts(r.Context(), access.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := h.votes.TopPosts(r.Context(), access.UserID, services.DefaultTopPosts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := mainPage{
		Email:    claims.Email,
		UserID:   access.UserID,
		IsAdmin:  access.Admin,
		Posts:    posts,
		TopPosts: top,
	}
	if access.Admin {
		data.AdminActions = []string{"ban", "unban", "promote", "demote"}
	}
	h.render(w, r, h.templates.Main, data)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, t *template.Template, data mainPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Printf("[pages] render %s: %v", r.URL.Path, err)
	}
}
