package handlers

import (
	"net/http"

	"github.com/apodboard/backend/internal/middleware"
	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// voteForm reads post_id and the optional user_id. The session user always
// votes; a user_id naming anyone else is refused.
func (h *VoteHandler) voteForm(w http.ResponseWriter, r *http.Request) (*models.CreateVote, bool) {
	access, ok := middleware.GetAccess(r.Context())
	if !ok {
		writeError(w, r, services.ErrInvalidToken)
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Fail("Invalid form body"))
		return nil, false
	}

	postID, err := formInt(r, "post_id")
	if err != nil || postID <= 0 {
		writeJSON(w, http.StatusBadRequest, models.Invalid(models.FieldErrors{
			"post_id": "Post id is required",
		}))
		return nil, false
	}
	userID, err := formInt(r, "user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.Invalid(models.FieldErrors{
			"user_id": "User id must be a number",
		}))
		return nil, false
	}
	if userID != 0 && userID != access.UserID {
		writeError(w, r, services.ErrForbidden)
		return nil, false
	}
	return &models.CreateVote{PostID: postID, UserID: access.UserID}, true
}

func (h *VoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	vote, ok := h.voteForm(w, r)
	if !ok {
		return
	}
	if _, err := h.votes.RecordVote(r.Context(), vote.UserID, vote.PostID); err != nil {
		writeError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (h *VoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vote, ok := h.voteForm(w, r)
	if !ok {
		return
	}
	if err := h.votes.RemoveVote(r.Context(), vote.UserID, vote.PostID); err != nil {
		writeError(w, r, err)
		return
	}
	redirectHome(w, r)
}
