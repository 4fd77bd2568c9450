package handlers

import (
	"net/http"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
)

type ApodHandler struct {
	apod *services.ApodService
}

func NewApodHandler(apod *services.ApodService) *ApodHandler {
	return &ApodHandler{apod: apod}
}

// GetAPOD looks up the form's query_string in the cache, fetching it on a miss.
func (h *ApodHandler) GetAPOD(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Fail("Invalid form body"))
		return
	}
	query := models.NasaQuery{QueryString: r.PostFormValue("query_string")}

	if _, _, err := h.apod.Fetch(r.Context(), query.QueryString); err != nil {
		writeError(w, r, err)
		return
	}
	redirectHome(w, r)
}
