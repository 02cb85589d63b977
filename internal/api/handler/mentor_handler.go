package handler

import (
	"net/http"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type MentorHandler struct {
	mentorService *service.MentorService
}

func NewMentorHandler(ms *service.MentorService) *MentorHandler {
	return &MentorHandler{mentorService: ms}
}

func (h *MentorHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{slug}", h.get)
}

func (h *MentorHandler) list(w http.ResponseWriter, r *http.Request) {
	mentors, err := h.mentorService.List(r.Context(), model.MentorFilter{
		Skill:    r.URL.Query().Get("skill"),
		Location: r.URL.Query().Get("location"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, mentors)
}

func (h *MentorHandler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.mentorService.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, m)
}
