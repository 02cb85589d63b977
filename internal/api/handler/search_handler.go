package handler

import (
	"net/http"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(ss *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: ss}
}

func (h *SearchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.search)
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.searchService.Search(r.Context(), q.Get("q"), q.Get("filter"), q.Get("sort"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}
