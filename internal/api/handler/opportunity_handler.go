package handler

import (
	"net/http"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	auth               Middleware
}

func NewOpportunityHandler(svc *service.OpportunityService, auth Middleware) *OpportunityHandler {
	return &OpportunityHandler{opportunityService: svc, auth: auth}
}

func (h *OpportunityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.With(h.auth).Post("/", h.create)
}

func (h *OpportunityHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.opportunityService.List(r.Context(), model.OpportunityFilter{
		Category: model.OpportunityCategory(q.Get("category")),
		Location: model.OpportunityLocation(q.Get("location")),
		Field:    model.OpportunityField(q.Get("field")),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *OpportunityHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateOpportunityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	o, err := h.opportunityService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, o)
}
