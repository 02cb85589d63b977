package handler

import (
	"net/http"
	"net/url"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type TagHandler struct {
	tagService *service.TagService
	auth       Middleware
}

func NewTagHandler(ts *service.TagService, auth Middleware) *TagHandler {
	return &TagHandler{tagService: ts, auth: auth}
}

func (h *TagHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{name}", h.get)
	r.Get("/{name}/questions", h.questions)

	r.Group(func(pr chi.Router) {
		pr.Use(h.auth)
		pr.Post("/{name}/follow", h.follow)
		pr.Post("/{name}/unfollow", h.unfollow)
	})
}

func (h *TagHandler) list(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) get(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tagService.Get(r.Context(), tagParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.tagService.Questions(r.Context(), tagParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *TagHandler) follow(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tag, err := h.tagService.Follow(r.Context(), user.ID, tagParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) unfollow(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tag, err := h.tagService.Unfollow(r.Context(), user.ID, tagParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tag)
}

// tagParam returns the {name} segment decoded, so "c%23" reaches the service as "c#".
func tagParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
