package handler

import (
	"net/http"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/voting"

	"github.com/go-chi/chi/v5"
)

type AnswerHandler struct {
	answerService *service.AnswerService
	voteService   *service.VoteService
	auth          Middleware
}

func NewAnswerHandler(as *service.AnswerService, vs *service.VoteService, auth Middleware) *AnswerHandler {
	return &AnswerHandler{answerService: as, voteService: vs, auth: auth}
}

type contentRequest struct {
	Content string `json:"content"`
}

func (h *AnswerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/question/{id}", h.listByQuestion)

	r.Group(func(pr chi.Router) {
		pr.Use(h.auth)
		pr.Post("/question/{id}", h.create)
		pr.Patch("/{id}", h.update)
		pr.Delete("/{id}", h.delete)
		pr.Post("/{id}/comments", h.comment)
		pr.Post("/{id}/accept", h.accept)
		pr.Post("/{id}/upvote", h.vote(voting.Up))
		pr.Post("/{id}/downvote", h.vote(voting.Down))
	})
}

// listByQuestion and create read the question id from {id} so the
// /api/questions/{id}/answers aliases can share them.
func (h *AnswerHandler) listByQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	answers, err := h.answerService.ListByQuestion(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, answers)
}

func (h *AnswerHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	a, err := h.answerService.Create(r.Context(), user, id, req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, a)
}

func (h *AnswerHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	a, err := h.answerService.Update(r.Context(), user.ID, id, req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AnswerHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.answerService.Delete(r.Context(), user, id); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Answer deleted successfully")
}

func (h *AnswerHandler) comment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	a, err := h.answerService.AddComment(r.Context(), user, id, req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, a)
}

func (h *AnswerHandler) accept(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.voteService.AcceptAnswer(r.Context(), user, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *AnswerHandler) vote(dir voting.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		a, err := h.voteService.VoteAnswer(r.Context(), user, id, dir)
		if err != nil {
			respondError(w, r, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, a)
	}
}
