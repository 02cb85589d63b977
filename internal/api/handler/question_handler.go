package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/voting"

	"github.com/go-chi/chi/v5"
)

type QuestionHandler struct {
	questionService *service.QuestionService
	voteService     *service.VoteService
	answers         *AnswerHandler
	auth            Middleware
}

func NewQuestionHandler(qs *service.QuestionService, vs *service.VoteService, answers *AnswerHandler, auth Middleware) *QuestionHandler {
	return &QuestionHandler{questionService: qs, voteService: vs, answers: answers, auth: auth}
}

func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/answers", h.answers.listByQuestion)

	r.Group(func(pr chi.Router) {
		pr.Use(h.auth)
		pr.Post("/", h.create)
		pr.Patch("/{id}", h.update)
		pr.Delete("/{id}", h.delete)
		pr.Post("/{id}/upvote", h.vote(voting.Up))
		pr.Post("/{id}/downvote", h.vote(voting.Down))
		pr.Post("/{id}/answers", h.answers.create)
	})
}

func (h *QuestionHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := h.questionService.List(r.Context(), service.ListQuestionsQuery{
		Category: q.Get("category"),
		Course:   q.Get("course"),
		Tag:      q.Get("tag"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *QuestionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	detail, err := h.questionService.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *QuestionHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	q, err := h.questionService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	q, err := h.questionService.Update(r.Context(), user.ID, id, raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.questionService.Delete(r.Context(), user, id); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Question deleted successfully")
}

func (h *QuestionHandler) vote(dir voting.Direction) http.HandlerFunc {
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
		q, err := h.voteService.VoteQuestion(r.Context(), user, id, dir)
		if err != nil {
			respondError(w, r, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, q)
	}
}
