package handler

import (
	"net/http"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	auth                Middleware
}

func NewNotificationHandler(ns *service.NotificationService, auth Middleware) *NotificationHandler {
	return &NotificationHandler{notificationService: ns, auth: auth}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.auth)
	r.Get("/", h.list)
	// The frontend sends PATCH; older clients POST.
	r.Patch("/read-all", h.markAllRead)
	r.Post("/read-all", h.markAllRead)
	r.Patch("/{id}/read", h.markRead)
	r.Post("/{id}/read", h.markRead)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.notificationService.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.notificationService.MarkRead(r.Context(), user.ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Notification marked as read")
}

type markAllReadResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

func (h *NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, markAllReadResponse{Message: "All notifications marked as read", Updated: n})
}
