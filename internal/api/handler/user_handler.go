package handler

import (
	"encoding/json"
	"net/http"

	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

const pictureField = "picture"

type UserHandler struct {
	authService    *service.AuthService
	userService    *service.UserService
	auth           Middleware
	maxUploadBytes int64
}

func NewUserHandler(as *service.AuthService, us *service.UserService, auth Middleware, maxUploadBytes int64) *UserHandler {
	return &UserHandler{authService: as, userService: us, auth: auth, maxUploadBytes: maxUploadBytes}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.auth)
		pr.Get("/me", h.me)
		pr.Get("/profile", h.ownProfile)
		pr.Patch("/profile", h.updateProfile)
		pr.Post("/profile/picture", h.uploadPicture)
		pr.Get("/profile/{id}", h.profile)
		pr.Patch("/settings", h.updateSettings)
		pr.Patch("/password", h.changePassword)
	})
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ownProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.userService.Profile(r.Context(), user.ID, user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := h.userService.Profile(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) uploadPicture(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, r, common.BadRequest("Upload must be a multipart form no larger than %d MB", h.maxUploadBytes>>20))
		return
	}
	file, header, err := r.FormFile(pictureField)
	if err != nil {
		respondError(w, r, common.BadRequest("No file uploaded"))
		return
	}
	defer file.Close()

	updated, err := h.userService.UploadProfilePicture(r.Context(), user.ID, service.PictureUpload{
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.SettingsUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := h.userService.UpdateSettings(r.Context(), user.ID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.userService.ChangePassword(r.Context(), user.ID, req); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Password updated successfully")
}
