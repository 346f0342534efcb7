package handlers

import (
	"net/http"

	"taskMaster/internal/handlers/dto"
	"taskMaster/internal/models"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/signin", h.SignIn)
	r.Post("/signup", h.SignUp)
	r.Post("/signout", h.SignOut)
	r.Post("/reset", h.SendPasswordReset)
	r.Post("/password", h.ChangePassword)
	r.Get("/me", h.Me)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var request dto.CredentialsRequest
	if !decodeBody(w, r, &request) {
		return
	}
	user, err := h.auth.SignIn(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "sign_in")
		return
	}
	h.respondSession(w, http.StatusOK, user)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var request dto.CredentialsRequest
	if !decodeBody(w, r, &request) {
		return
	}
	user, err := h.auth.SignUp(r.Context(), request.Email, request.Password, request.DisplayName)
	if err != nil {
		handleError(w, r, err, "sign_up")
		return
	}
	h.respondSession(w, http.StatusCreated, user)
}

func (h *AuthHandler) respondSession(w http.ResponseWriter, code int, user *models.User) {
	payload := []Payload{toPayload("user", user)}
	if subject, ok := h.auth.Session(); ok && subject.Token != "" {
		payload = append(payload, toPayload("token", subject.Token))
	}
	responseWithJSON(w, code, payload...)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		handleError(w, r, err, "sign_out")
		return
	}
	responseNoContent(w)
}

func (h *AuthHandler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	var request dto.ResetRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := h.auth.SendPasswordReset(r.Context(), request.Email); err != nil {
		handleError(w, r, err, "password_reset")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var request dto.ChangePasswordRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := h.auth.ChangePassword(r.Context(), request.Current, request.Next); err != nil {
		handleError(w, r, err, "change_password")
		return
	}
	responseNoContent(w)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		handleError(w, r, err, "current_user")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("user", user))
}
