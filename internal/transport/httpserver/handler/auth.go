package handler

import (
	"errors"
	"net/http"

	userdomain "mess-manager-go/internal/domain/user"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	created, err := h.Users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userdomain.ErrInvalidEmail):
			h.log.BusinessError("auth.register: invalid email", err)
			writeError(w, http.StatusBadRequest, "invalid_email", "invalid email")
		case errors.Is(err, userdomain.ErrWeakPassword):
			h.log.BusinessError("auth.register: weak password", err)
			writeError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		case errors.Is(err, userdomain.ErrEmailExists):
			h.log.BusinessError("auth.register: email exists", err, "email", req.Email)
			writeError(w, http.StatusConflict, "email_exists", "email already registered")
		default:
			h.log.InternalError("auth.register: failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	token, err := h.Tokens.Generate(created.ID, created.Name)
	if err != nil {
		h.log.InternalError("auth.register: token generation failed", err, "user_id", created.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  userResponse{ID: created.ID, Email: created.Email, Name: created.Name},
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	found, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userdomain.ErrInvalidCredentials) {
			h.log.BusinessError("auth.login: invalid credentials", err, "email", req.Email)
			writeError(w, http.StatusForbidden, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.InternalError("auth.login: failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	token, err := h.Tokens.Generate(found.ID, found.Name)
	if err != nil {
		h.log.InternalError("auth.login: token generation failed", err, "user_id", found.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  userResponse{ID: found.ID, Email: found.Email, Name: found.Name},
	})
}
