package handler

import (
	"net/http"

	"mess-manager-go/internal/auth"
	messdomain "mess-manager-go/internal/domain/mess"
	userdomain "mess-manager-go/internal/domain/user"
	"mess-manager-go/pkg/logger"
)

type Handlers struct {
	Mess   *messdomain.Service
	Users  *userdomain.Service
	Tokens *auth.JWTManager

	log logger.Logger
}

func New(mess *messdomain.Service, users *userdomain.Service, tokens *auth.JWTManager, log logger.Logger) *Handlers {
	return &Handlers{
		Mess:   mess,
		Users:  users,
		Tokens: tokens,
		log:    log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
