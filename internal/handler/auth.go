package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(srv *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := respond.Decode(r, &req); err != nil {
		decodeError(w, r, err)
		return
	}

	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	h.logger.Info("user signed up", zap.String("user_id", resp.ID))
	respond.JSON(w, r, http.StatusCreated, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		decodeError(w, r, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, resp)
}
