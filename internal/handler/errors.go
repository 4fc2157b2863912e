package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "version conflict")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrEmailTaken):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
	default:
		logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage отрезает префикс "validation error: "
func validationMessage(err error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, service.ErrValidation.Error()+": "); ok {
		return detail
	}
	return msg
}

func decodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, respond.ErrEmptyBody) {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}
	respond.Error(w, r, http.StatusBadRequest, err.Error())
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}
