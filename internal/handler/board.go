package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type BoardHandler struct {
	service *service.BoardService
	logger  *zap.Logger
}

func NewBoardHandler(srv *service.BoardService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boards, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, boards)
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreateBoardRequest
	if err := respond.Decode(r, &req); err != nil {
		decodeError(w, r, err)
		return
	}

	board, err := h.service.Create(r.Context(), userID, req.Title)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/boards/"+board.ID)
	respond.JSON(w, r, http.StatusCreated, board)
}

// Get - доска вместе с задачами, taskIds колонок вычисляются по статусам
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	board, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, board)
}

func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var patch model.BoardPatch
	if err := respond.Decode(r, &patch); err != nil {
		decodeError(w, r, err)
		return
	}

	board, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, board)
}

func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Message(w, r, http.StatusOK, "board deleted")
}
