package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
)

func setupBoardHandler() (*BoardHandler, *MockBoardRepository, *MockTaskRepository) {
	boards := new(MockBoardRepository)
	tasks := new(MockTaskRepository)
	h := NewBoardHandler(service.NewBoardService(boards, tasks), zap.NewNop())
	return h, boards, tasks
}

func TestBoardHandler_Create(t *testing.T) {
	t.Run("default columns", func(t *testing.T) {
		h, boards, _ := setupBoardHandler()
		boards.On("Create", mock.Anything, mock.MatchedBy(func(b model.Board) bool {
			return b.UserID == "u1" && len(b.Columns) == 3 && b.Color != ""
		})).Return(model.Board{
			ID:      "b1",
			UserID:  "u1",
			Title:   "Sprint 1",
			Color:   model.Palette[0],
			Columns: sprintBoard().Columns,
		}, nil)

		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/api/boards", "", model.CreateBoardRequest{Title: "Sprint 1"}))

		require.Equal(t, http.StatusCreated, w.Code)
		board := decodeBody[model.Board](t, w)
		assert.Equal(t, "b1", board.ID)
		require.Len(t, board.Columns, 3)
		assert.Equal(t, "Todo", board.Columns[0].Title)
		assert.Equal(t, "In Progress", board.Columns[1].Title)
		assert.Contains(t, model.Palette, board.Color)
	})

	t.Run("missing title", func(t *testing.T) {
		h, _, _ := setupBoardHandler()

		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/api/boards", "", model.CreateBoardRequest{}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBoardHandler_Get(t *testing.T) {
	h, boards, tasks := setupBoardHandler()
	boards.On("Get", mock.Anything, "u1", "b1").Return(sprintBoard(), nil)
	boards.On("Get", mock.Anything, "u1", "b2").Return(model.Board{}, repo.ErrorNotFound)
	tasks.On("ListByBoard", mock.Anything, "u1", "b1").Return([]model.Task{
		{ID: "t1", BoardID: "b1", Status: "doing"},
		{ID: "t2", BoardID: "b1", Status: "todo"},
	}, nil)

	t.Run("with derived task ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Get(w, newRequest(t, http.MethodGet, "/api/boards/b1", "b1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		board := decodeBody[model.Board](t, w)
		assert.Len(t, board.Tasks, 2)
		assert.Equal(t, []string{"t2"}, board.Columns[0].TaskIDs)
		assert.Equal(t, []string{"t1"}, board.Columns[1].TaskIDs)
		assert.Empty(t, board.Columns[2].TaskIDs)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Get(w, newRequest(t, http.MethodGet, "/api/boards/b2", "b2", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBoardHandler_List(t *testing.T) {
	h, boards, _ := setupBoardHandler()
	boards.On("List", mock.Anything, "u1").Return([]model.Board{sprintBoard()}, nil)

	w := httptest.NewRecorder()
	h.List(w, newRequest(t, http.MethodGet, "/api/boards", "", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]model.Board](t, w), 1)
}

func TestBoardHandler_Update(t *testing.T) {
	h, boards, _ := setupBoardHandler()
	boards.On("Get", mock.Anything, "u1", "b1").Return(sprintBoard(), nil)
	boards.On("Update", mock.Anything, mock.MatchedBy(func(b model.Board) bool {
		return b.Color == "#bae6fd"
	})).Return(model.Board{ID: "b1", Color: "#bae6fd"}, nil)

	t.Run("color", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Update(w, newRequest(t, http.MethodPut, "/api/boards/b1", "b1", map[string]any{"color": "#bae6fd"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "#bae6fd", decodeBody[model.Board](t, w).Color)
	})

	t.Run("duplicate columns", func(t *testing.T) {
		body := map[string]any{"columns": []map[string]string{
			{"id": "a", "title": "A"},
			{"id": "a", "title": "B"},
		}}
		w := httptest.NewRecorder()
		h.Update(w, newRequest(t, http.MethodPut, "/api/boards/b1", "b1", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBoardHandler_Delete(t *testing.T) {
	h, boards, _ := setupBoardHandler()
	boards.On("Delete", mock.Anything, "u1", "b1").Return(nil)

	w := httptest.NewRecorder()
	h.Delete(w, newRequest(t, http.MethodDelete, "/api/boards/b1", "b1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"board deleted"}`, w.Body.String())
}
