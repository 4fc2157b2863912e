package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, userID string, t model.Task) (model.Task, error) {
	args := m.Called(ctx, userID, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, userID, id string) (model.Task, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, userID string) ([]model.Task, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByBoard(ctx context.Context, userID, boardID string) ([]model.Task, error) {
	args := m.Called(ctx, userID, boardID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, userID, id, p)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockTaskRepository) SaveIdempotencyKey(ctx context.Context, userID, key string, resourceID string) error {
	return m.Called(ctx, userID, key, resourceID).Error(0)
}

func (m *MockTaskRepository) GetIdempotencyKey(ctx context.Context, userID, key string) (string, error) {
	args := m.Called(ctx, userID, key)
	return args.String(0), args.Error(1)
}

func (m *MockTaskRepository) RelocateOrphans(ctx context.Context, limit int) ([]model.TaskRelocation, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.TaskRelocation), args.Error(1)
}

// MockBoardRepository - мок репозитория досок
type MockBoardRepository struct {
	mock.Mock
}

func (m *MockBoardRepository) Create(ctx context.Context, b model.Board) (model.Board, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(model.Board), args.Error(1)
}

func (m *MockBoardRepository) Get(ctx context.Context, userID, id string) (model.Board, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Board), args.Error(1)
}

func (m *MockBoardRepository) List(ctx context.Context, userID string) ([]model.Board, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Board), args.Error(1)
}

func (m *MockBoardRepository) Update(ctx context.Context, b model.Board) (model.Board, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(model.Board), args.Error(1)
}

func (m *MockBoardRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

// MockUserRepository - мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func sprintBoard() model.Board {
	return model.Board{
		ID:     "b1",
		UserID: "u1",
		Title:  "Sprint 1",
		Columns: []model.Column{
			{ID: "todo", Title: "Todo", TaskIDs: []string{}},
			{ID: "doing", Title: "In Progress", TaskIDs: []string{}},
			{ID: "done", Title: "Done", TaskIDs: []string{}},
		},
	}
}
