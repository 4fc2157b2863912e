package repo

import (
	"context"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
}

// BoardRepository - доски, всегда в рамках одного пользователя
type BoardRepository interface {
	Create(ctx context.Context, b model.Board) (model.Board, error)
	Get(ctx context.Context, userID, id string) (model.Board, error)
	List(ctx context.Context, userID string) ([]model.Board, error)
	Update(ctx context.Context, b model.Board) (model.Board, error)
	Delete(ctx context.Context, userID, id string) error
}

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, userID string, t model.Task) (model.Task, error)
	Get(ctx context.Context, userID, id string) (model.Task, error)
	List(ctx context.Context, userID string) ([]model.Task, error)
	ListByBoard(ctx context.Context, userID, boardID string) ([]model.Task, error)
	Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, userID, id string) error
	SaveIdempotencyKey(ctx context.Context, userID, key string, resourceID string) error
	GetIdempotencyKey(ctx context.Context, userID, key string) (string, error)
	RelocateOrphans(ctx context.Context, limit int) ([]model.TaskRelocation, error)
}
