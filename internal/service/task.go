package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

type TaskService struct {
	repo   repo.TaskRepository
	boards repo.BoardRepository
	logger *zap.Logger
}

func NewTaskService(tasks repo.TaskRepository, boards repo.BoardRepository, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: tasks, boards: boards, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, userID string, t model.Task, idempKey string) (model.Task, error) {
	t, err := s.prepare(t) // Валидация и нормализация полей
	if err != nil {
		return t, err
	}

	if idempKey != "" { // Если ключ уже использован этим пользователем - возвращаем ту же задачу
		if existingID, err := s.repo.GetIdempotencyKey(ctx, userID, idempKey); err == nil {
			return s.repo.Get(ctx, userID, existingID)
		}
	}

	board, err := s.boards.Get(ctx, userID, t.BoardID)
	if err != nil {
		return t, err
	}
	if t.Status, err = resolveStatus(board, t.Status); err != nil {
		return t, err
	}

	created, err := s.repo.Create(ctx, userID, t)
	if err != nil {
		return created, err
	}

	if idempKey != "" {
		// Задача уже создана, поэтому ошибка ключа только логируется
		if err := s.repo.SaveIdempotencyKey(ctx, userID, idempKey, created.ID); err != nil {
			s.logger.Warn("failed to save idempotency key",
				zap.String("user_id", userID),
				zap.String("task_id", created.ID),
				zap.Error(err),
			)
		}
	}

	return created, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (model.Task, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	return s.repo.List(ctx, userID)
}

func (s *TaskService) Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error) {
	if p.Empty() {
		return model.Task{}, invalid("no fields to update")
	}
	if p.ClearDueDate && p.DueDate != nil {
		return model.Task{}, invalid("dueDate cannot be set and cleared at once")
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return model.Task{}, invalid("title is required")
		}
		p.Title = &title
	}
	if p.Priority != nil {
		priority, ok := model.NormalizePriority(*p.Priority)
		if !ok {
			return model.Task{}, invalid("unknown priority %q", *p.Priority)
		}
		p.Priority = &priority
	}
	if p.Tags != nil {
		tags := model.CleanTags(*p.Tags)
		p.Tags = &tags
	}
	if p.Status != nil { // Новый статус должен совпадать с колонкой доски
		current, err := s.repo.Get(ctx, userID, id)
		if err != nil {
			return current, err
		}
		board, err := s.boards.Get(ctx, userID, current.BoardID)
		if err != nil {
			return current, err
		}
		if model.ColumnIndex(board.Columns, *p.Status) < 0 {
			return current, invalid("unknown column %q", *p.Status)
		}
	}
	return s.repo.Update(ctx, userID, id, p)
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *TaskService) prepare(t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return t, invalid("title is required")
	}
	if strings.TrimSpace(t.BoardID) == "" {
		return t, invalid("boardId is required")
	}
	priority, ok := model.NormalizePriority(t.Priority)
	if !ok {
		return t, invalid("unknown priority %q", t.Priority)
	}
	t.Priority = priority
	t.Tags = model.CleanTags(t.Tags)
	t.Status = strings.TrimSpace(t.Status)
	return t, nil
}

// resolveStatus: пустой статус - первая колонка, иначе колонка должна существовать
func resolveStatus(board model.Board, status string) (string, error) {
	if len(board.Columns) == 0 {
		return "", invalid("board has no columns")
	}
	if status == "" {
		return board.Columns[0].ID, nil
	}
	if model.ColumnIndex(board.Columns, status) < 0 {
		return "", invalid("unknown column %q", status)
	}
	return status, nil
}
