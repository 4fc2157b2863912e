package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

type BoardService struct {
	repo  repo.BoardRepository
	tasks repo.TaskRepository
	newID func() string
	color func() string
}

func NewBoardService(boards repo.BoardRepository, tasks repo.TaskRepository) *BoardService {
	return &BoardService{
		repo:  boards,
		tasks: tasks,
		newID: uuid.NewString,
		color: model.RandomColor,
	}
}

// Create создает доску с тремя колонками по умолчанию и случайным цветом
func (s *BoardService) Create(ctx context.Context, userID, title string) (model.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Board{}, invalid("title is required")
	}
	return s.repo.Create(ctx, model.Board{
		UserID:  userID,
		Title:   title,
		Color:   s.color(),
		Columns: model.DefaultColumns(s.newID),
	})
}

func (s *BoardService) List(ctx context.Context, userID string) ([]model.Board, error) {
	return s.repo.List(ctx, userID)
}

// Get возвращает доску вместе с задачами и заполненными taskIds
func (s *BoardService) Get(ctx context.Context, userID, id string) (model.Board, error) {
	board, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return board, err
	}
	tasks, err := s.tasks.ListByBoard(ctx, userID, id)
	if err != nil {
		return board, err
	}
	board.Columns, board.Tasks = model.Distribute(board.Columns, tasks)
	return board, nil
}

func (s *BoardService) Update(ctx context.Context, userID, id string, p model.BoardPatch) (model.Board, error) {
	if p.Title == nil && p.Color == nil && p.Columns == nil {
		return model.Board{}, invalid("no fields to update")
	}
	board, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return board, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return board, invalid("title is required")
		}
		board.Title = title
	}
	if p.Color != nil {
		color := strings.TrimSpace(*p.Color)
		if color == "" {
			return board, invalid("color is required")
		}
		board.Color = color
	}
	if p.Columns != nil {
		cols, err := s.prepareColumns(*p.Columns)
		if err != nil {
			return board, err
		}
		board.Columns = cols
	}
	return s.repo.Update(ctx, board)
}

func (s *BoardService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *BoardService) prepareColumns(cols []model.Column) ([]model.Column, error) {
	if len(cols) == 0 {
		return nil, invalid("board needs at least one column")
	}
	seen := make(map[string]struct{}, len(cols))
	out := make([]model.Column, 0, len(cols))
	for _, c := range cols {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			return nil, invalid("column title is required")
		}
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			c.ID = s.newID()
		}
		if _, dup := seen[c.ID]; dup {
			return nil, invalid("duplicate column id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		out = append(out, model.Column{ID: c.ID, Title: c.Title, TaskIDs: []string{}})
	}
	return out, nil
}
