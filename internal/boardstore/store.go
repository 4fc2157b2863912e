package boardstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/taskboard/internal/client"
	"github.com/BuzzLyutic/taskboard/internal/model"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyTitle    = errors.New("title is required")
)

// Remote - серверная сторона стора, реализуется client.Client
type Remote interface {
	ListBoards(ctx context.Context) ([]model.Board, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateBoard(ctx context.Context, title string) (model.Board, error)
	UpdateBoard(ctx context.Context, id string, p model.BoardPatch) (model.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	CreateTask(ctx context.Context, t model.Task, idempKey string) (model.Task, error)
	UpdateTask(ctx context.Context, id string, p model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

var _ Remote = (*client.Client)(nil)

// TaskInput - поля новой задачи, колонка задается отдельно
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Tags        []string
}

type Store struct {
	remote Remote
	logger *zap.Logger
	newID  func() string

	mu    sync.RWMutex
	state State
	// aliases: временный id задачи -> id, выданный сервером
	aliases map[string]string

	locks *keyedLocks

	initOnce sync.Once
	initErr  error
}

func New(remote Remote, logger *zap.Logger) *Store {
	return &Store{
		remote:  remote,
		logger:  logger,
		newID:   uuid.NewString,
		aliases: make(map[string]string),
		locks:   newKeyedLocks(),
	}
}

// Initialize загружает доски и задачи параллельно. Выполняется один раз,
// повторные вызовы возвращают результат первого.
func (s *Store) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		var boards []model.Board
		var tasks []model.Task

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			boards, err = s.remote.ListBoards(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			tasks, err = s.remote.ListTasks(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			s.logger.Error("initial load failed", zap.Error(err))
			s.dispatch(Init{})
			s.initErr = fmt.Errorf("load boards: %w", err)
			return
		}

		s.dispatch(Init{Boards: assemble(boards, tasks, s.newID)})
		s.logger.Info("store initialized", zap.Int("boards", len(boards)), zap.Int("tasks", len(tasks)))
	})
	return s.initErr
}

func (s *Store) AddBoard(ctx context.Context, title string) (Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Board{}, ErrEmptyTitle
	}

	doc, err := s.remote.CreateBoard(ctx, title)
	if err != nil {
		s.logger.Error("create board failed", zap.String("title", title), zap.Error(err))
		return Board{}, fmt.Errorf("create board: %w", err)
	}

	b := normalizeBoard(doc, s.newID)
	s.dispatch(AddBoard{Board: b})
	return s.Board(b.ID)
}

// UpdateBoard меняет название, цвет или колонки. Задачи из удаленных колонок
// переезжают в первую колонку.
func (s *Store) UpdateBoard(ctx context.Context, boardID string, p model.BoardPatch) (Board, error) {
	if _, err := s.Board(boardID); err != nil {
		return Board{}, err
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Board{}, ErrEmptyTitle
	}

	doc, err := s.remote.UpdateBoard(ctx, boardID, p)
	if err != nil {
		s.logger.Error("update board failed", zap.String("board_id", boardID), zap.Error(err))
		return Board{}, fmt.Errorf("update board: %w", err)
	}

	s.dispatch(ReplaceBoard{Board: normalizeBoard(doc, s.newID)})
	return s.Board(boardID)
}

func (s *Store) DeleteBoard(ctx context.Context, boardID string) error {
	if _, err := s.Board(boardID); err != nil {
		return err
	}

	err := s.remote.DeleteBoard(ctx, boardID)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		s.logger.Error("delete board failed", zap.String("board_id", boardID), zap.Error(err))
		return fmt.Errorf("delete board: %w", err)
	}

	s.dispatch(DeleteBoard{BoardID: boardID})
	s.pruneAliases()
	return nil
}

// AddTask сразу вставляет задачу-заглушку с временным id, затем создает ее на
// сервере. При успехе заглушка заменяется на месте, при ошибке удаляется.
func (s *Store) AddTask(ctx context.Context, boardID, columnID string, in TaskInput) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	board, err := s.Board(boardID)
	if err != nil {
		return Task{}, err
	}
	if columnIndex(board.Columns, columnID) < 0 {
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownColumn, columnID)
	}
	priority, ok := model.NormalizePriority(in.Priority)
	if !ok {
		priority = model.PriorityMedium
	}

	tempID := s.newID()
	placeholder := Task{
		ID:          tempID,
		BoardID:     boardID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     in.DueDate,
		Tags:        model.CleanTags(in.Tags),
		Status:      columnID,
		Pending:     true,
	}

	release := s.locks.acquire(tempID)
	defer release()

	s.dispatch(AddTask{BoardID: boardID, Task: placeholder})

	doc, err := s.remote.CreateTask(ctx, toDocument(placeholder), tempID)
	if err != nil {
		s.dispatch(DeleteTask{BoardID: boardID, TaskID: tempID})
		s.logger.Error("create task failed, placeholder removed",
			zap.String("board_id", boardID), zap.String("temp_id", tempID), zap.Error(err))
		return Task{}, fmt.Errorf("create task: %w", err)
	}

	created := normalizeTask(doc)
	s.mu.Lock()
	s.state = Reduce(s.state, ReplaceTask{BoardID: boardID, TaskID: tempID, Task: created})
	s.aliases[tempID] = created.ID
	s.mu.Unlock()

	return s.Task(boardID, created.ID)
}

// UpdateTask не меняет состояние до ответа сервера
func (s *Store) UpdateTask(ctx context.Context, boardID, taskID string, p model.TaskPatch) (Task, error) {
	id, release := s.lockTask(taskID)
	defer release()

	task, board, err := s.lookup(boardID, id)
	if err != nil {
		return Task{}, err
	}
	if p.Status != nil && columnIndex(board.Columns, *p.Status) < 0 {
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownColumn, *p.Status)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Task{}, ErrEmptyTitle
	}

	doc, err := s.remote.UpdateTask(ctx, task.ID, p)
	if err != nil {
		s.logger.Error("update task failed", zap.String("task_id", task.ID), zap.Error(err))
		return Task{}, fmt.Errorf("update task: %w", err)
	}

	s.dispatch(ReplaceTask{BoardID: boardID, TaskID: task.ID, Task: normalizeTask(doc)})
	return s.Task(boardID, task.ID)
}

// DeleteTask идемпотентна: неизвестная задача - no-op, 404 от сервера - уже удалена
func (s *Store) DeleteTask(ctx context.Context, boardID, taskID string) error {
	id, release := s.lockTask(taskID)
	defer release()

	task, _, err := s.lookup(boardID, id)
	if errors.Is(err, ErrTaskNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	err = s.remote.DeleteTask(ctx, task.ID)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		s.logger.Error("delete task failed", zap.String("task_id", task.ID), zap.Error(err))
		return fmt.Errorf("delete task: %w", err)
	}

	s.dispatch(DeleteTask{BoardID: boardID, TaskID: task.ID})
	s.pruneAliases()
	return nil
}

// MoveTask переносит задачу в конец колонки columnID; перенос в текущую колонку - no-op
func (s *Store) MoveTask(ctx context.Context, boardID, taskID, columnID string) (Task, error) {
	id, release := s.lockTask(taskID)
	defer release()

	task, board, err := s.lookup(boardID, id)
	if err != nil {
		return Task{}, err
	}
	if columnIndex(board.Columns, columnID) < 0 {
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownColumn, columnID)
	}
	if task.Status == columnID {
		return task, nil
	}

	doc, err := s.remote.UpdateTask(ctx, task.ID, model.TaskPatch{Status: &columnID})
	if err != nil {
		s.logger.Error("move task failed",
			zap.String("task_id", task.ID), zap.String("column_id", columnID), zap.Error(err))
		return Task{}, fmt.Errorf("move task: %w", err)
	}

	moved := normalizeTask(doc)
	moved.Status = columnID
	s.dispatch(
		MoveTask{BoardID: boardID, TaskID: task.ID, ColumnID: columnID},
		ReplaceTask{BoardID: boardID, TaskID: task.ID, Task: moved},
	)
	return s.Task(boardID, task.ID)
}

// Boards возвращает копию состояния
func (s *Store) Boards() []Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Board, len(s.state.Boards))
	for i, b := range s.state.Boards {
		out[i] = cloneBoard(b)
	}
	return out
}

func (s *Store) Board(id string) (Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.board(id)
	if !ok {
		return Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	return cloneBoard(b), nil
}

// Task находит задачу по серверному или временному id
func (s *Store) Task(boardID, taskID string) (Task, error) {
	t, _, err := s.lookup(boardID, s.canonical(taskID))
	return t, err
}

func (s *Store) dispatch(actions ...Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		s.state = Reduce(s.state, a)
	}
}

// pruneAliases забывает временные id, чьи задачи уже удалены
func (s *Store) pruneAliases() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.aliases) == 0 {
		return
	}

	live := make(map[string]struct{})
	for _, b := range s.state.Boards {
		for _, t := range b.Tasks {
			live[t.ID] = struct{}{}
		}
	}
	for tempID, id := range s.aliases {
		if _, ok := live[id]; !ok {
			delete(s.aliases, tempID)
		}
	}
}

func (s *Store) canonical(taskID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.aliases[taskID]; ok {
		return id
	}
	return taskID
}

// lockTask берет блокировку задачи по ее актуальному id. Если пока ждали,
// временный id успел замениться серверным, блокировка берется заново.
func (s *Store) lockTask(taskID string) (string, func()) {
	for {
		id := s.canonical(taskID)
		release := s.locks.acquire(id)
		if s.canonical(taskID) == id {
			return id, release
		}
		release()
	}
}

func (s *Store) lookup(boardID, taskID string) (Task, Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.board(boardID)
	if !ok {
		return Task{}, Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	i := taskIndex(b.Tasks, taskID)
	if i < 0 {
		return Task{}, Board{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return cloneTask(b.Tasks[i]), b, nil
}
