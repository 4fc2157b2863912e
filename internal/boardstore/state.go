// Package boardstore держит нормализованное состояние досок на клиенте и
// синхронизирует его с сервером через оптимистичные интенты.
package boardstore

import (
	"slices"
	"time"
)

type Board struct {
	ID      string
	Title   string
	Color   string
	Columns []Column
	Tasks   []Task
}

// Column.TaskIDs - производный индекс: ровно задачи со Status == ID
type Column struct {
	ID      string
	Title   string
	TaskIDs []string
}

type Task struct {
	ID          string
	BoardID     string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Tags        []string
	Status      string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Pending - задача создана локально и еще не подтверждена сервером
	Pending bool
}

type State struct {
	Boards []Board
}

type Action interface {
	isAction()
}

type (
	Init         struct{ Boards []Board }
	AddBoard     struct{ Board Board }
	ReplaceBoard struct{ Board Board }
	DeleteBoard  struct{ BoardID string }
	AddTask      struct {
		BoardID string
		Task    Task
	}
	// ReplaceTask подменяет задачу TaskID на Task (в том числе с новым id)
	ReplaceTask struct {
		BoardID string
		TaskID  string
		Task    Task
	}
	DeleteTask struct{ BoardID, TaskID string }
	MoveTask   struct{ BoardID, TaskID, ColumnID string }
)

func (Init) isAction()         {}
func (AddBoard) isAction()     {}
func (ReplaceBoard) isAction() {}
func (DeleteBoard) isAction()  {}
func (AddTask) isAction()      {}
func (ReplaceTask) isAction()  {}
func (DeleteTask) isAction()   {}
func (MoveTask) isAction()     {}

// Reduce - единственная функция перехода состояния. Входное состояние не изменяется:
// затронутая доска копируется целиком, остальные разделяются со старым состоянием.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Init:
		boards := make([]Board, len(a.Boards))
		for i, b := range a.Boards {
			b = cloneBoard(b)
			b.Columns, b.Tasks = distribute(b.Columns, b.Tasks)
			boards[i] = b
		}
		return State{Boards: boards}

	case AddBoard:
		if s.boardIndex(a.Board.ID) >= 0 {
			return s
		}
		b := cloneBoard(a.Board)
		b.Columns, b.Tasks = distribute(b.Columns, b.Tasks)
		return State{Boards: append(slices.Clip(s.Boards), b)}

	case ReplaceBoard:
		return s.updateBoard(a.Board.ID, func(b *Board) bool {
			cols := cloneColumns(a.Board.Columns)
			for i := range cols {
				if j := columnIndex(b.Columns, cols[i].ID); j >= 0 {
					cols[i].TaskIDs = b.Columns[j].TaskIDs
				}
			}
			b.Title, b.Color = a.Board.Title, a.Board.Color
			b.Columns, b.Tasks = distribute(cols, b.Tasks)
			return true
		})

	case DeleteBoard:
		i := s.boardIndex(a.BoardID)
		if i < 0 {
			return s
		}
		return State{Boards: slices.Delete(slices.Clone(s.Boards), i, i+1)}

	case AddTask:
		return s.updateBoard(a.BoardID, func(b *Board) bool {
			if taskIndex(b.Tasks, a.Task.ID) >= 0 || len(b.Columns) == 0 {
				return false
			}
			t := cloneTask(a.Task)
			t.BoardID = b.ID
			col := columnIndex(b.Columns, t.Status)
			if col < 0 {
				col = 0
				t.Status = b.Columns[0].ID
			}
			b.Tasks = append(b.Tasks, t)
			b.Columns[col].TaskIDs = append(b.Columns[col].TaskIDs, t.ID)
			return true
		})

	case ReplaceTask:
		return s.updateBoard(a.BoardID, func(b *Board) bool {
			i := taskIndex(b.Tasks, a.TaskID)
			if i < 0 || len(b.Columns) == 0 {
				return false
			}
			t := cloneTask(a.Task)
			t.BoardID = b.ID
			col := columnIndex(b.Columns, t.Status)
			if col < 0 {
				col = 0
				t.Status = b.Columns[0].ID
			}
			b.Tasks[i] = t
			// В той же колонке id меняется на месте, иначе задача переезжает в конец новой
			if pos := slices.Index(b.Columns[col].TaskIDs, a.TaskID); pos >= 0 {
				purge(b.Columns, a.TaskID)
				ids := b.Columns[col].TaskIDs
				b.Columns[col].TaskIDs = slices.Insert(ids, min(pos, len(ids)), t.ID)
				return true
			}
			purge(b.Columns, a.TaskID)
			b.Columns[col].TaskIDs = append(b.Columns[col].TaskIDs, t.ID)
			return true
		})

	case DeleteTask:
		return s.updateBoard(a.BoardID, func(b *Board) bool {
			i := taskIndex(b.Tasks, a.TaskID)
			if i < 0 {
				return false
			}
			b.Tasks = slices.Delete(b.Tasks, i, i+1)
			purge(b.Columns, a.TaskID)
			return true
		})

	case MoveTask:
		return s.updateBoard(a.BoardID, func(b *Board) bool {
			i := taskIndex(b.Tasks, a.TaskID)
			col := columnIndex(b.Columns, a.ColumnID)
			if i < 0 || col < 0 || b.Tasks[i].Status == a.ColumnID {
				return false
			}
			purge(b.Columns, a.TaskID)
			b.Columns[col].TaskIDs = append(b.Columns[col].TaskIDs, a.TaskID)
			b.Tasks[i].Status = a.ColumnID
			return true
		})
	}
	return s
}

// updateBoard применяет fn к копии доски; если fn вернула false, состояние не меняется
func (s State) updateBoard(id string, fn func(*Board) bool) State {
	i := s.boardIndex(id)
	if i < 0 {
		return s
	}
	b := cloneBoard(s.Boards[i])
	if !fn(&b) {
		return s
	}
	boards := slices.Clone(s.Boards)
	boards[i] = b
	return State{Boards: boards}
}

func (s State) boardIndex(id string) int {
	return slices.IndexFunc(s.Boards, func(b Board) bool { return b.ID == id })
}

func (s State) board(id string) (Board, bool) {
	i := s.boardIndex(id)
	if i < 0 {
		return Board{}, false
	}
	return s.Boards[i], true
}

// distribute пересобирает TaskIDs по статусам задач. Существующий порядок в колонке
// сохраняется, остальные задачи дописываются в конец. Задача без своей колонки
// уходит в первую колонку, статус переписывается.
func distribute(cols []Column, tasks []Task) ([]Column, []Task) {
	if len(cols) == 0 {
		return cols, tasks
	}
	status := make(map[string]string, len(tasks))
	for i := range tasks {
		if columnIndex(cols, tasks[i].Status) < 0 {
			tasks[i].Status = cols[0].ID
		}
		status[tasks[i].ID] = tasks[i].Status
	}

	listed := make(map[string]bool, len(tasks))
	for i := range cols {
		ids := make([]string, 0, len(cols[i].TaskIDs))
		for _, id := range cols[i].TaskIDs {
			if status[id] == cols[i].ID && !listed[id] {
				ids = append(ids, id)
				listed[id] = true
			}
		}
		cols[i].TaskIDs = ids
	}
	for _, t := range tasks {
		if listed[t.ID] {
			continue
		}
		col := columnIndex(cols, t.Status)
		cols[col].TaskIDs = append(cols[col].TaskIDs, t.ID)
		listed[t.ID] = true
	}
	return cols, tasks
}

func purge(cols []Column, taskID string) {
	for i := range cols {
		cols[i].TaskIDs = slices.DeleteFunc(cols[i].TaskIDs, func(id string) bool { return id == taskID })
	}
}

func columnIndex(cols []Column, id string) int {
	return slices.IndexFunc(cols, func(c Column) bool { return c.ID == id })
}

func taskIndex(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}

func cloneBoard(b Board) Board {
	b.Columns = cloneColumns(b.Columns)
	tasks := make([]Task, len(b.Tasks))
	for i, t := range b.Tasks {
		tasks[i] = cloneTask(t)
	}
	b.Tasks = tasks
	return b
}

func cloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		c.TaskIDs = append(make([]string, 0, len(c.TaskIDs)), c.TaskIDs...)
		out[i] = c
	}
	return out
}

func cloneTask(t Task) Task {
	t.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
