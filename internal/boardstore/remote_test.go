package boardstore

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/client"
	"github.com/BuzzLyutic/taskboard/internal/model"
)

// fakeRemote is an in-memory stand-in for the REST API.
type fakeRemote struct {
	mu     sync.Mutex
	seq    int
	boards []model.Board
	tasks  map[string]model.Task
	keys   map[string]string
	fail   map[string]error
	calls  map[string]int
	// hook runs before each call without holding mu
	hook func(method string)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tasks: make(map[string]model.Task),
		keys:  make(map[string]string),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func newTestStore(r *fakeRemote) *Store {
	return New(r, zap.NewNop())
}

func apiErr(code int) error {
	return &client.APIError{StatusCode: code, Message: http.StatusText(code)}
}

func (f *fakeRemote) enter(method string) error {
	f.mu.Lock()
	f.calls[method]++
	err := f.fail[method]
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(method)
	}
	return err
}

func (f *fakeRemote) setFail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

func (f *fakeRemote) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRemote) nextID(prefix string) string {
	f.seq++
	return prefix + strconv.Itoa(f.seq)
}

func (f *fakeRemote) boardIndex(id string) int {
	for i, b := range f.boards {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeRemote) ListBoards(context.Context) ([]model.Board, error) {
	if err := f.enter("ListBoards"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Board(nil), f.boards...), nil
}

func (f *fakeRemote) ListTasks(context.Context) ([]model.Task, error) {
	if err := f.enter("ListTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRemote) CreateBoard(_ context.Context, title string) (model.Board, error) {
	if err := f.enter("CreateBoard"); err != nil {
		return model.Board{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b := model.Board{
		ID:      f.nextID("b"),
		Title:   title,
		Color:   model.Palette[0],
		Columns: []model.Column{{ID: f.nextID("c"), Title: "Todo"}, {ID: f.nextID("c"), Title: "In Progress"}, {ID: f.nextID("c"), Title: "Done"}},
	}
	f.boards = append(f.boards, b)
	return b, nil
}

func (f *fakeRemote) UpdateBoard(_ context.Context, id string, p model.BoardPatch) (model.Board, error) {
	if err := f.enter("UpdateBoard"); err != nil {
		return model.Board{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.boardIndex(id)
	if i < 0 {
		return model.Board{}, apiErr(http.StatusNotFound)
	}
	if p.Title != nil {
		f.boards[i].Title = *p.Title
	}
	if p.Color != nil {
		f.boards[i].Color = *p.Color
	}
	if p.Columns != nil {
		f.boards[i].Columns = *p.Columns
	}
	return f.boards[i], nil
}

func (f *fakeRemote) DeleteBoard(_ context.Context, id string) error {
	if err := f.enter("DeleteBoard"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.boardIndex(id)
	if i < 0 {
		return apiErr(http.StatusNotFound)
	}
	f.boards = append(f.boards[:i], f.boards[i+1:]...)
	for tid, t := range f.tasks {
		if t.BoardID == id {
			delete(f.tasks, tid)
		}
	}
	return nil
}

func (f *fakeRemote) CreateTask(_ context.Context, t model.Task, idempKey string) (model.Task, error) {
	if err := f.enter("CreateTask"); err != nil {
		return model.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.keys[idempKey]; ok && idempKey != "" {
		return f.tasks[id], nil
	}
	if f.boardIndex(t.BoardID) < 0 {
		return model.Task{}, apiErr(http.StatusNotFound)
	}
	t.ID = f.nextID("t")
	t.Version = 1
	f.tasks[t.ID] = t
	if idempKey != "" {
		f.keys[idempKey] = t.ID
	}
	return t, nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id string, p model.TaskPatch) (model.Task, error) {
	if err := f.enter("UpdateTask"); err != nil {
		return model.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return model.Task{}, apiErr(http.StatusNotFound)
	}
	if p.Status != nil {
		b := f.boards[f.boardIndex(t.BoardID)]
		if model.ColumnIndex(b.Columns, *p.Status) < 0 {
			return model.Task{}, apiErr(http.StatusBadRequest)
		}
		t.Status = *p.Status
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	t.Version++
	f.tasks[id] = t
	return t, nil
}

func (f *fakeRemote) DeleteTask(_ context.Context, id string) error {
	if err := f.enter("DeleteTask"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return apiErr(http.StatusNotFound)
	}
	delete(f.tasks, id)
	return nil
}

// requireConsistent checks that every task is listed in exactly one column,
// that column is the task's status, and every listed id is a task of the board.
func requireConsistent(t *testing.T, boards []Board) {
	t.Helper()
	for _, b := range boards {
		status := make(map[string]string, len(b.Tasks))
		for _, task := range b.Tasks {
			_, dup := status[task.ID]
			require.False(t, dup, "board %s: duplicate task %s", b.ID, task.ID)
			status[task.ID] = task.Status
		}
		seen := make(map[string]string)
		for _, c := range b.Columns {
			for _, id := range c.TaskIDs {
				prev, dup := seen[id]
				require.False(t, dup, "board %s: task %s listed in %s and %s", b.ID, id, prev, c.ID)
				seen[id] = c.ID
				st, ok := status[id]
				require.True(t, ok, "board %s: column %s lists unknown task %s", b.ID, c.ID, id)
				require.Equal(t, c.ID, st, "board %s: task %s status mismatch", b.ID, id)
			}
		}
		assert.Len(t, seen, len(status), "board %s: every task must be listed", b.ID)
	}
}
