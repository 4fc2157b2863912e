package boardstore

import (
	"strings"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// normalizeBoard переводит документ сервера в каноническую форму. Доска без колонок
// получает Todo / In Progress / Done.
func normalizeBoard(doc model.Board, newID func() string) Board {
	b := Board{
		ID:    doc.ID,
		Title: doc.Title,
		Color: doc.Color,
	}
	if len(doc.Columns) == 0 {
		doc.Columns = model.DefaultColumns(newID)
	}
	b.Columns = make([]Column, len(doc.Columns))
	for i, c := range doc.Columns {
		b.Columns[i] = Column{ID: c.ID, Title: c.Title, TaskIDs: append([]string(nil), c.TaskIDs...)}
	}
	b.Tasks = make([]Task, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		b.Tasks = append(b.Tasks, normalizeTask(t))
	}
	b.Columns, b.Tasks = distribute(b.Columns, b.Tasks)
	return b
}

func normalizeTask(doc model.Task) Task {
	priority, ok := model.NormalizePriority(doc.Priority)
	if !ok {
		priority = model.PriorityMedium
	}
	return Task{
		ID:          doc.ID,
		BoardID:     doc.BoardID,
		Title:       doc.Title,
		Description: doc.Description,
		Priority:    priority,
		DueDate:     doc.DueDate,
		Tags:        model.CleanTags(doc.Tags),
		Status:      strings.TrimSpace(doc.Status),
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// assemble раскладывает плоский список задач по доскам. Задачи чужих или
// неизвестных досок отбрасываются.
func assemble(docs []model.Board, tasks []model.Task, newID func() string) []Board {
	byBoard := make(map[string][]model.Task, len(docs))
	for _, t := range tasks {
		byBoard[t.BoardID] = append(byBoard[t.BoardID], t)
	}
	boards := make([]Board, 0, len(docs))
	for _, doc := range docs {
		doc.Tasks = byBoard[doc.ID]
		boards = append(boards, normalizeBoard(doc, newID))
	}
	return boards
}

// toDocument - тело запроса на создание задачи
func toDocument(t Task) model.Task {
	return model.Task{
		BoardID:     t.BoardID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Tags:        t.Tags,
		Status:      t.Status,
	}
}
