package model

import (
	"math/rand"
	"time"
)

type Board struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Color     string    `json:"color"`
	Columns   []Column  `json:"columns"`
	Tasks     []Task    `json:"tasks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Column.TaskIDs - производный индекс, в БД не хранится
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	TaskIDs []string `json:"taskIds"`
}

type CreateBoardRequest struct {
	Title string `json:"title"`
}

type BoardPatch struct {
	Title   *string   `json:"title,omitempty"`
	Color   *string   `json:"color,omitempty"`
	Columns *[]Column `json:"columns,omitempty"`
}

var DefaultColumnTitles = []string{"Todo", "In Progress", "Done"}

// Palette - светлые цвета для новых досок
var Palette = []string{
	"#e9d5ff", "#bae6fd", "#bfdbfe", "#c7d2fe", "#E1E9C9",
	"#FEEBF6", "#F4F8D3", "#FFEDFA", "#EDE8DC", "#FEFAE0",
	"#FFEAA7", "#F5EEE6", "#EADCF8", "#d7eaf3", "#fadadd",
	"#dff6e6", "#ffe8d6", "#e3f2fd", "#f3e5f5", "#fff8e7",
	"#fce4ce", "#e0f7fa",
}

func RandomColor() string {
	return Palette[rand.Intn(len(Palette))]
}

// DefaultColumns строит раскладку Todo / In Progress / Done
func DefaultColumns(newID func() string) []Column {
	cols := make([]Column, 0, len(DefaultColumnTitles))
	for _, title := range DefaultColumnTitles {
		cols = append(cols, Column{ID: newID(), Title: title, TaskIDs: []string{}})
	}
	return cols
}

// ColumnIndex возвращает индекс колонки с данным id или -1
func ColumnIndex(cols []Column, id string) int {
	for i, c := range cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Distribute раскладывает задачи по колонкам по task.Status.
// Задачи с неизвестным статусом попадают в первую колонку.
func Distribute(cols []Column, tasks []Task) ([]Column, []Task) {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{ID: c.ID, Title: c.Title, TaskIDs: []string{}}
	}
	placed := make([]Task, len(tasks))
	copy(placed, tasks)
	if len(out) == 0 {
		return out, placed
	}
	for i := range placed {
		idx := ColumnIndex(out, placed[i].Status)
		if idx < 0 {
			idx = 0
			placed[i].Status = out[0].ID
		}
		out[idx].TaskIDs = append(out[idx].TaskIDs, placed[i].ID)
	}
	return out, placed
}
