package model

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskPatch - частичное обновление задачи, nil означает "не менять".
// Срок снимается через ClearDueDate или явный "dueDate": null.
type TaskPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	Tags         *[]string  `json:"tags,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Version      *int       `json:"version,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Tags == nil && p.Status == nil
}

func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type plain TaskPatch
	var v plain
	if err := sonic.ConfigStd.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = TaskPatch(v)

	// null и отсутствие поля дают одинаковый nil, различаем по исходному документу
	if node, err := sonic.Get(data, "dueDate"); err == nil && node.TypeSafe() == ast.V_NULL {
		p.ClearDueDate = true
	}
	return nil
}

// TaskRelocation описывает задачу, перенесенную в первую колонку доски
type TaskRelocation struct {
	TaskID     string
	BoardID    string
	UserID     string
	FromStatus string
	ToStatus   string
}

// NormalizePriority приводит приоритет к нижнему регистру, пустой -> medium.
// Второе значение false, если приоритет неизвестен.
func NormalizePriority(p string) (string, bool) {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "":
		return PriorityMedium, true
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return p, false
}

// CleanTags убирает пробелы по краям и пустые теги
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
