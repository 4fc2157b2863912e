package boardstore

import "strings"

// Criteria - фильтр задач доски; пустые поля не участвуют
type Criteria struct {
	Search   string
	Priority string
	Tag      string
}

func (c Criteria) Active() bool {
	return strings.TrimSpace(c.Search) != "" ||
		strings.TrimSpace(c.Priority) != "" ||
		strings.TrimSpace(c.Tag) != ""
}

// Filter возвращает задачи, подходящие под все непустые критерии. Вход не меняется.
func Filter(tasks []Task, c Criteria) []Task {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	priority := strings.TrimSpace(c.Priority)
	tag := strings.ToLower(strings.TrimSpace(c.Tag))

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if priority != "" && !strings.EqualFold(t.Priority, priority) {
			continue
		}
		if tag != "" && !hasTag(t.Tags, tag) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasTag(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
