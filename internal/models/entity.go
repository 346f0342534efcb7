package models

import (
	"slices"
	"time"
)

// Collection - имя логической таблицы хранилища
type Collection string

const CollectionTasks Collection = "tasks"
const CollectionProjects Collection = "projects"
const CollectionUsers Collection = "users"

type Entity interface {
	EntityID() string
}

// Cloner ограничивает типы сущностей, с которыми работают обобщённые хранилища
type Cloner[T any] interface {
	Entity
	Clone() T
}

// CloneSet копирует множество; nil превращается в пустой срез
func CloneSet(set []string) []string {
	if len(set) == 0 {
		return []string{}
	}
	return slices.Clone(set)
}

// AddToSet возвращает новое множество и признак изменения
func AddToSet(set []string, value string) ([]string, bool) {
	if slices.Contains(set, value) {
		return set, false
	}
	return append(CloneSet(set), value), true
}

func RemoveFromSet(set []string, value string) ([]string, bool) {
	idx := slices.Index(set, value)
	if idx < 0 {
		return set, false
	}
	out := CloneSet(set)
	return slices.Delete(out, idx, idx+1), true
}

// NormalizeSet убирает дубликаты, сохраняя порядок первого вхождения
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func Ptr[T any](v T) *T {
	return &v
}
