// Package codec converts structured field values into the scalars the
// stores persist (text and int64) and back.
//
// Timestamps are UTC epoch seconds, string sets are JSON arrays, enums are
// stored by name and settings are a single JSON document. Decoding never
// falls back to a default: an unknown enum name or malformed text is a
// *DecodeError.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"taskMaster/internal/models"
)

type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("декодирование поля %s (%q): %s", e.Field, e.Value, e.Err.Error())
	}
	return fmt.Sprintf("декодирование поля %s: неизвестное значение %q", e.Field, e.Value)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func EncodeTime(t time.Time) int64 {
	return t.UTC().Unix()
}

func DecodeTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

// EncodeOptionalTime возвращает nil для отсутствующего значения, что соответствует NULL
func EncodeOptionalTime(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := EncodeTime(*t)
	return &v
}

func DecodeOptionalTime(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := DecodeTime(*v)
	return &t
}

func EncodeStringSet(set []string) (string, error) {
	if set == nil {
		set = []string{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("кодирование множества: %w", err)
	}
	return string(data), nil
}

func DecodeStringSet(field, value string) ([]string, error) {
	if value == "" {
		return []string{}, nil
	}
	var set []string
	if err := json.Unmarshal([]byte(value), &set); err != nil {
		return nil, &DecodeError{Field: field, Value: value, Err: err}
	}
	if set == nil {
		set = []string{}
	}
	return set, nil
}

func EncodePriority(p models.Priority) string {
	return string(p)
}

func DecodePriority(value string) (models.Priority, error) {
	switch p := models.Priority(value); p {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return p, nil
	}
	return "", &DecodeError{Field: "priority", Value: value}
}

func EncodeRecurrence(r *models.RecurrencePattern) *string {
	if r == nil {
		return nil
	}
	v := string(*r)
	return &v
}

func DecodeRecurrence(value *string) (*models.RecurrencePattern, error) {
	if value == nil {
		return nil, nil
	}
	switch r := models.RecurrencePattern(*value); r {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
		return &r, nil
	}
	return nil, &DecodeError{Field: "recurrence", Value: *value}
}

func EncodeTaskView(v models.TaskView) string {
	return string(v)
}

func DecodeTaskView(value string) (models.TaskView, error) {
	switch v := models.TaskView(value); v {
	case models.ViewList, models.ViewCalendar, models.ViewBoard:
		return v, nil
	}
	return "", &DecodeError{Field: "default_view", Value: value}
}

// settingsDocument фиксирует формат хранения настроек независимо от json-тегов модели
type settingsDocument struct {
	DarkMode           bool    `json:"isDarkMode"`
	Language           string  `json:"language"`
	Notifications      bool    `json:"notificationsEnabled"`
	EmailNotifications bool    `json:"emailNotificationsEnabled"`
	DefaultProjectID   *string `json:"defaultProjectId"`
	CalendarSync       bool    `json:"calendarSyncEnabled"`
	Biometric          bool    `json:"biometricAuthEnabled"`
	DefaultView        string  `json:"defaultTaskView"`
}

func EncodeSettings(s models.UserSettings) (string, error) {
	doc := settingsDocument{
		DarkMode:           s.DarkMode,
		Language:           s.Language,
		Notifications:      s.Notifications,
		EmailNotifications: s.EmailNotifications,
		DefaultProjectID:   s.DefaultProjectID,
		CalendarSync:       s.CalendarSync,
		Biometric:          s.Biometric,
		DefaultView:        EncodeTaskView(s.DefaultView),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("кодирование настроек: %w", err)
	}
	return string(data), nil
}

func DecodeSettings(value string) (models.UserSettings, error) {
	var doc settingsDocument
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return models.UserSettings{}, &DecodeError{Field: "settings", Value: value, Err: err}
	}
	view, err := DecodeTaskView(doc.DefaultView)
	if err != nil {
		return models.UserSettings{}, err
	}
	return models.UserSettings{
		DarkMode:           doc.DarkMode,
		Language:           doc.Language,
		Notifications:      doc.Notifications,
		EmailNotifications: doc.EmailNotifications,
		DefaultProjectID:   doc.DefaultProjectID,
		CalendarSync:       doc.CalendarSync,
		Biometric:          doc.Biometric,
		DefaultView:        view,
	}, nil
}
