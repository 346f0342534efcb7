package models

import "time"

type User struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	PhotoURL    *string      `json:"photo_url,omitempty"`
	Settings    UserSettings `json:"settings"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	LastLoginAt time.Time    `json:"last_login_at"`
}

type UserSettings struct {
	DarkMode           bool     `json:"dark_mode"`
	Language           string   `json:"language"`
	Notifications      bool     `json:"notifications"`
	EmailNotifications bool     `json:"email_notifications"`
	DefaultProjectID   *string  `json:"default_project_id,omitempty"`
	CalendarSync       bool     `json:"calendar_sync"`
	Biometric          bool     `json:"biometric"`
	DefaultView        TaskView `json:"default_view"`
}

type TaskView string

const ViewList TaskView = "LIST"
const ViewCalendar TaskView = "CALENDAR"
const ViewBoard TaskView = "BOARD"

const DefaultLanguage = "es"

func DefaultSettings() UserSettings {
	return UserSettings{
		Language:           DefaultLanguage,
		Notifications:      true,
		EmailNotifications: true,
		DefaultView:        ViewList,
	}
}

func (u *User) EntityID() string { return u.ID }

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PhotoURL = cloneString(u.PhotoURL)
	c.Settings.DefaultProjectID = cloneString(u.Settings.DefaultProjectID)
	return &c
}
