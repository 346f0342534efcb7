// Package rows maps entities to table rows through the codec. The column
// lists and statements are shared by the sqlite and postgres backends;
// only the placeholder syntax differs between them.
package rows

import (
	"fmt"
	"strconv"
	"strings"

	"taskMaster/internal/codec"
	"taskMaster/internal/models"
)

// Scanner покрывает *sql.Row, *sql.Rows, pgx.Row и pgx.Rows
type Scanner interface {
	Scan(dest ...any) error
}

type Dialect struct {
	Name        string
	Placeholder func(n int) string
}

var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
}

var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

type Table[T models.Entity] struct {
	Name    models.Collection
	Columns []string
	Values  func(T) ([]any, error)
	Scan    func(Scanner) (T, error)
}

func (t Table[T]) columnList() string {
	return strings.Join(t.Columns, ", ")
}

func (t Table[T]) SelectAll() string {
	return fmt.Sprintf("SELECT %s FROM %s", t.columnList(), t.Name)
}

func (t Table[T]) SelectByID(d Dialect) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", t.columnList(), t.Name, d.Placeholder(1))
}

func (t Table[T]) DeleteByID(d Dialect) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s", t.Name, d.Placeholder(1))
}

// Upsert - вставка или полная замена строки по id
func (t Table[T]) Upsert(d Dialect) string {
	placeholders := make([]string, len(t.Columns))
	for i := range t.Columns {
		placeholders[i] = d.Placeholder(i + 1)
	}
	updates := make([]string, 0, len(t.Columns)-1)
	for _, col := range t.Columns {
		if col == "id" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		t.Name, t.columnList(), strings.Join(placeholders, ", "), strings.Join(updates, ", "),
	)
}

var Tasks = Table[*models.Task]{
	Name: models.CollectionTasks,
	Columns: []string{
		"id", "title", "description", "due_at", "completed", "priority", "project_id",
		"tags", "recurring", "recurrence", "parent_id", "assignees", "attachments",
		"private", "pinned", "created_at", "updated_at",
	},
	Values: taskValues,
	Scan:   scanTask,
}

var Projects = Table[*models.Project]{
	Name: models.CollectionProjects,
	Columns: []string{
		"id", "name", "description", "color", "members", "created_at", "updated_at",
		"created_by", "archived",
	},
	Values: projectValues,
	Scan:   scanProject,
}

var Users = Table[*models.User]{
	Name: models.CollectionUsers,
	Columns: []string{
		"id", "email", "display_name", "photo_url", "settings", "created_at", "updated_at",
		"last_login_at",
	},
	Values: userValues,
	Scan:   scanUser,
}

func taskValues(t *models.Task) ([]any, error) {
	tags, err := codec.EncodeStringSet(t.Tags)
	if err != nil {
		return nil, err
	}
	assignees, err := codec.EncodeStringSet(t.Assignees)
	if err != nil {
		return nil, err
	}
	attachments, err := codec.EncodeStringSet(t.Attachments)
	if err != nil {
		return nil, err
	}
	return []any{
		t.ID,
		t.Title,
		t.Description,
		codec.EncodeOptionalTime(t.DueAt),
		t.Completed,
		codec.EncodePriority(t.Priority),
		t.ProjectID,
		tags,
		t.Recurring,
		codec.EncodeRecurrence(t.Recurrence),
		t.ParentID,
		assignees,
		attachments,
		t.Private,
		t.Pinned,
		codec.EncodeTime(t.CreatedAt),
		codec.EncodeTime(t.UpdatedAt),
	}, nil
}

func scanTask(row Scanner) (*models.Task, error) {
	var (
		t                            models.Task
		dueAt                        *int64
		priority                     string
		recurrence                   *string
		tags, assignees, attachments string
		createdAt, updatedAt         int64
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&dueAt,
		&t.Completed,
		&priority,
		&t.ProjectID,
		&tags,
		&t.Recurring,
		&recurrence,
		&t.ParentID,
		&assignees,
		&attachments,
		&t.Private,
		&t.Pinned,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Priority, err = codec.DecodePriority(priority); err != nil {
		return nil, err
	}
	if t.Recurrence, err = codec.DecodeRecurrence(recurrence); err != nil {
		return nil, err
	}
	if t.Tags, err = codec.DecodeStringSet("tags", tags); err != nil {
		return nil, err
	}
	if t.Assignees, err = codec.DecodeStringSet("assignees", assignees); err != nil {
		return nil, err
	}
	if t.Attachments, err = codec.DecodeStringSet("attachments", attachments); err != nil {
		return nil, err
	}
	t.DueAt = codec.DecodeOptionalTime(dueAt)
	t.CreatedAt = codec.DecodeTime(createdAt)
	t.UpdatedAt = codec.DecodeTime(updatedAt)
	return &t, nil
}

func projectValues(p *models.Project) ([]any, error) {
	members, err := codec.EncodeStringSet(p.Members)
	if err != nil {
		return nil, err
	}
	return []any{
		p.ID,
		p.Name,
		p.Description,
		p.Color,
		members,
		codec.EncodeTime(p.CreatedAt),
		codec.EncodeTime(p.UpdatedAt),
		p.CreatedBy,
		p.Archived,
	}, nil
}

func scanProject(row Scanner) (*models.Project, error) {
	var (
		p                    models.Project
		members              string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Color,
		&members,
		&createdAt,
		&updatedAt,
		&p.CreatedBy,
		&p.Archived,
	)
	if err != nil {
		return nil, err
	}
	if p.Members, err = codec.DecodeStringSet("members", members); err != nil {
		return nil, err
	}
	p.CreatedAt = codec.DecodeTime(createdAt)
	p.UpdatedAt = codec.DecodeTime(updatedAt)
	return &p, nil
}

func userValues(u *models.User) ([]any, error) {
	settings, err := codec.EncodeSettings(u.Settings)
	if err != nil {
		return nil, err
	}
	return []any{
		u.ID,
		u.Email,
		u.DisplayName,
		u.PhotoURL,
		settings,
		codec.EncodeTime(u.CreatedAt),
		codec.EncodeTime(u.UpdatedAt),
		codec.EncodeTime(u.LastLoginAt),
	}, nil
}

func scanUser(row Scanner) (*models.User, error) {
	var (
		u                                 models.User
		settings                          string
		createdAt, updatedAt, lastLoginAt int64
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PhotoURL,
		&settings,
		&createdAt,
		&updatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	if u.Settings, err = codec.DecodeSettings(settings); err != nil {
		return nil, err
	}
	u.CreatedAt = codec.DecodeTime(createdAt)
	u.UpdatedAt = codec.DecodeTime(updatedAt)
	u.LastLoginAt = codec.DecodeTime(lastLoginAt)
	return &u, nil
}
