package live

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
)

// TaskQuery - именованный запрос по коллекции задач.
// Набор реализаций закрыт: новые запросы добавляются только в этом пакете.
type TaskQuery interface {
	Name() string
	taskQuery()
}

type ProjectQuery interface {
	Name() string
	projectQuery()
}

type UserQuery interface {
	Name() string
	userQuery()
}

// AllTasks - задачи верхнего уровня, без подзадач
type AllTasks struct{}

type TasksByProject struct{ ProjectID string }

type Subtasks struct{ ParentID string }

// OverdueTasks зависит от текущего времени, поэтому требует периодического Refresh
type OverdueTasks struct{}

type TasksByStatus struct{ Completed bool }

type TasksByPriority struct{ Priority models.Priority }

type TasksByTag struct{ Tag string }

type PinnedTasks struct{}

type PrivateTasks struct{}

type RecurringTasks struct{}

// TasksInRange - срок в полуинтервале [From, To)
type TasksInRange struct{ From, To time.Time }

type SearchTasks struct{ Text string }

func (AllTasks) Name() string        { return "all" }
func (TasksByProject) Name() string  { return "project" }
func (Subtasks) Name() string        { return "subtasks" }
func (OverdueTasks) Name() string    { return "overdue" }
func (TasksByPriority) Name() string { return "priority" }
func (TasksByTag) Name() string      { return "tag" }
func (PinnedTasks) Name() string     { return "pinned" }
func (PrivateTasks) Name() string    { return "private" }
func (RecurringTasks) Name() string  { return "recurring" }
func (TasksInRange) Name() string    { return "range" }
func (SearchTasks) Name() string     { return "search" }

func (q TasksByStatus) Name() string {
	if q.Completed {
		return "completed"
	}
	return "pending"
}

func (AllTasks) taskQuery()        {}
func (TasksByProject) taskQuery()  {}
func (Subtasks) taskQuery()        {}
func (OverdueTasks) taskQuery()    {}
func (TasksByStatus) taskQuery()   {}
func (TasksByPriority) taskQuery() {}
func (TasksByTag) taskQuery()      {}
func (PinnedTasks) taskQuery()     {}
func (PrivateTasks) taskQuery()    {}
func (RecurringTasks) taskQuery()  {}
func (TasksInRange) taskQuery()    {}
func (SearchTasks) taskQuery()     {}

// AllProjects - только неархивные проекты
type AllProjects struct{}

type ArchivedProjects struct{}

type ProjectsByMember struct{ UserID string }

type ProjectsCreatedBy struct{ UserID string }

type SearchProjects struct{ Text string }

func (AllProjects) Name() string       { return "all" }
func (ArchivedProjects) Name() string  { return "archived" }
func (ProjectsByMember) Name() string  { return "member" }
func (ProjectsCreatedBy) Name() string { return "creator" }
func (SearchProjects) Name() string    { return "search" }

func (AllProjects) projectQuery()       {}
func (ArchivedProjects) projectQuery()  {}
func (ProjectsByMember) projectQuery()  {}
func (ProjectsCreatedBy) projectQuery() {}
func (SearchProjects) projectQuery()    {}

type AllUsers struct{}

type UsersWithCalendarSync struct{}

type SearchUsers struct{ Text string }

func (AllUsers) Name() string              { return "all" }
func (UsersWithCalendarSync) Name() string { return "calendar" }
func (SearchUsers) Name() string           { return "search" }

func (AllUsers) userQuery()              {}
func (UsersWithCalendarSync) userQuery() {}
func (SearchUsers) userQuery()           {}

func MatchTask(q TaskQuery, t *models.Task, now time.Time) bool {
	switch q := q.(type) {
	case AllTasks:
		return t.ParentID == nil
	case TasksByProject:
		return t.ProjectID != nil && *t.ProjectID == q.ProjectID
	case Subtasks:
		return t.ParentID != nil && *t.ParentID == q.ParentID
	case OverdueTasks:
		return t.IsOverdue(now)
	case TasksByStatus:
		return t.Completed == q.Completed
	case TasksByPriority:
		return t.Priority == q.Priority
	case TasksByTag:
		return t.HasTag(q.Tag)
	case PinnedTasks:
		return t.Pinned
	case PrivateTasks:
		return t.Private
	case RecurringTasks:
		return t.Recurring && t.Recurrence != nil
	case TasksInRange:
		return t.DueAt != nil && !t.DueAt.Before(q.From) && t.DueAt.Before(q.To)
	case SearchTasks:
		return containsFold(t.Title, q.Text) || containsFold(t.Description, q.Text)
	}
	return false
}

func MatchProject(q ProjectQuery, p *models.Project) bool {
	switch q := q.(type) {
	case AllProjects:
		return !p.Archived
	case ArchivedProjects:
		return p.Archived
	case ProjectsByMember:
		return slices.Contains(p.Members, q.UserID)
	case ProjectsCreatedBy:
		return p.CreatedBy != nil && *p.CreatedBy == q.UserID
	case SearchProjects:
		return containsFold(p.Name, q.Text) || containsFold(p.Description, q.Text)
	}
	return false
}

func MatchUser(q UserQuery, u *models.User) bool {
	switch q := q.(type) {
	case AllUsers:
		return true
	case UsersWithCalendarSync:
		return u.Settings.CalendarSync
	case SearchUsers:
		return containsFold(u.DisplayName, q.Text) || containsFold(u.Email, q.Text)
	}
	return false
}

// SortTasks упорядочивает срез на месте; при равенстве ключей - id по возрастанию
func SortTasks(q TaskQuery, tasks []*models.Task) {
	var byKey func(a, b *models.Task) int
	switch q.(type) {
	case OverdueTasks, TasksInRange:
		byKey = func(a, b *models.Task) int { return compareDue(a.DueAt, b.DueAt) }
	case TasksByStatus, PinnedTasks, PrivateTasks:
		byKey = func(a, b *models.Task) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	case TasksByPriority:
		byKey = func(a, b *models.Task) int {
			return cmp.Or(compareDue(a.DueAt, b.DueAt), b.CreatedAt.Compare(a.CreatedAt))
		}
	default:
		byKey = func(a, b *models.Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}

	slices.SortFunc(tasks, func(a, b *models.Task) int {
		return cmp.Or(byKey(a, b), strings.Compare(a.ID, b.ID))
	})
}

func SortProjects(q ProjectQuery, projects []*models.Project) {
	byKey := func(a, b *models.Project) int { return b.CreatedAt.Compare(a.CreatedAt) }
	if _, ok := q.(ArchivedProjects); ok {
		byKey = func(a, b *models.Project) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	}

	slices.SortFunc(projects, func(a, b *models.Project) int {
		return cmp.Or(byKey(a, b), strings.Compare(a.ID, b.ID))
	})
}

func SortUsers(_ UserQuery, users []*models.User) {
	slices.SortFunc(users, func(a, b *models.User) int {
		return cmp.Or(b.LastLoginAt.Compare(a.LastLoginAt), strings.Compare(a.ID, b.ID))
	})
}

// compareDue: задачи без срока идут последними
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// QueryTasks - однократное вычисление запроса по текущему состоянию хранилища
func QueryTasks(ctx context.Context, store repo.Store, q TaskQuery, now time.Time) ([]*models.Task, error) {
	tasks, err := store.Tasks().Scan(ctx, func(t *models.Task) bool { return MatchTask(q, t, now) })
	if err != nil {
		return nil, err
	}
	SortTasks(q, tasks)
	return tasks, nil
}

func QueryProjects(ctx context.Context, store repo.Store, q ProjectQuery) ([]*models.Project, error) {
	projects, err := store.Projects().Scan(ctx, func(p *models.Project) bool { return MatchProject(q, p) })
	if err != nil {
		return nil, err
	}
	SortProjects(q, projects)
	return projects, nil
}

func QueryUsers(ctx context.Context, store repo.Store, q UserQuery) ([]*models.User, error) {
	users, err := store.Users().Scan(ctx, func(u *models.User) bool { return MatchUser(q, u) })
	if err != nil {
		return nil, err
	}
	SortUsers(q, users)
	return users, nil
}
