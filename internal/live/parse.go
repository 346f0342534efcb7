package live

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"taskMaster/internal/codec"
)

var ErrUnknownQuery = errors.New("неизвестный запрос")

// ErrInvalidArgument - параметр запроса отсутствует или не разбирается
var ErrInvalidArgument = errors.New("неверный параметр запроса")

// ParseTaskQuery собирает запрос по имени; arg возвращает значение параметра
// или пустую строку (подходит url.Values.Get).
func ParseTaskQuery(name string, arg func(string) string) (TaskQuery, error) {
	switch name {
	case "all":
		return AllTasks{}, nil
	case "project":
		id, err := required(arg, "project_id")
		return TasksByProject{ProjectID: id}, err
	case "subtasks":
		id, err := required(arg, "parent_id")
		return Subtasks{ParentID: id}, err
	case "overdue":
		return OverdueTasks{}, nil
	case "pending":
		return TasksByStatus{Completed: false}, nil
	case "completed":
		return TasksByStatus{Completed: true}, nil
	case "priority":
		raw, err := required(arg, "priority")
		if err != nil {
			return nil, err
		}
		priority, err := codec.DecodePriority(raw)
		if err != nil {
			return nil, err
		}
		return TasksByPriority{Priority: priority}, nil
	case "tag":
		tag, err := required(arg, "tag")
		return TasksByTag{Tag: tag}, err
	case "pinned":
		return PinnedTasks{}, nil
	case "private":
		return PrivateTasks{}, nil
	case "recurring":
		return RecurringTasks{}, nil
	case "range":
		from, err := timeArg(arg, "from")
		if err != nil {
			return nil, err
		}
		to, err := timeArg(arg, "to")
		if err != nil {
			return nil, err
		}
		return TasksInRange{From: from, To: to}, nil
	case "search":
		text, err := required(arg, "text")
		return SearchTasks{Text: text}, err
	}
	return nil, fmt.Errorf("%w: tasks/%s", ErrUnknownQuery, name)
}

func ParseProjectQuery(name string, arg func(string) string) (ProjectQuery, error) {
	switch name {
	case "all":
		return AllProjects{}, nil
	case "archived":
		return ArchivedProjects{}, nil
	case "member":
		id, err := required(arg, "user_id")
		return ProjectsByMember{UserID: id}, err
	case "creator":
		id, err := required(arg, "user_id")
		return ProjectsCreatedBy{UserID: id}, err
	case "search":
		text, err := required(arg, "text")
		return SearchProjects{Text: text}, err
	}
	return nil, fmt.Errorf("%w: projects/%s", ErrUnknownQuery, name)
}

func ParseUserQuery(name string, arg func(string) string) (UserQuery, error) {
	switch name {
	case "all":
		return AllUsers{}, nil
	case "calendar":
		return UsersWithCalendarSync{}, nil
	case "search":
		text, err := required(arg, "text")
		return SearchUsers{Text: text}, err
	}
	return nil, fmt.Errorf("%w: users/%s", ErrUnknownQuery, name)
}

func required(arg func(string) string, key string) (string, error) {
	value := arg(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s обязателен", ErrInvalidArgument, key)
	}
	return value, nil
}

// timeArg принимает RFC3339 или секунды эпохи
func timeArg(arg func(string) string, key string) (time.Time, error) {
	raw, err := required(arg, key)
	if err != nil {
		return time.Time{}, err
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return codec.DecodeTime(secs), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, key, err)
	}
	return t.UTC(), nil
}
