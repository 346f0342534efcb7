package live

import "taskMaster/internal/models"

// ChildIndex группирует подзадачи по id родителя. Связи слабые: родитель
// может отсутствовать в снимке, его подзадачи всё равно попадут в индекс.
type ChildIndex map[string][]*models.Task

// BuildChildIndex сохраняет порядок задач внутри каждой группы
func BuildChildIndex(tasks []*models.Task) ChildIndex {
	index := make(ChildIndex)
	for _, t := range tasks {
		if t.ParentID == nil {
			continue
		}
		index[*t.ParentID] = append(index[*t.ParentID], t)
	}
	return index
}

func (ix ChildIndex) Children(parentID string) []*models.Task {
	return ix[parentID]
}

func (ix ChildIndex) HasChildren(parentID string) bool {
	return len(ix[parentID]) > 0
}
