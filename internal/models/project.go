package models

import "time"

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       *int64    `json:"color,omitempty"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	Archived    bool      `json:"archived"`
}

func (p *Project) EntityID() string { return p.ID }

func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.Color != nil {
		color := *p.Color
		c.Color = &color
	}
	c.CreatedBy = cloneString(p.CreatedBy)
	c.Members = CloneSet(p.Members)
	return &c
}
