package models

import (
	"time"

	"github.com/google/uuid"
)

// Nil pointer fields are left untouched. Clear* flags null an optional field
// and win over the matching value.

type UserPatch struct {
	Name        *string
	Email       *string
	Avatar      *string
	ClearAvatar bool
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = copyPtr(p.Avatar)
	}
	if p.ClearAvatar {
		u.Avatar = nil
	}
}

type ProjectPatch struct {
	Name             *string
	Description      *string
	ClearDescription bool
	Color            *string
}

func (p ProjectPatch) Apply(project *Project) {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.Description != nil {
		project.Description = copyPtr(p.Description)
	}
	if p.ClearDescription {
		project.Description = nil
	}
	if p.Color != nil {
		project.Color = *p.Color
	}
}

type ProjectMemberPatch struct {
	Role *ProjectRole
}

func (p ProjectMemberPatch) Apply(m *ProjectMember) {
	if p.Role != nil {
		m.Role = *p.Role
	}
}

type BoardPatch struct {
	Name             *string
	Description      *string
	ClearDescription bool
}

func (p BoardPatch) Apply(b *Board) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Description != nil {
		b.Description = copyPtr(p.Description)
	}
	if p.ClearDescription {
		b.Description = nil
	}
}

type ColumnPatch struct {
	Name     *string
	Color    *string
	Position *int
}

func (p ColumnPatch) Apply(c *Column) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
}

type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Priority         *Priority
	AssigneeID       *uuid.UUID
	ClearAssignee    bool
	BoardID          *uuid.UUID
	ColumnID         *uuid.UUID
	Position         *int
	DueDate          *time.Time
	ClearDueDate     bool
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = copyPtr(p.Description)
	}
	if p.ClearDescription {
		t.Description = nil
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		t.AssigneeID = copyPtr(p.AssigneeID)
	}
	if p.ClearAssignee {
		t.AssigneeID = nil
	}
	if p.BoardID != nil {
		t.BoardID = *p.BoardID
	}
	if p.ColumnID != nil {
		t.ColumnID = *p.ColumnID
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.DueDate != nil {
		due := p.DueDate.UTC()
		t.DueDate = &due
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
}

func copyPtr[T any](v *T) *T {
	c := *v
	return &c
}

func Ptr[T any](v T) *T {
	return &v
}
