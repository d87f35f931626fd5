package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Name   string  `json:"name"   gorm:"column:name;not null"`
	Email  string  `json:"email"  gorm:"column:email;not null;uniqueIndex:idx_users_email"`
	Avatar *string `json:"avatar" gorm:"column:avatar"`
}

func (User) TableName() string {
	return "users"
}

type Project struct {
	Base
	Name        string  `json:"name"        gorm:"column:name;not null"`
	Description *string `json:"description" gorm:"column:description"`
	Color       string  `json:"color"       gorm:"column:color;not null"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectMember struct {
	Base
	ProjectID uuid.UUID   `json:"project_id" gorm:"column:project_id;type:uuid;not null;uniqueIndex:idx_project_members_pair"`
	UserID    uuid.UUID   `json:"user_id"    gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_project_members_pair;index"`
	Role      ProjectRole `json:"role"       gorm:"column:role;not null"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

type Board struct {
	Base
	ProjectID   uuid.UUID `json:"project_id"  gorm:"column:project_id;type:uuid;not null;index"`
	Name        string    `json:"name"        gorm:"column:name;not null"`
	Description *string   `json:"description" gorm:"column:description"`
}

func (Board) TableName() string {
	return "boards"
}

type Column struct {
	Base
	BoardID  uuid.UUID `json:"board_id" gorm:"column:board_id;type:uuid;not null;index"`
	Name     string    `json:"name"     gorm:"column:name;not null"`
	Color    string    `json:"color"    gorm:"column:color;not null"`
	Position int       `json:"position" gorm:"column:position;not null;default:0"`
}

func (Column) TableName() string {
	return "board_columns"
}

func (c *Column) GetPosition() int {
	return c.Position
}

type Task struct {
	Base
	BoardID     uuid.UUID  `json:"board_id"    gorm:"column:board_id;type:uuid;not null;index"`
	ColumnID    uuid.UUID  `json:"column_id"   gorm:"column:column_id;type:uuid;not null;index"`
	Title       string     `json:"title"       gorm:"column:title;not null"`
	Description *string    `json:"description" gorm:"column:description"`
	Priority    Priority   `json:"priority"    gorm:"column:priority;not null"`
	AssigneeID  *uuid.UUID `json:"assignee_id" gorm:"column:assignee_id;type:uuid;index"`
	Position    int        `json:"position"    gorm:"column:position;not null;default:0"`
	DueDate     *time.Time `json:"due_date"    gorm:"column:due_date"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) GetPosition() int {
	return t.Position
}
