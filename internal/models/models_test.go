package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_ApplyPatch_WithTaskPatch_KeepsIdentityAndRefreshesUpdatedAt(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &Task{Title: "old", Priority: PriorityLow}
	task.ID = uuid.New()
	task.CreatedAt = created
	task.UpdatedAt = created
	originalID := task.ID

	now := created.Add(time.Hour)
	ApplyPatch[Task](task, TaskPatch{Title: Ptr("new"), Priority: Ptr(PriorityUrgent)}, now)

	assert.Equal(t, originalID, task.ID)
	assert.Equal(t, created, task.CreatedAt)
	assert.Equal(t, now, task.UpdatedAt)
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, PriorityUrgent, task.Priority)
}

func Test_TaskPatch_WithClearAssignee_NullsAssignee(t *testing.T) {
	assignee := uuid.New()
	task := &Task{AssigneeID: &assignee}

	TaskPatch{ClearAssignee: true}.Apply(task)

	assert.Nil(t, task.AssigneeID)
}

func Test_TaskPatch_WithAssignee_CopiesValue(t *testing.T) {
	assignee := uuid.New()
	task := &Task{}

	TaskPatch{AssigneeID: &assignee}.Apply(task)
	assignee = uuid.New()

	assert.NotNil(t, task.AssigneeID)
	assert.NotEqual(t, assignee, *task.AssigneeID)
}

func Test_SortByPosition_WithTies_KeepsCreationOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &Task{Title: "first", Position: 1}
	first.CreatedAt = base
	second := &Task{Title: "second", Position: 1}
	second.CreatedAt = base.Add(time.Second)
	zero := &Task{Title: "zero", Position: 0}
	zero.CreatedAt = base.Add(time.Minute)

	tasks := []*Task{second, zero, first}
	SortByPosition(tasks)

	assert.Equal(t, []string{"zero", "first", "second"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
}

func Test_ProjectRole_IsValid_AcceptsKnownRolesOnly(t *testing.T) {
	for _, role := range []ProjectRole{ProjectRoleOwner, ProjectRoleAdmin, ProjectRoleMember, ProjectRoleViewer} {
		assert.True(t, role.IsValid(), role)
	}

	assert.False(t, ProjectRole("OWNER").IsValid())
	assert.False(t, ProjectRoleViewer.CanBeAssigned())
}
