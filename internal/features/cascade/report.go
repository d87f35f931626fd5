package cascade

import (
	"github.com/google/uuid"
)

type Entity string

const (
	EntityProject Entity = "project"
	EntityMember  Entity = "member"
	EntityBoard   Entity = "board"
	EntityColumn  Entity = "column"
	EntityTask    Entity = "task"
	EntityUser    Entity = "user"
)

type Failure struct {
	Entity Entity    `json:"entity"`
	ID     uuid.UUID `json:"id"`
	Error  string    `json:"error"`
}

// Report summarizes one cascade.
type Report struct {
	Deleted    map[Entity]int `json:"deleted"`
	Unassigned []uuid.UUID    `json:"unassigned,omitempty"`
	Failures   []Failure      `json:"failures,omitempty"`
}

func newReport() *Report {
	return &Report{Deleted: make(map[Entity]int)}
}

func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

func (r *Report) fail(entity Entity, id uuid.UUID, err error) {
	r.Failures = append(r.Failures, Failure{Entity: entity, ID: id, Error: err.Error()})
}
