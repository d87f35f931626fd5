// Package docstore stores entities as JSON documents grouped in named
// collections. The file and object-store backends plug in a Driver; filtering,
// sorting, uniqueness and patching live here so both behave identically.
//
// There is no transaction support: a sequence of writes keeps whatever
// progress it made before a failure.
package docstore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type Driver interface {
	// LoadAll returns every document of the collection in storage order.
	LoadAll(ctx context.Context, collection string) ([]json.RawMessage, error)
	// Load returns a single document, ok is false when it does not exist.
	Load(ctx context.Context, collection string, id uuid.UUID) (doc json.RawMessage, ok bool, err error)
	// Save inserts or replaces the document with this id.
	Save(ctx context.Context, collection string, id uuid.UUID, doc json.RawMessage) error
	// Remove deletes the document and reports whether it existed.
	Remove(ctx context.Context, collection string, id uuid.UUID) (bool, error)

	Ping(ctx context.Context) error
	Name() string
	Close() error
}

const (
	CollectionUsers    = "users"
	CollectionProjects = "projects"
	CollectionMembers  = "project_members"
	CollectionBoards   = "boards"
	CollectionColumns  = "columns"
	CollectionTasks    = "tasks"
)
