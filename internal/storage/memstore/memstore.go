// Package memstore is a document store over an in-memory bucket. It backs the
// "memory" storage mode and service tests.
package memstore

import (
	"kanban/internal/storage/docstore"
	"kanban/internal/storage/objectstore"
)

func New() *docstore.Store {
	return docstore.NewStore(objectstore.NewDriver(objectstore.NewMemoryBucket(), "", "memory"))
}
