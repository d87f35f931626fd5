// Package filestore keeps each collection as a JSON array in
// <dir>/<collection>.json. Writes from one process are serialized per
// collection and land through a temp file rename. Several processes sharing a
// directory can still lose each other's updates.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kanban/internal/apperrors"

	"github.com/google/uuid"
)

type Driver struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewDriver(dir string) (*Driver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Unavailable("create data directory", err)
	}

	return &Driver{dir: dir, locks: make(map[string]*sync.RWMutex)}, nil
}

func (d *Driver) LoadAll(_ context.Context, collection string) ([]json.RawMessage, error) {
	lock := d.lock(collection)
	lock.RLock()
	defer lock.RUnlock()

	return d.read(collection)
}

func (d *Driver) Load(_ context.Context, collection string, id uuid.UUID) (json.RawMessage, bool, error) {
	lock := d.lock(collection)
	lock.RLock()
	defer lock.RUnlock()

	docs, err := d.read(collection)
	if err != nil {
		return nil, false, err
	}

	index, err := indexOf(docs, id)
	if err != nil || index < 0 {
		return nil, false, err
	}

	return docs[index], true, nil
}

func (d *Driver) Save(_ context.Context, collection string, id uuid.UUID, doc json.RawMessage) error {
	lock := d.lock(collection)
	lock.Lock()
	defer lock.Unlock()

	docs, err := d.read(collection)
	if err != nil {
		return err
	}

	index, err := indexOf(docs, id)
	if err != nil {
		return err
	}

	if index < 0 {
		docs = append(docs, doc)
	} else {
		docs[index] = doc
	}

	return d.write(collection, docs)
}

func (d *Driver) Remove(_ context.Context, collection string, id uuid.UUID) (bool, error) {
	lock := d.lock(collection)
	lock.Lock()
	defer lock.Unlock()

	docs, err := d.read(collection)
	if err != nil {
		return false, err
	}

	index, err := indexOf(docs, id)
	if err != nil || index < 0 {
		return false, err
	}

	docs = append(docs[:index], docs[index+1:]...)

	return true, d.write(collection, docs)
}

// Ping verifies the directory is still there and writable.
func (d *Driver) Ping(_ context.Context) error {
	probe, err := os.CreateTemp(d.dir, ".ping-*")
	if err != nil {
		return apperrors.Unavailable("data directory is not writable", err)
	}

	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}

func (d *Driver) Name() string {
	return "file"
}

func (d *Driver) Close() error {
	return nil
}

func (d *Driver) Dir() string {
	return d.dir
}

func (d *Driver) lock(collection string) *sync.RWMutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.locks[collection]
	if !ok {
		lock = &sync.RWMutex{}
		d.locks[collection] = lock
	}

	return lock
}

func (d *Driver) path(collection string) string {
	return filepath.Join(d.dir, collection+".json")
}

// read treats a missing or empty file as an empty collection.
func (d *Driver) read(collection string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(d.path(collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []json.RawMessage{}, nil
		}

		return nil, apperrors.Unavailable("read "+collection, err)
	}

	if len(data) == 0 {
		return []json.RawMessage{}, nil
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, apperrors.Unavailable("parse "+collection, err)
	}

	return docs, nil
}

func (d *Driver) write(collection string, docs []json.RawMessage) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}

	if err := atomicWriteFile(d.path(collection), data); err != nil {
		return apperrors.Unavailable("write "+collection, err)
	}

	return nil
}

func atomicWriteFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp to final: %w", err)
	}

	success = true
	return nil
}

type docID struct {
	ID uuid.UUID `json:"id"`
}

func indexOf(docs []json.RawMessage, id uuid.UUID) (int, error) {
	for i, doc := range docs {
		var header docID
		if err := json.Unmarshal(doc, &header); err != nil {
			return -1, apperrors.Unavailable("parse document id", err)
		}

		if header.ID == id {
			return i, nil
		}
	}

	return -1, nil
}
