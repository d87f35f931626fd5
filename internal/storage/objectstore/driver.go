// Package objectstore stores one JSON object per record under
// <prefix>/<collection>/<id>.json in an object bucket (S3 or memory).
// Listing a collection fetches its objects concurrently.
package objectstore

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"kanban/internal/apperrors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	fetchConcurrency = 16
	healthKey        = "_health/sentinel.json"
)

type Driver struct {
	bucket Bucket
	prefix string
	name   string
}

func NewDriver(bucket Bucket, prefix string, name string) *Driver {
	return &Driver{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		name:   name,
	}
}

func (d *Driver) LoadAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	keys, err := d.bucket.List(ctx, d.collectionPrefix(collection))
	if err != nil {
		return nil, apperrors.Unavailable("list "+collection, err)
	}

	docs := make([]json.RawMessage, len(keys))
	found := make([]bool, len(keys))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fetchConcurrency)

	for i, key := range keys {
		group.Go(func() error {
			data, ok, err := d.bucket.Get(groupCtx, key)
			if err != nil {
				return err
			}

			// deleted between list and get
			if !ok {
				return nil
			}

			docs[i] = data
			found[i] = true
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, apperrors.Unavailable("load "+collection, err)
	}

	result := make([]json.RawMessage, 0, len(docs))
	for i, doc := range docs {
		if found[i] {
			result = append(result, doc)
		}
	}

	return result, nil
}

func (d *Driver) Load(ctx context.Context, collection string, id uuid.UUID) (json.RawMessage, bool, error) {
	data, ok, err := d.bucket.Get(ctx, d.key(collection, id))
	if err != nil {
		return nil, false, apperrors.Unavailable("load "+collection, err)
	}

	return data, ok, nil
}

func (d *Driver) Save(ctx context.Context, collection string, id uuid.UUID, doc json.RawMessage) error {
	if err := d.bucket.Put(ctx, d.key(collection, id), doc); err != nil {
		return apperrors.Unavailable("save "+collection, err)
	}

	return nil
}

func (d *Driver) Remove(ctx context.Context, collection string, id uuid.UUID) (bool, error) {
	key := d.key(collection, id)

	exists, err := d.bucket.Exists(ctx, key)
	if err != nil {
		return false, apperrors.Unavailable("remove "+collection, err)
	}

	if !exists {
		return false, nil
	}

	if err := d.bucket.Delete(ctx, key); err != nil {
		return false, apperrors.Unavailable("remove "+collection, err)
	}

	return true, nil
}

// Ping writes a sentinel object and reads it back.
func (d *Driver) Ping(ctx context.Context) error {
	key := d.join(healthKey)

	payload, err := json.Marshal(map[string]string{"checked_at": time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return err
	}

	if err := d.bucket.Put(ctx, key, payload); err != nil {
		return apperrors.Unavailable("bucket is not writable", err)
	}

	if _, ok, err := d.bucket.Get(ctx, key); err != nil || !ok {
		return apperrors.Unavailable("bucket is not readable", err)
	}

	return nil
}

func (d *Driver) Name() string {
	return d.name
}

func (d *Driver) Close() error {
	return nil
}

func (d *Driver) key(collection string, id uuid.UUID) string {
	return d.join(collection, id.String()+".json")
}

func (d *Driver) collectionPrefix(collection string) string {
	return d.join(collection) + "/"
}

func (d *Driver) join(parts ...string) string {
	if d.prefix == "" {
		return path.Join(parts...)
	}

	return path.Join(append([]string{d.prefix}, parts...)...)
}
