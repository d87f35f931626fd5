package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"kanban/internal/apperrors"
	"kanban/internal/models"

	"github.com/google/uuid"
)

// Collection is a typed view over one driver collection.
type Collection[E any, PE models.EntityPtr[E], P models.Patch[E]] struct {
	driver Driver
	name   string

	// uniqueKey, when set, must be distinct across the collection. It is
	// checked before writing, so two concurrent writers can still race.
	uniqueKey func(*E) string
	sort      func([]*E)
}

func NewCollection[E any, PE models.EntityPtr[E], P models.Patch[E]](
	driver Driver,
	name string,
) *Collection[E, PE, P] {
	return &Collection[E, PE, P]{driver: driver, name: name}
}

func (c *Collection[E, PE, P]) WithUniqueKey(key func(*E) string) *Collection[E, PE, P] {
	c.uniqueKey = key
	return c
}

func (c *Collection[E, PE, P]) WithSort(sort func([]*E)) *Collection[E, PE, P] {
	c.sort = sort
	return c
}

func (c *Collection[E, PE, P]) FindAll(ctx context.Context) ([]*E, error) {
	return c.Filter(ctx, nil)
}

// Filter returns matching documents, sorted when the collection has a sort.
func (c *Collection[E, PE, P]) Filter(ctx context.Context, match func(*E) bool) ([]*E, error) {
	docs, err := c.driver.LoadAll(ctx, c.name)
	if err != nil {
		return nil, err
	}

	items := make([]*E, 0, len(docs))
	for _, doc := range docs {
		entity, err := c.decode(doc)
		if err != nil {
			return nil, err
		}

		if match == nil || match(entity) {
			items = append(items, entity)
		}
	}

	if c.sort != nil {
		c.sort(items)
	}

	return items, nil
}

func (c *Collection[E, PE, P]) FindOne(ctx context.Context, match func(*E) bool) (*E, error) {
	items, err := c.Filter(ctx, match)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, nil
	}

	return items[0], nil
}

func (c *Collection[E, PE, P]) FindByID(ctx context.Context, id uuid.UUID) (*E, error) {
	doc, ok, err := c.driver.Load(ctx, c.name, id)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	return c.decode(doc)
}

func (c *Collection[E, PE, P]) Create(ctx context.Context, entity *E) (*E, error) {
	base := PE(entity).GetBase()
	models.Stamp(base, models.Now())

	if err := c.checkUnique(ctx, entity); err != nil {
		return nil, err
	}

	if err := c.save(ctx, entity); err != nil {
		return nil, err
	}

	return entity, nil
}

func (c *Collection[E, PE, P]) Update(ctx context.Context, id uuid.UUID, patch P) (*E, error) {
	entity, err := c.FindByID(ctx, id)
	if err != nil || entity == nil {
		return nil, err
	}

	models.ApplyPatch[E, PE, P](PE(entity), patch, models.Now())

	if err := c.checkUnique(ctx, entity); err != nil {
		return nil, err
	}

	if err := c.save(ctx, entity); err != nil {
		return nil, err
	}

	return entity, nil
}

func (c *Collection[E, PE, P]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return c.driver.Remove(ctx, c.name, id)
}

func (c *Collection[E, PE, P]) save(ctx context.Context, entity *E) error {
	doc, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", c.name, err)
	}

	return c.driver.Save(ctx, c.name, PE(entity).GetBase().ID, doc)
}

func (c *Collection[E, PE, P]) decode(doc json.RawMessage) (*E, error) {
	entity := new(E)

	if err := json.Unmarshal(doc, entity); err != nil {
		return nil, apperrors.Unavailable("decode "+c.name+" document", err)
	}

	return entity, nil
}

func (c *Collection[E, PE, P]) checkUnique(ctx context.Context, entity *E) error {
	if c.uniqueKey == nil {
		return nil
	}

	id := PE(entity).GetBase().ID
	key := c.uniqueKey(entity)

	existing, err := c.FindOne(ctx, func(other *E) bool {
		return PE(other).GetBase().ID != id && c.uniqueKey(other) == key
	})
	if err != nil {
		return err
	}

	if existing != nil {
		return apperrors.Conflict("%s record violates a unique constraint", c.name)
	}

	return nil
}
