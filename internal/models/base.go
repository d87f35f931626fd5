package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Base carries identity and timestamps. Only storage backends assign these.
type Base struct {
	ID        uuid.UUID `json:"id"         gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (b *Base) GetBase() *Base {
	return b
}

type Entity interface {
	GetBase() *Base
}

// EntityPtr lets generic storage code work with *E while knowing E.
type EntityPtr[E any] interface {
	*E
	Entity
}

// Patch is an explicit partial update for one entity type. Apply must only
// touch mutable fields.
type Patch[E any] interface {
	Apply(entity *E)
}

// Stamp assigns a fresh identity and sets both timestamps to now.
func Stamp(b *Base, now time.Time) {
	b.ID = uuid.New()
	b.CreatedAt = now
	b.UpdatedAt = now
}

// ApplyPatch merges patch over entity, refreshes updated_at and restores
// identity and creation time whatever the patch did.
func ApplyPatch[E any, PE EntityPtr[E], P Patch[E]](entity PE, patch P, now time.Time) {
	original := *entity.GetBase()

	patch.Apply((*E)(entity))

	base := entity.GetBase()
	base.ID = original.ID
	base.CreatedAt = original.CreatedAt
	base.UpdatedAt = now
}

// Now is the timestamp source for every create and update, always UTC.
func Now() time.Time {
	return time.Now().UTC()
}

type Positioned interface {
	GetPosition() int
	GetBase() *Base
}

// SortByPosition orders siblings ascending by position. Ties keep creation
// order, then the incoming order.
func SortByPosition[T Positioned](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		if a.GetPosition() != b.GetPosition() {
			return a.GetPosition() - b.GetPosition()
		}

		return a.GetBase().CreatedAt.Compare(b.GetBase().CreatedAt)
	})
}
