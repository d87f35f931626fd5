package gormstore

import (
	"context"
	"errors"
	"strings"

	"kanban/internal/apperrors"
	"kanban/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const positionOrder = "position ASC, created_at ASC, id ASC"

type repository[E any, PE models.EntityPtr[E], P models.Patch[E]] struct {
	db    *gorm.DB
	order string
}

func newRepository[E any, PE models.EntityPtr[E], P models.Patch[E]](db *gorm.DB, order string) repository[E, PE, P] {
	return repository[E, PE, P]{db: db, order: order}
}

func (r repository[E, PE, P]) FindAll(ctx context.Context) ([]*E, error) {
	return r.findWhere(ctx, "")
}

func (r repository[E, PE, P]) FindByID(ctx context.Context, id uuid.UUID) (*E, error) {
	entity := new(E)

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, translateError("find by id", err)
	}

	return entity, nil
}

func (r repository[E, PE, P]) Create(ctx context.Context, entity *E) (*E, error) {
	models.Stamp(PE(entity).GetBase(), models.Now())

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, translateError("create", err)
	}

	return entity, nil
}

func (r repository[E, PE, P]) Update(ctx context.Context, id uuid.UUID, patch P) (*E, error) {
	var updated *E

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity := new(E)

		if err := tx.Where("id = ?", id).First(entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}

			return err
		}

		models.ApplyPatch[E, PE, P](PE(entity), patch, models.Now())

		if err := tx.Save(entity).Error; err != nil {
			return err
		}

		updated = entity
		return nil
	})
	if err != nil {
		return nil, translateError("update", err)
	}

	return updated, nil
}

func (r repository[E, PE, P]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(E))
	if result.Error != nil {
		return false, translateError("delete", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r repository[E, PE, P]) findWhere(ctx context.Context, query string, args ...any) ([]*E, error) {
	items := make([]*E, 0)

	q := r.db.WithContext(ctx)
	if query != "" {
		q = q.Where(query, args...)
	}
	if r.order != "" {
		q = q.Order(r.order)
	}

	if err := q.Find(&items).Error; err != nil {
		return nil, translateError("find", err)
	}

	return items, nil
}

func (r repository[E, PE, P]) findOne(ctx context.Context, query string, args ...any) (*E, error) {
	entity := new(E)

	if err := r.db.WithContext(ctx).Where(query, args...).First(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, translateError("find one", err)
	}

	return entity, nil
}

func translateError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return apperrors.Conflict("record violates a unique constraint")
	}

	return apperrors.Unavailable(op, err)
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
