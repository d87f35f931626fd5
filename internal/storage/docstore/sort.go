package docstore

import (
	"slices"

	"kanban/internal/models"
)

func sortByCreation[E any, PE models.EntityPtr[E]](items []*E) {
	slices.SortStableFunc(items, func(a, b *E) int {
		return PE(a).GetBase().CreatedAt.Compare(PE(b).GetBase().CreatedAt)
	})
}

func sortByCreationDesc[E any, PE models.EntityPtr[E]](items []*E) {
	slices.SortStableFunc(items, func(a, b *E) int {
		return PE(b).GetBase().CreatedAt.Compare(PE(a).GetBase().CreatedAt)
	})
}
