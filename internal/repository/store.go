package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"familybudget/internal/models"
)

var (
	// ErrDuplicateName is returned by Create when the exact name is taken
	ErrDuplicateName = errors.New("family name already exists")

	// ErrNotFound is returned by Save and Delete for an unknown family ID
	ErrNotFound = errors.New("family not found")
)

// FamilyStore persists one document per family with its members and
// expenses embedded. GetByID returns (nil, nil) when no family has the ID.
type FamilyStore interface {
	Create(ctx context.Context, family *models.Family) error
	GetByID(ctx context.Context, id string) (*models.Family, error)
	// FindByNameFold returns every family whose name matches ignoring case,
	// oldest first
	FindByNameFold(ctx context.Context, name string) ([]*models.Family, error)
	Save(ctx context.Context, family *models.Family) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Family, error)
}

// FoldName is the case-insensitive lookup key of a family name
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortByCreated(families []*models.Family) {
	sort.SliceStable(families, func(i, j int) bool {
		return families[i].CreatedAt.Before(families[j].CreatedAt)
	})
}
