package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"familybudget/internal/models"
)

// MemoryFamilyRepository is an in-process FamilyStore. Documents are kept
// serialized so callers never share mutable state with the store.
type MemoryFamilyRepository struct {
	mu       sync.RWMutex
	families map[string][]byte
	names    map[string]string
}

// NewMemoryFamilyRepository creates an empty store
func NewMemoryFamilyRepository() *MemoryFamilyRepository {
	return &MemoryFamilyRepository{
		families: make(map[string][]byte),
		names:    make(map[string]string),
	}
}

func (r *MemoryFamilyRepository) Setup(ctx context.Context) error       { return nil }
func (r *MemoryFamilyRepository) PingContext(ctx context.Context) error { return nil }
func (r *MemoryFamilyRepository) Close() error                          { return nil }

func (r *MemoryFamilyRepository) Create(ctx context.Context, family *models.Family) error {
	doc, err := json.Marshal(models.NewFamilyRecord(family))
	if err != nil {
		return fmt.Errorf("failed to encode family: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.names[family.Name]; taken {
		return ErrDuplicateName
	}
	if _, exists := r.families[family.ID]; exists {
		return ErrDuplicateName
	}
	r.names[family.Name] = family.ID
	r.families[family.ID] = doc
	return nil
}

func (r *MemoryFamilyRepository) GetByID(ctx context.Context, id string) (*models.Family, error) {
	r.mu.RLock()
	doc, ok := r.families[id]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return decodeFamily(doc)
}

func (r *MemoryFamilyRepository) FindByNameFold(ctx context.Context, name string) ([]*models.Family, error) {
	folded := FoldName(name)

	r.mu.RLock()
	var docs [][]byte
	for n, id := range r.names {
		if FoldName(n) == folded {
			docs = append(docs, r.families[id])
		}
	}
	r.mu.RUnlock()

	return decodeAll(docs)
}

func (r *MemoryFamilyRepository) Save(ctx context.Context, family *models.Family) error {
	doc, err := json.Marshal(models.NewFamilyRecord(family))
	if err != nil {
		return fmt.Errorf("failed to encode family: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.families[family.ID]
	if !ok {
		return ErrNotFound
	}
	prev, err := decodeFamily(old)
	if err != nil {
		return err
	}
	if prev.Name != family.Name {
		if _, taken := r.names[family.Name]; taken {
			return ErrDuplicateName
		}
		delete(r.names, prev.Name)
		r.names[family.Name] = family.ID
	}
	r.families[family.ID] = doc
	return nil
}

func (r *MemoryFamilyRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.families[id]; !ok {
		return ErrNotFound
	}
	for name, owner := range r.names {
		if owner == id {
			delete(r.names, name)
		}
	}
	delete(r.families, id)
	return nil
}

func (r *MemoryFamilyRepository) List(ctx context.Context) ([]*models.Family, error) {
	r.mu.RLock()
	docs := make([][]byte, 0, len(r.families))
	for _, doc := range r.families {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	return decodeAll(docs)
}

func decodeAll(docs [][]byte) ([]*models.Family, error) {
	families := make([]*models.Family, 0, len(docs))
	for _, doc := range docs {
		family, err := decodeFamily(doc)
		if err != nil {
			return nil, err
		}
		families = append(families, family)
	}
	sortByCreated(families)
	return families, nil
}
