package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"familybudget/internal/models"
)

const (
	// namesKey maps exact family name to ID
	namesKey = "family:names"
)

func familyKey(id string) string {
	return "family:" + id
}

func foldedKey(name string) string {
	return "family:folded:" + FoldName(name)
}

// RedisFamilyRepository keeps each family as a JSON document under
// family:{id}
type RedisFamilyRepository struct {
	rdb *redis.Client
}

// NewRedisFamilyRepository creates a client for addr. No connection is made
// until Setup or the first command.
func NewRedisFamilyRepository(addr, password string, db int) *RedisFamilyRepository {
	return NewRedisFamilyRepositoryWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisFamilyRepositoryWithClient wraps an existing client
func NewRedisFamilyRepositoryWithClient(rdb *redis.Client) *RedisFamilyRepository {
	return &RedisFamilyRepository{rdb: rdb}
}

// Setup verifies the server answers
func (r *RedisFamilyRepository) Setup(ctx context.Context) error {
	return r.PingContext(ctx)
}

func (r *RedisFamilyRepository) PingContext(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisFamilyRepository) Close() error {
	return r.rdb.Close()
}

// Create claims the name with HSETNX, then writes the document and the
// case-insensitive index
func (r *RedisFamilyRepository) Create(ctx context.Context, family *models.Family) error {
	doc, err := json.Marshal(models.NewFamilyRecord(family))
	if err != nil {
		return fmt.Errorf("failed to encode family: %w", err)
	}

	exists, err := r.rdb.Exists(ctx, familyKey(family.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check family: %w", err)
	}
	if exists > 0 {
		return ErrDuplicateName
	}

	claimed, err := r.rdb.HSetNX(ctx, namesKey, family.Name, family.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve family name: %w", err)
	}
	if !claimed {
		return ErrDuplicateName
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, familyKey(family.ID), doc, 0)
		pipe.SAdd(ctx, foldedKey(family.Name), family.ID)
		return nil
	})
	if err != nil {
		r.rdb.HDel(context.WithoutCancel(ctx), namesKey, family.Name)
		return fmt.Errorf("failed to create family: %w", err)
	}
	return nil
}

// GetByID retrieves a family by ID
func (r *RedisFamilyRepository) GetByID(ctx context.Context, id string) (*models.Family, error) {
	raw, err := r.rdb.Get(ctx, familyKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return decodeFamily(raw)
}

// FindByNameFold retrieves families whose name matches ignoring case
func (r *RedisFamilyRepository) FindByNameFold(ctx context.Context, name string) ([]*models.Family, error) {
	ids, err := r.rdb.SMembers(ctx, foldedKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	return r.load(ctx, ids)
}

// Save overwrites the document of an existing family
func (r *RedisFamilyRepository) Save(ctx context.Context, family *models.Family) error {
	doc, err := json.Marshal(models.NewFamilyRecord(family))
	if err != nil {
		return fmt.Errorf("failed to encode family: %w", err)
	}

	updated, err := r.rdb.SetXX(ctx, familyKey(family.ID), doc, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save family: %w", err)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document and both name indexes
func (r *RedisFamilyRepository) Delete(ctx context.Context, id string) error {
	family, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if family == nil {
		return ErrNotFound
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, familyKey(id))
		pipe.HDel(ctx, namesKey, family.Name)
		pipe.SRem(ctx, foldedKey(family.Name), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}

// List retrieves every family, oldest first
func (r *RedisFamilyRepository) List(ctx context.Context) ([]*models.Family, error) {
	ids, err := r.rdb.HVals(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	return r.load(ctx, ids)
}

func (r *RedisFamilyRepository) load(ctx context.Context, ids []string) ([]*models.Family, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = familyKey(id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load families: %w", err)
	}

	families := make([]*models.Family, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// index entry without a document; skipped until Delete cleans it
			continue
		}
		family, err := decodeFamily([]byte(s))
		if err != nil {
			return nil, err
		}
		families = append(families, family)
	}
	sortByCreated(families)
	return families, nil
}

func decodeFamily(raw []byte) (*models.Family, error) {
	rec := models.FamilyRecord{Family: &models.Family{}}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode family: %w", err)
	}
	family := rec.ToFamily()
	if family.Members == nil {
		family.Members = []models.Member{}
	}
	return family, nil
}
