package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"familybudget/internal/database"
	"familybudget/internal/models"
)

const familyColumns = `id, name, password_hash, email, members, total_income, total_expenses, created_at, updated_at`

// SQLFamilyRepository stores each family as one row; members and their
// expenses live in a JSON column
type SQLFamilyRepository struct {
	db *database.DB
}

// NewSQLFamilyRepository creates a new family repository
func NewSQLFamilyRepository(db *database.DB) *SQLFamilyRepository {
	return &SQLFamilyRepository{db: db}
}

// Create inserts a new family
func (r *SQLFamilyRepository) Create(ctx context.Context, family *models.Family) error {
	members, err := encodeMembers(family.Members)
	if err != nil {
		return err
	}

	query := `INSERT INTO families (` + familyColumns + `, name_folded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		family.ID,
		family.Name,
		family.PasswordHash,
		family.Email,
		members,
		family.TotalIncome,
		family.TotalExpenses,
		family.CreatedAt,
		family.UpdatedAt,
		FoldName(family.Name),
	)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create family: %w", err)
	}
	return nil
}

// GetByID retrieves a family by ID
func (r *SQLFamilyRepository) GetByID(ctx context.Context, id string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE id = ?"
	family, err := scanFamily(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// FindByNameFold retrieves families whose name matches ignoring case
func (r *SQLFamilyRepository) FindByNameFold(ctx context.Context, name string) ([]*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE name_folded = ? ORDER BY created_at ASC"
	rows, err := r.db.QueryContext(ctx, query, FoldName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	return collectFamilies(rows)
}

// Save overwrites the stored document of an existing family
func (r *SQLFamilyRepository) Save(ctx context.Context, family *models.Family) error {
	members, err := encodeMembers(family.Members)
	if err != nil {
		return err
	}

	query := `UPDATE families
		SET name = ?, name_folded = ?, password_hash = ?, email = ?, members = ?,
			total_income = ?, total_expenses = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		family.Name,
		FoldName(family.Name),
		family.PasswordHash,
		family.Email,
		members,
		family.TotalIncome,
		family.TotalExpenses,
		family.UpdatedAt,
		family.ID,
	)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to save family: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save family: %w", err)
	}
	if affected == 0 {
		// MySQL reports zero for an unchanged row, so confirm it is really gone
		exists, err := r.exists(ctx, family.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a family
func (r *SQLFamilyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM families WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves every family, oldest first
func (r *SQLFamilyRepository) List(ctx context.Context) ([]*models.Family, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+familyColumns+" FROM families ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	return collectFamilies(rows)
}

func (r *SQLFamilyRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM families WHERE id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check family: %w", err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFamily(row rowScanner) (*models.Family, error) {
	family := &models.Family{}
	var members []byte
	err := row.Scan(
		&family.ID,
		&family.Name,
		&family.PasswordHash,
		&family.Email,
		&members,
		&family.TotalIncome,
		&family.TotalExpenses,
		&family.CreatedAt,
		&family.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &family.Members); err != nil {
		return nil, fmt.Errorf("failed to decode members of family %s: %w", family.ID, err)
	}
	if family.Members == nil {
		family.Members = []models.Member{}
	}
	return family, nil
}

func collectFamilies(rows *sql.Rows) ([]*models.Family, error) {
	defer rows.Close()

	var families []*models.Family
	for rows.Next() {
		family, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate families: %w", err)
	}
	return families, nil
}

func encodeMembers(members []models.Member) (string, error) {
	if members == nil {
		members = []models.Member{}
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return "", fmt.Errorf("failed to encode members: %w", err)
	}
	return string(raw), nil
}
