package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"familybudget/internal/logger"
	"familybudget/internal/models"
	"familybudget/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete store backup structure
type BackupData struct {
	Version    string                `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	Backend    string                `json:"backend"`
	Families   []models.FamilyRecord `json:"families"`
}

// ImportReport counts what an import did
type ImportReport struct {
	Imported int
	Skipped  int
}

// BackupService exports and imports whole family documents
type BackupService struct {
	store   repository.FamilyStore
	backend string
	log     *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(store repository.FamilyStore, backend string, log *logger.Logger) *BackupService {
	if log == nil {
		log = logger.Nop()
	}
	return &BackupService{store: store, backend: backend, log: log.With("service", "BackupService")}
}

// Export writes all families to a JSON file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	return file.Close()
}

// ExportToWriter writes all families as JSON to w. Password hashes are
// included so an import restores working logins.
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	families, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to export families: %w", err)
	}

	backup := BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Backend:    s.backend,
		Families:   make([]models.FamilyRecord, 0, len(families)),
	}
	for _, f := range families {
		backup.Families = append(backup.Families, models.NewFamilyRecord(f))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	s.log.Info("backup exported", "families", len(backup.Families))
	return nil
}

// Import reads a backup file and recreates its families
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportReport, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader recreates families from a backup. Totals are recomputed
// rather than trusted; families whose exact name already exists are
// skipped.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (*ImportReport, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	report := &ImportReport{}
	for i, rec := range backup.Families {
		family := rec.ToFamily()
		if family == nil || family.ID == "" || family.Name == "" || family.PasswordHash == "" {
			return report, fmt.Errorf("backup entry %d is incomplete", i)
		}
		if family.Members == nil {
			family.Members = []models.Member{}
		}
		for j := range family.Members {
			if family.Members[j].Expenses == nil {
				family.Members[j].Expenses = []models.Expense{}
			}
		}
		models.Recalculate(family)

		err := s.store.Create(ctx, family)
		if errors.Is(err, repository.ErrDuplicateName) {
			s.log.Warn("skipping family with existing name", "family_id", family.ID)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to import family %s: %w", family.ID, err)
		}
		report.Imported++
	}

	s.log.Info("backup imported", "imported", report.Imported, "skipped", report.Skipped)
	return report, nil
}

// Clear deletes every family in the store and returns how many were removed
func (s *BackupService) Clear(ctx context.Context) (int, error) {
	families, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list families: %w", err)
	}
	removed := 0
	for _, f := range families {
		if err := s.store.Delete(ctx, f.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return removed, fmt.Errorf("failed to delete family %s: %w", f.ID, err)
		}
		removed++
	}
	s.log.Info("store cleared", "families", removed)
	return removed, nil
}
