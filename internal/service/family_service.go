package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"familybudget/internal/logger"
	"familybudget/internal/models"
	"familybudget/internal/repository"
	"familybudget/internal/validation"
)

// MemberInput carries the editable fields of a member
type MemberInput struct {
	Name      string
	IsEarning bool
	Salary    decimal.Decimal
}

// ExpenseInput carries the fields of a new expense
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	Category    models.Category
}

// FamilyService handles member and expense bookkeeping. Every mutation
// loads the family document, changes it, recomputes all totals and saves
// the whole document back.
type FamilyService struct {
	store repository.FamilyStore
	log   *logger.Logger
}

// NewFamilyService creates a new family service
func NewFamilyService(store repository.FamilyStore, log *logger.Logger) *FamilyService {
	if log == nil {
		log = logger.Nop()
	}
	return &FamilyService{
		store: store,
		log:   log.With("service", "FamilyService"),
	}
}

// GetFamily returns the family document
func (s *FamilyService) GetFamily(ctx context.Context, familyID string) (family *models.Family, err error) {
	ctx, span := tracer.Start(ctx, "FamilyService.GetFamily", trace.WithAttributes(attribute.String("family.id", familyID)))
	defer func() { endSpan(span, err) }()

	return s.load(ctx, familyID)
}

// AddMember appends a member with no expenses
func (s *FamilyService) AddMember(ctx context.Context, familyID string, in MemberInput) (family *models.Family, err error) {
	ctx, span := tracer.Start(ctx, "FamilyService.AddMember", trace.WithAttributes(attribute.String("family.id", familyID)))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, familyID, func(f *models.Family) error {
		name := strings.TrimSpace(in.Name)
		if err := validation.ValidateMemberName(name); err != nil {
			return err
		}
		if err := validation.ValidateSalary(in.Salary); err != nil {
			return err
		}
		f.Members = append(f.Members, models.NewMember(name, in.IsEarning, in.Salary))
		return nil
	})
}

// UpdateMember overwrites name, earning flag and salary of a member
func (s *FamilyService) UpdateMember(ctx context.Context, familyID, memberID string, in MemberInput) (family *models.Family, err error) {
	ctx, span := tracer.Start(ctx, "FamilyService.UpdateMember", trace.WithAttributes(
		attribute.String("family.id", familyID),
		attribute.String("member.id", memberID),
	))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, familyID, func(f *models.Family) error {
		member := f.FindMember(memberID)
		if member == nil {
			return ErrMemberNotFound
		}
		name := strings.TrimSpace(in.Name)
		if err := validation.ValidateMemberName(name); err != nil {
			return err
		}
		if err := validation.ValidateSalary(in.Salary); err != nil {
			return err
		}
		member.Name = name
		member.IsEarning = in.IsEarning
		member.Salary = in.Salary
		return nil
	})
}

// DeleteMember removes a member together with its expenses
func (s *FamilyService) DeleteMember(ctx context.Context, familyID, memberID string) (family *models.Family, err error) {
	ctx, span := tracer.Start(ctx, "FamilyService.DeleteMember", trace.WithAttributes(
		attribute.String("family.id", familyID),
		attribute.String("member.id", memberID),
	))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, familyID, func(f *models.Family) error {
		if !f.RemoveMember(memberID) {
			return ErrMemberNotFound
		}
		return nil
	})
}

// AddExpense appends an expense dated now to a member
func (s *FamilyService) AddExpense(ctx context.Context, familyID, memberID string, in ExpenseInput) (family *models.Family, err error) {
	ctx, span := tracer.Start(ctx, "FamilyService.AddExpense", trace.WithAttributes(
		attribute.String("family.id", familyID),
		attribute.String("member.id", memberID),
	))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, familyID, func(f *models.Family) error {
		member := f.FindMember(memberID)
		if member == nil {
			return ErrMemberNotFound
		}
		description := strings.TrimSpace(in.Description)
		if err := validation.ValidateExpense(description, in.Amount, in.Category); err != nil {
			return err
		}
		member.Expenses = append(member.Expenses, models.NewExpense(description, in.Amount, in.Category))
		return nil
	})
}

func (s *FamilyService) load(ctx context.Context, familyID string) (*models.Family, error) {
	family, err := s.store.GetByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// mutate is the single write path: load, apply fn, recalculate, save
func (s *FamilyService) mutate(ctx context.Context, familyID string, fn func(f *models.Family) error) (*models.Family, error) {
	family, err := s.load(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if err := fn(family); err != nil {
		return nil, err
	}

	models.Recalculate(family)
	family.Touch()

	if err := s.store.Save(ctx, family); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFamilyNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.log.Debug("family saved",
		"family_id", family.ID,
		"members", len(family.Members),
		"total_income", family.TotalIncome.String(),
		"total_expenses", family.TotalExpenses.String(),
	)
	return family, nil
}
