package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"familybudget/internal/logger"
	"familybudget/internal/models"
	"familybudget/internal/repository"
	"familybudget/internal/security"
	"familybudget/internal/validation"
)

// Tokens issues and verifies bearer tokens bound to a family ID
type Tokens interface {
	Issue(familyID string) (string, time.Time, error)
	Parse(token string) (string, error)
}

// Mailer delivers the welcome message after registration
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, familyName string) error
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Family    *models.Family
}

// AuthService handles registration, login and token verification
type AuthService struct {
	store      repository.FamilyStore
	tokens     Tokens
	mailer     Mailer
	bcryptCost int
	log        *logger.Logger
}

// NewAuthService creates a new auth service. mailer may be nil.
func NewAuthService(store repository.FamilyStore, tokens Tokens, mailer Mailer, bcryptCost int, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{
		store:      store,
		tokens:     tokens,
		mailer:     mailer,
		bcryptCost: bcryptCost,
		log:        log.With("service", "AuthService"),
	}
}

// Register creates an empty family and returns a token for it
func (s *AuthService) Register(ctx context.Context, name, password, email string) (result *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validation.ValidateFamilyName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	passwordHash, err := security.HashPasswordWithCost(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	family := models.NewFamily(name, passwordHash)
	family.Email = email
	models.Recalculate(family)
	span.SetAttributes(attribute.String("family.id", family.ID))

	if err := s.store.Create(ctx, family); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	token, expiresAt, err := s.tokens.Issue(family.ID)
	if err != nil {
		// an account nobody can sign into is worse than none
		if delErr := s.store.Delete(context.WithoutCancel(ctx), family.ID); delErr != nil {
			s.log.Error("failed to roll back registration", "family_id", family.ID, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}

	s.log.Info("family registered", "family_id", family.ID)
	s.sendWelcome(ctx, family)

	return &AuthResult{Token: token, ExpiresAt: expiresAt, Family: family}, nil
}

func (s *AuthService) sendWelcome(ctx context.Context, family *models.Family) {
	if s.mailer == nil || family.Email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.mailer.SendWelcomeEmail(ctx, family.Email, family.Name); err != nil {
		s.log.Warn("failed to send welcome email", "family_id", family.ID, "error", err)
	}
}

// Login resolves name case-insensitively. When several families share the
// folded name, the exact-case match is tried first, then the rest oldest
// first; the first whose password verifies wins.
func (s *AuthService) Login(ctx context.Context, name, password string) (result *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation.ValidationError{Field: "name", Message: "family name is required"}
	}
	if password == "" {
		return nil, validation.ValidationError{Field: "password", Message: "password is required"}
	}

	candidates, err := s.store.FindByNameFold(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	var family *models.Family
	for _, c := range loginOrder(candidates, name) {
		if security.CheckPassword(password, c.PasswordHash) {
			family = c
			break
		}
	}
	if family == nil {
		return nil, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("family.id", family.ID))

	token, expiresAt, err := s.tokens.Issue(family.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenIssuance, err)
	}

	return &AuthResult{Token: token, ExpiresAt: expiresAt, Family: family}, nil
}

// loginOrder moves exact-case matches ahead of the oldest-first remainder
func loginOrder(candidates []*models.Family, name string) []*models.Family {
	ordered := make([]*models.Family, 0, len(candidates))
	for _, c := range candidates {
		if c.Name == name {
			ordered = append(ordered, c)
		}
	}
	for _, c := range candidates {
		if c.Name != name {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// Authenticate verifies a bearer token and loads the family it names
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Family, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Authenticate", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrAuthentication)
	}

	familyID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	family, err := s.store.GetByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if family == nil {
		return nil, fmt.Errorf("%w: family no longer exists", ErrAuthentication)
	}
	return family, nil
}
