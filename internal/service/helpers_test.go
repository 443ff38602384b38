package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"familybudget/internal/models"
	"familybudget/internal/repository"
	"familybudget/internal/security"
)

const testSecret = "test-secret"

func newTokens(t *testing.T) *security.TokenIssuer {
	t.Helper()
	tokens, err := security.NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return tokens
}

type failingTokens struct{}

func (failingTokens) Issue(string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("signer unavailable")
}

func (failingTokens) Parse(string) (string, error) {
	return "", security.ErrInvalidToken
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendWelcomeEmail(ctx context.Context, toEmail, familyName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail+"|"+familyName)
	return m.err
}

// brokenStore fails every call with err
type brokenStore struct{ err error }

func (s brokenStore) Create(context.Context, *models.Family) error { return s.err }
func (s brokenStore) GetByID(context.Context, string) (*models.Family, error) {
	return nil, s.err
}
func (s brokenStore) FindByNameFold(context.Context, string) ([]*models.Family, error) {
	return nil, s.err
}
func (s brokenStore) Save(context.Context, *models.Family) error   { return s.err }
func (s brokenStore) Delete(context.Context, string) error         { return s.err }
func (s brokenStore) List(context.Context) ([]*models.Family, error) { return nil, s.err }

var _ repository.FamilyStore = brokenStore{}

func newAuth(t *testing.T, store repository.FamilyStore) *AuthService {
	t.Helper()
	return NewAuthService(store, newTokens(t), nil, bcrypt.MinCost, nil)
}
