package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"familybudget/internal/repository"
	"familybudget/internal/validation"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryFamilyRepository()
	auth := newAuth(t, store)

	res, err := auth.Register(ctx, "  Smiths ", "secret1", "")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	assert.Equal(t, "Smiths", res.Family.Name)
	assert.Empty(t, res.Family.Members)
	assert.True(t, res.Family.TotalIncome.IsZero())
	assert.True(t, res.Family.TotalExpenses.IsZero())
	assert.NotEqual(t, "secret1", res.Family.PasswordHash)

	stored, err := store.GetByID(ctx, res.Family.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, res.Family.PasswordHash, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name      string
		family    string
		password  string
		email     string
		wantField string
	}{
		{name: "short name", family: "J", password: "secret1", wantField: "name"},
		{name: "blank name", family: "   ", password: "secret1", wantField: "name"},
		{name: "short password", family: "Smiths", password: "12345", wantField: "password"},
		{name: "bad email", family: "Smiths", password: "secret1", email: "nope", wantField: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryFamilyRepository()
			_, err := newAuth(t, store).Register(context.Background(), tt.family, tt.password, tt.email)

			require.ErrorIs(t, err, ErrValidation)
			var ve validation.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)

			all, _ := store.List(context.Background())
			assert.Empty(t, all, "nothing is persisted on validation failure")
		})
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, repository.NewMemoryFamilyRepository())

	_, err := auth.Register(ctx, "Smiths", "secret1", "")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "Smiths", "other12", "")
	assert.ErrorIs(t, err, ErrDuplicateName)

	// differs only in case: allowed at storage level
	_, err = auth.Register(ctx, "smiths", "other12", "")
	assert.NoError(t, err)
}

func TestRegisterRollsBackWhenTokenIssuanceFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryFamilyRepository()
	auth := NewAuthService(store, failingTokens{}, nil, bcrypt.MinCost, nil)

	_, err := auth.Register(ctx, "Smiths", "secret1", "")
	require.ErrorIs(t, err, ErrTokenIssuance)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "registration must leave no orphaned family")
}

func TestRegisterSendsWelcomeEmail(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{err: errors.New("ses throttled")}
	auth := NewAuthService(repository.NewMemoryFamilyRepository(), newTokens(t), mailer, bcrypt.MinCost, nil)

	_, err := auth.Register(ctx, "Smiths", "secret1", "smiths@example.com")
	require.NoError(t, err, "mail failures are best effort")

	_, err = auth.Register(ctx, "Jones", "secret1", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"smiths@example.com|Smiths"}, mailer.sent)
}

func TestRegisterPersistenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	_, err := newAuth(t, brokenStore{err: boom}).Register(context.Background(), "Smiths", "secret1", "")

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, boom)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, repository.NewMemoryFamilyRepository())
	reg, err := auth.Register(ctx, "Smiths", "secret1", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		family   string
		password string
		wantErr  error
	}{
		{name: "exact", family: "Smiths", password: "secret1"},
		{name: "case insensitive", family: "SMITHS", password: "secret1"},
		{name: "wrong password", family: "Smiths", password: "wrong12", wantErr: ErrInvalidCredentials},
		{name: "unknown family", family: "Jones", password: "secret1", wantErr: ErrInvalidCredentials},
		{name: "missing password", family: "Smiths", password: "", wantErr: ErrValidation},
		{name: "missing name", family: " ", password: "secret1", wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := auth.Login(ctx, tt.family, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, reg.Family.ID, res.Family.ID)
			assert.NotEmpty(t, res.Token)
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, repository.NewMemoryFamilyRepository())
	_, err := auth.Register(ctx, "Smiths", "secret1", "")
	require.NoError(t, err)

	_, wrongPassword := auth.Login(ctx, "Smiths", "wrong12")
	_, unknownName := auth.Login(ctx, "Nobody", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownName)
	assert.Equal(t, wrongPassword.Error(), unknownName.Error())
}

func TestLoginWithCaseVariants(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, repository.NewMemoryFamilyRepository())

	upper, err := auth.Register(ctx, "Smith", "password-a", "")
	require.NoError(t, err)
	lower, err := auth.Register(ctx, "smith", "password-b", "")
	require.NoError(t, err)

	res, err := auth.Login(ctx, "smith", "password-b")
	require.NoError(t, err)
	assert.Equal(t, lower.Family.ID, res.Family.ID, "exact-case match")

	res, err = auth.Login(ctx, "SMITH", "password-a")
	require.NoError(t, err)
	assert.Equal(t, upper.Family.ID, res.Family.ID)

	res, err = auth.Login(ctx, "SMITH", "password-b")
	require.NoError(t, err)
	assert.Equal(t, lower.Family.ID, res.Family.ID, "falls through to the family whose password matches")
}

func TestRegisterLoginAuthenticateRoundTrip(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, repository.NewMemoryFamilyRepository())

	reg, err := auth.Register(ctx, "Smiths", "secret1", "")
	require.NoError(t, err)

	login, err := auth.Login(ctx, "smiths", "secret1")
	require.NoError(t, err)

	for _, token := range []string{reg.Token, login.Token} {
		family, err := auth.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, reg.Family.ID, family.ID)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryFamilyRepository()
	auth := newAuth(t, store)
	reg, err := auth.Register(ctx, "Smiths", "secret1", "")
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = auth.Authenticate(ctx, "not.a.token")
	assert.ErrorIs(t, err, ErrAuthentication)

	require.NoError(t, store.Delete(ctx, reg.Family.ID))
	_, err = auth.Authenticate(ctx, reg.Token)
	assert.ErrorIs(t, err, ErrAuthentication, "vanished family")
}
