package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"familybudget/internal/repository"
	"familybudget/internal/security"
	"familybudget/internal/service"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	store := repository.NewMemoryFamilyRepository()
	tokens, err := security.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	auth := service.NewAuthService(store, tokens, nil, bcrypt.MinCost, nil)
	families := service.NewFamilyService(store, nil)
	return &testServer{t: t, handler: NewRouter(cfg, auth, families)}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type authBody struct {
	Token  string `json:"token"`
	Family struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"family"`
}

type familyBody struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		IsEarning  bool    `json:"isEarning"`
		Salary     float64 `json:"salary"`
		TotalSpent float64 `json:"totalSpent"`
		Expenses   []struct {
			Description string  `json:"description"`
			Amount      float64 `json:"amount"`
			Category    string  `json:"category"`
		} `json:"expenses"`
	} `json:"members"`
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
}

func (s *testServer) register(name string) authBody {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{"name": name, "password": "secret1"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](s.t, rec)
}

func TestBudgetFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	reg := srv.register("Smiths")
	assert.Equal(t, "Smiths", reg.Family.Name)
	assert.NotEmpty(t, reg.Token)

	base := "/family/" + reg.Family.ID

	rec := srv.do(http.MethodPost, base+"/members", reg.Token, map[string]any{"name": "Alice", "isEarning": true, "salary": 5000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f := decode[familyBody](t, rec)
	assert.Equal(t, 5000.0, f.TotalIncome)
	aliceID := f.Members[0].ID

	// loosely typed fields are coerced
	rec = srv.do(http.MethodPost, base+"/members", reg.Token, map[string]any{"name": "Bob", "isEarning": "false", "salary": "3000"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f = decode[familyBody](t, rec)
	assert.Equal(t, 5000.0, f.TotalIncome)
	bobID := f.Members[1].ID
	assert.Equal(t, 3000.0, f.Members[1].Salary)

	rec = srv.do(http.MethodPost, base+"/members/"+aliceID+"/expenses", reg.Token, map[string]any{"description": "Groceries", "amount": 120, "category": "Food"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f = decode[familyBody](t, rec)
	assert.Equal(t, 120.0, f.TotalExpenses)
	assert.Equal(t, 120.0, f.Members[0].TotalSpent)

	rec = srv.do(http.MethodPut, base+"/members/"+bobID, reg.Token, map[string]any{"name": "Bob", "isEarning": true, "salary": 3000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 8000.0, decode[familyBody](t, rec).TotalIncome)

	rec = srv.do(http.MethodDelete, base+"/members/"+aliceID, reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	f = decode[familyBody](t, rec)
	assert.Equal(t, 3000.0, f.TotalIncome)
	assert.Equal(t, 0.0, f.TotalExpenses)
	require.Len(t, f.Members, 1)

	rec = srv.do(http.MethodGet, base, reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	f = decode[familyBody](t, rec)
	assert.Equal(t, reg.Family.ID, f.ID)
	assert.Equal(t, 3000.0, f.TotalIncome)
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	reg := srv.register("Smiths")

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{"login", "/auth/login", map[string]string{"name": "smiths", "password": "secret1"}, http.StatusOK},
		{"wrong password", "/auth/login", map[string]string{"name": "Smiths", "password": "nope123"}, http.StatusUnauthorized},
		{"unknown family", "/auth/login", map[string]string{"name": "Jones", "password": "secret1"}, http.StatusUnauthorized},
		{"login missing fields", "/auth/login", map[string]string{}, http.StatusBadRequest},
		{"duplicate register", "/auth/register", map[string]string{"name": "Smiths", "password": "secret1"}, http.StatusBadRequest},
		{"short password", "/auth/register", map[string]string{"name": "Jones", "password": "123"}, http.StatusBadRequest},
		{"malformed json", "/auth/register", "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				got := decode[authBody](t, rec)
				assert.Equal(t, reg.Family.ID, got.Family.ID)
			} else {
				assert.NotEmpty(t, decode[errorResponse](t, rec).Message)
			}
		})
	}
}

func TestFamilyRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	reg := srv.register("Smiths")
	other := srv.register("Jones")

	rec := srv.do(http.MethodGet, "/family/"+reg.Family.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodGet, "/family/"+reg.Family.ID, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a valid token for another family cannot see this one
	rec = srv.do(http.MethodGet, "/family/"+reg.Family.ID, other.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodPost, "/family/"+reg.Family.ID+"/members", other.Token, map[string]any{"name": "Mallory"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFamilyValidationOverHTTP(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	reg := srv.register("Smiths")
	base := "/family/" + reg.Family.ID

	rec := srv.do(http.MethodPost, base+"/members", reg.Token, map[string]any{"salary": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, base+"/members", reg.Token, map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	aliceID := decode[familyBody](t, rec).Members[0].ID

	for name, body := range map[string]map[string]any{
		"missing amount":   {"description": "x", "category": "Food"},
		"zero amount":      {"description": "x", "amount": 0, "category": "Food"},
		"non numeric":      {"description": "x", "amount": "lots", "category": "Food"},
		"negative amount":  {"description": "x", "amount": -3, "category": "Food"},
		"unknown category": {"description": "x", "amount": 3, "category": "Travel"},
		"no description":   {"amount": 3, "category": "Food"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, base+"/members/"+aliceID+"/expenses", reg.Token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec = srv.do(http.MethodPost, base+"/members/ghost/expenses", reg.Token, map[string]any{"description": "x", "amount": 1, "category": "Food"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgMemberNotFound, decode[errorResponse](t, rec).Message)

	rec = srv.do(http.MethodDelete, base+"/members/ghost", reg.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasePathAndHealth(t *testing.T) {
	srv := newTestServer(t, RouterConfig{
		BasePath:    "/api",
		StoreHealth: func() (bool, string) { return false, "reconnecting" },
	})

	rec := srv.do(http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Smiths", "password": "secret1"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(http.MethodPost, "/auth/register", "", map[string]string{"name": "Jones", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "reconnecting", decode[healthResponse](t, rec).Store)
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServer(t, RouterConfig{RateLimiter: security.NewRateLimiter(2)})

	for i := 0; i < 2; i++ {
		rec := srv.do(http.MethodPost, "/auth/login", "", map[string]string{"name": "x", "password": "y"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := srv.do(http.MethodPost, "/auth/login", "", map[string]string{"name": "x", "password": "y"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
