package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"flairhq/internal/flair"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/services"
	"flairhq/internal/structures"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type mockService struct {
	err        error
	lastCaller services.Caller
	lastArgs   []string
	apps       []models.Application
	claim      *services.Claim
}

func (m *mockService) Apply(_ context.Context, caller services.Caller, flairName, subject string) (*models.Application, error) {
	m.lastCaller, m.lastArgs = caller, []string{flairName, subject}
	if m.err != nil {
		return nil, m.err
	}
	return &models.Application{ID: "app-1", User: caller.Name, Flair: flairName, Subject: subject}, nil
}

func (m *mockService) DenyApp(_ context.Context, caller services.Caller, id string) (*models.Application, error) {
	m.lastCaller, m.lastArgs = caller, []string{id}
	if m.err != nil {
		return nil, m.err
	}
	return &models.Application{ID: id, User: "alice", Flair: "pokeball"}, nil
}

func (m *mockService) ApproveApp(_ context.Context, caller services.Caller, id, badge string) (*models.Application, error) {
	m.lastCaller, m.lastArgs = caller, []string{id, badge}
	if m.err != nil {
		return nil, m.err
	}
	return &models.Application{ID: id, User: "alice", Flair: "pokeball"}, nil
}

func (m *mockService) SetText(_ context.Context, caller services.Caller, trades, exchange string) (*services.TextResult, error) {
	m.lastCaller, m.lastArgs = caller, []string{trades, exchange}
	if m.err != nil {
		return nil, m.err
	}
	return &services.TextResult{
		User:        caller.Name,
		Trades:      models.FlairState{Text: trades, CSSClass: "default"},
		Exchange:    models.FlairState{Text: exchange},
		FriendCodes: []string{"1288-4901-8881"},
		Detection:   flair.Detection{FlaggedInvalid: []string{"secret"}},
	}, nil
}

func (m *mockService) GetApps(_ context.Context) ([]models.Application, error) {
	return m.apps, m.err
}

func (m *mockService) RefreshClaim(_ context.Context, caller services.Caller) (*services.Claim, error) {
	m.lastCaller = caller
	return m.claim, m.err
}

type mockFlairStore struct {
	defs  []models.FlairDefinition
	calls int
}

func (m *mockFlairStore) GetFlair(_ context.Context, _ string) (*models.FlairDefinition, error) {
	return nil, errors.New("unused")
}

func (m *mockFlairStore) ListFlairs(_ context.Context) ([]models.FlairDefinition, error) {
	m.calls++
	return m.defs, nil
}

func (m *mockFlairStore) PutFlairs(_ context.Context, _ []models.FlairDefinition) error { return nil }

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache                     { return &mockCache{data: make(map[string][]byte)} }
func (m *mockCache) Get(key string) ([]byte, bool) { v, ok := m.data[key]; return v, ok }
func (m *mockCache) Set(key string, value []byte)  { m.data[key] = value }
func (m *mockCache) Del(key string)                { delete(m.data, key) }

// --- helpers ---

func testAuth() providers.AuthProviderInterface {
	return providers.NewAuthProvider(&structures.Config{
		Auth: structures.AuthConfig{JWTSecret: "0123456789abcdef0123", TokenTTL: time.Hour, Issuer: "flairhq"},
	})
}

func newTestController(svc *mockService) *ApiController {
	return NewApiController(&mockLogger{}, svc, &mockFlairStore{}, newMockCache(), testAuth())
}

func asUser(req *http.Request, name string, isMod bool) *http.Request {
	return req.WithContext(providers.WithClaims(req.Context(), &providers.Claims{Name: name, IsMod: isMod}))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp["error"]
}

// --- Apply tests ---

func TestApply_Created(t *testing.T) {
	svc := &mockService{}
	ac := newTestController(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/flair/apply", strings.NewReader(`{"flair":"pokeball","sub":"pokemontrades"}`))
	req.RemoteAddr = "203.0.113.7:41000"
	rr := httptest.NewRecorder()
	ac.Apply(rr, asUser(req, "alice", false))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, services.Caller{Name: "alice", IP: "203.0.113.7"}, svc.lastCaller)
	assert.Equal(t, []string{"pokeball", "pokemontrades"}, svc.lastArgs)

	var app models.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &app))
	assert.Equal(t, "app-1", app.ID)
}

func TestApply_InvalidJSON(t *testing.T) {
	ac := newTestController(&mockService{})

	req := httptest.NewRequest(http.MethodPost, "/api/flair/apply", strings.NewReader(`not json`))
	rr := httptest.NewRecorder()
	ac.Apply(rr, asUser(req, "alice", false))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestApply_MissingField(t *testing.T) {
	svc := &mockService{}
	ac := newTestController(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/flair/apply", strings.NewReader(`{"flair":"pokeball"}`))
	rr := httptest.NewRecorder()
	ac.Apply(rr, asUser(req, "alice", false))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotEmpty(t, decodeError(t, rr))
	assert.Nil(t, svc.lastArgs)
}

func TestApply_BodyTooLarge(t *testing.T) {
	ac := newTestController(&mockService{})

	large := `{"flair":"` + strings.Repeat("x", maxRequestBodySize+1) + `","sub":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/flair/apply", strings.NewReader(large))
	rr := httptest.NewRecorder()
	ac.Apply(rr, asUser(req, "alice", false))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- error mapping ---

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"format", &flair.FormatError{Field: flair.FieldTrades}, http.StatusBadRequest},
		{"duplicate", services.ErrDuplicateApplication, http.StatusBadRequest},
		{"ineligible", services.ErrIneligibleUser, http.StatusBadRequest},
		{"badge", services.ErrUnexpectedBadge, http.StatusBadRequest},
		{"rate limited", services.ErrRateLimited, http.StatusTooManyRequests},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"dependency", &services.DependencyError{Op: "set flair", Err: errors.New("503")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := newTestController(&mockService{err: tt.err})
			req := httptest.NewRequest(http.MethodPost, "/api/flair/text",
				strings.NewReader(`{"ptrades":"a","svex":"b"}`))
			rr := httptest.NewRecorder()
			ac.SetText(rr, asUser(req, "alice", false))

			assert.Equal(t, tt.status, rr.Code)
			assert.NotEmpty(t, decodeError(t, rr))
		})
	}
}

func TestWriteError_DependencyHidesCause(t *testing.T) {
	ac := newTestController(&mockService{err: &services.DependencyError{Op: "set flair", Err: errors.New("token secret-123 rejected")}})

	req := httptest.NewRequest(http.MethodPost, "/api/flair/text", strings.NewReader(`{"ptrades":"a","svex":"b"}`))
	rr := httptest.NewRecorder()
	ac.SetText(rr, asUser(req, "alice", false))

	assert.Equal(t, "upstream failure: set flair", decodeError(t, rr))
}

// --- SetText ---

func TestSetText_OmitsDetection(t *testing.T) {
	svc := &mockService{}
	ac := newTestController(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/flair/text",
		strings.NewReader(`{"ptrades":"1288-4901-8881 || Pikachu","svex":"1288-4901-8881 || Pikachu || 1234"}`))
	req.RemoteAddr = "198.51.100.4:5123"
	rr := httptest.NewRecorder()
	ac.SetText(rr, asUser(req, "alice", false))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "198.51.100.4", svc.lastCaller.IP)
	assert.NotContains(t, rr.Body.String(), "secret")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["user"])
	assert.Contains(t, resp, "ptrades")
	assert.Contains(t, resp, "loggedFriendCodes")
}

// --- moderator endpoints ---

func TestApproveApp_WithBadge(t *testing.T) {
	svc := &mockService{}
	ac := newTestController(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/apps/app-7/approve", strings.NewReader(`{"badge":"involvement"}`))
	rr := httptest.NewRecorder()
	ac.ApproveApp(rr, withID(asUser(req, "moddy", true), "app-7"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"app-7", "involvement"}, svc.lastArgs)
	assert.True(t, svc.lastCaller.IsMod)
}

func TestApproveApp_EmptyBody(t *testing.T) {
	svc := &mockService{}
	ac := newTestController(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/apps/app-7/approve", nil)
	rr := httptest.NewRecorder()
	ac.ApproveApp(rr, withID(asUser(req, "moddy", true), "app-7"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"app-7", ""}, svc.lastArgs)
}

func TestDenyApp_NotFound(t *testing.T) {
	ac := newTestController(&mockService{err: services.ErrNotFound})

	req := httptest.NewRequest(http.MethodPost, "/api/apps/x/deny", nil)
	rr := httptest.NewRecorder()
	ac.DenyApp(rr, withID(asUser(req, "moddy", true), "x"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetApps(t *testing.T) {
	svc := &mockService{apps: []models.Application{{ID: "a"}, {ID: "b"}}}
	ac := newTestController(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/apps", nil)
	rr := httptest.NewRecorder()
	ac.GetApps(rr, asUser(req, "moddy", true))

	assert.Equal(t, http.StatusOK, rr.Code)
	var apps []models.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apps))
	assert.Len(t, apps, 2)
}

// --- claims ---

func TestRefreshClaim_IssuesToken(t *testing.T) {
	svc := &mockService{claim: &services.Claim{User: "alice", Flairs: []string{"greatball"}}}
	auth := testAuth()
	ac := NewApiController(&mockLogger{}, svc, &mockFlairStore{}, newMockCache(), auth)

	req := httptest.NewRequest(http.MethodPost, "/api/claim/refresh", nil)
	rr := httptest.NewRecorder()
	ac.RefreshClaim(rr, asUser(req, "alice", false))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Token string         `json:"token"`
		Claim services.Claim `json:"claim"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"greatball"}, resp.Claim.Flairs)

	claims, err := auth.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, []string{"greatball"}, claims.Flairs)
}

// --- ListFlairs ---

func TestListFlairs_CachesResponse(t *testing.T) {
	store := &mockFlairStore{defs: []models.FlairDefinition{{Name: "pokeball", Subject: "pokemontrades"}}}
	cache := newMockCache()
	ac := NewApiController(&mockLogger{}, &mockService{}, store, cache, testAuth())

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/api/flairs", nil)
		rr := httptest.NewRecorder()
		ac.ListFlairs(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), `"pokeball"`)
	}
	assert.Equal(t, 1, store.calls)
	assert.Contains(t, cache.data, flairsCacheKey)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "192.0.2.1", clientIP(req), "forwarded headers are not trusted here")

	req.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
