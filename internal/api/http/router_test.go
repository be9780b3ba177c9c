package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/production-booking/internal/api/http/handlers"
	"github.com/spec-kit/production-booking/internal/auth"
	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/observability"
	"github.com/spec-kit/production-booking/internal/repository"
	"github.com/spec-kit/production-booking/internal/service"
)

type memoryProductions struct {
	mu    sync.Mutex
	items map[string]domain.Production
}

func (m *memoryProductions) Create(_ context.Context, p *domain.Production, _ *domain.ProductionHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = fmt.Sprintf("prod-%d", len(m.items)+1)
	m.items[p.ID] = *p
	return nil
}

func (m *memoryProductions) Update(_ context.Context, p *domain.Production, expected domain.ProductionStatus, _ ...*domain.ProductionHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != expected {
		return repository.ErrStatusChanged
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memoryProductions) GetByID(_ context.Context, id string) (*domain.Production, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (m *memoryProductions) ListWithFilter(_ context.Context, _ repository.ProductionFilter) ([]domain.Production, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Production, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

type memoryHistory struct{}

func (memoryHistory) ListByProduction(context.Context, string) ([]domain.ProductionHistory, error) {
	return nil, nil
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	productions := &memoryProductions{items: map[string]domain.Production{}}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	dispatcher := events.NewInMemoryDispatcher()
	clock := func() time.Time { return time.Date(2024, time.May, 14, 9, 0, 0, 0, time.UTC) }

	availability := service.NewAvailabilityService(productions, metrics)
	productionService := service.NewProductionService(service.ProductionDependencies{
		ProductionRepo: productions,
		HistoryRepo:    memoryHistory{},
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         zap.NewNop(),
		Clock:          clock,
		Location:       time.UTC,
	})
	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		ProductionRepo: productions,
		Availability:   availability,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         zap.NewNop(),
		Clock:          clock,
	})

	tokens := auth.NewTokenManager("test-secret", 15)
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("production-booking", "test"),
		Productions:    handlers.NewProductionsHandler(productionService, assignment, time.UTC),
		Staff:          handlers.NewStaffHandler(service.NewStaffService(nil), availability, productionService, time.UTC),
		Issues:         handlers.NewIssuesHandler(service.NewIssueService(service.IssueDependencies{ProductionRepo: productions})),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, actor *domain.Actor, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		token, _, err := s.tokens.GenerateToken(*actor)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp.StatusCode, payload
}

func errorCode(payload map[string]any) string {
	body, _ := payload["error"].(map[string]any)
	code, _ := body["code"].(string)
	return code
}

var (
	officerActor  = domain.Actor{ID: "officer-1", Capability: domain.CapabilityBookingOfficer}
	producerActor = domain.Actor{ID: "producer-1", Capability: domain.CapabilityProducer}
	crewActor     = domain.Actor{ID: "crew-1", Capability: domain.CapabilityCrew}
)

const createBody = `{"name":"Evening News","date":"2024-05-14","start_time":"18:00","end_time":"19:00","venue":"Studio 2"}`

func TestRoutes_HealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, payload := s.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", payload["status"])

	status, payload = s.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", payload["status"])

	status, payload = s.do(t, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(payload))
}

func TestRoutes_Authentication(t *testing.T) {
	s := newTestServer(t)

	status, payload := s.do(t, http.MethodGet, "/api/v1/productions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(payload))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/productions", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, _ = s.do(t, http.MethodPost, "/api/v1/productions", &crewActor, createBody)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRoutes_ProductionLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, payload := s.do(t, http.MethodPost, "/api/v1/productions", &producerActor, createBody)
	require.Equal(t, http.StatusCreated, status, payload)
	data := payload["data"].(map[string]any)
	id := data["id"].(string)
	assert.Equal(t, "requested", data["status"])
	assert.Equal(t, "2024-05-14", data["date"])
	assert.Equal(t, producerActor.ID, data["requested_by_id"])

	status, payload = s.do(t, http.MethodGet, "/api/v1/productions/"+id, &crewActor, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Evening News", payload["data"].(map[string]any)["name"])

	status, payload = s.do(t, http.MethodPost, "/api/v1/productions/"+id+"/complete", &officerActor, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(payload))

	status, _ = s.do(t, http.MethodPost, "/api/v1/productions/"+id+"/cancel", &producerActor, `{"reason":"budget"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, payload = s.do(t, http.MethodPost, "/api/v1/productions/"+id+"/cancel", &officerActor, `{"reason":"budget"}`)
	require.Equal(t, http.StatusOK, status)
	data = payload["data"].(map[string]any)
	assert.Equal(t, "cancelled", data["status"])
	assert.Equal(t, "budget", data["cancellation_reason"])

	status, payload = s.do(t, http.MethodGet, "/api/v1/productions/missing", &crewActor, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(payload))
}

func TestRoutes_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"date":"2024-05-14","start_time":"18:00","end_time":"19:00"}`, "name"},
		{"bad date", `{"name":"x","date":"14/05/2024","start_time":"18:00","end_time":"19:00"}`, "date"},
		{"outside broadcast needs location", `{"name":"x","date":"2024-05-14","start_time":"18:00","end_time":"19:00","outside_broadcast":true}`, "location"},
		{"end before start", `{"name":"x","date":"2024-05-14","start_time":"19:00","end_time":"18:00"}`, "field"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := s.do(t, http.MethodPost, "/api/v1/productions", &officerActor, tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(payload))
			details, _ := payload["error"].(map[string]any)["details"].(map[string]any)
			assert.Contains(t, details, tc.field)
		})
	}
}

func TestRoutes_ListQueryValidation(t *testing.T) {
	s := newTestServer(t)

	status, payload := s.do(t, http.MethodGet, "/api/v1/productions?limit=500", &crewActor, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(payload))

	status, payload = s.do(t, http.MethodGet, "/api/v1/productions?status=requested", &crewActor, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, payload["data"])
}
