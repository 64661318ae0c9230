package httptransport_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govseal/internal/assessment/handler"
	"govseal/internal/assessment/service"
	"govseal/internal/assessment/store"
	"govseal/internal/catalog"
	"govseal/internal/jwttoken"
	"govseal/internal/platform/config"
	httptransport "govseal/internal/transport/http"
	"govseal/pkg/domain"
)

const routerCatalog = `
cycle_year: 2026
areas:
  - id: safety
    title: Peace and Order
    policy:
      kind: all_pass
    indicators:
      - id: safety.1
        title: Peacekeeping body organized
        rule:
          required_core: 1
        fields:
          - id: organized
            kind: select
            label: Is the body organized?
            required: true
            options: ["yes", "no"]
        checklist:
          - id: safety.1.a
            label: Body organized
            field: organized
            core: true
`

func newRouter(t *testing.T) (http.Handler, *jwttoken.Service) {
	t.Helper()
	cat, err := catalog.Load([]byte(routerCatalog))
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	svc := service.New(store.NewInMemory(), cat,
		config.WorkflowConfig{FinalReviewTier: 2, ReworkCommentMinLen: 20},
		service.WithLogger(log),
	)
	tokens := jwttoken.NewService("router-test-key", "govseal", "govseal-portal")
	router := httptransport.NewRouter(
		handler.New(svc, log),
		jwttoken.NewActorValidator(tokens),
		nil,
		log,
	)
	return router, tokens
}

func TestHealthzIsOpen(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsIsOpen(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssessmentRoutesRequireToken(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assessments", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedRequestFlows(t *testing.T) {
	router, tokens := newRouter(t)

	actor := domain.Actor{Subject: "party-user", Role: domain.RoleSubmitter, Party: domain.NewPartyID()}
	token, err := tokens.GenerateToken(actor, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/assessments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "DRAFT", created.Status)
}

func TestContentTypeEnforced(t *testing.T) {
	router, tokens := newRouter(t)

	token, err := tokens.GenerateToken(domain.Actor{
		Subject: "party-user", Role: domain.RoleSubmitter, Party: domain.NewPartyID(),
	}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/assessments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
