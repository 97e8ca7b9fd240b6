package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraig/impactguard/internal/application"
	appassess "github.com/oraig/impactguard/internal/application/assessments"
	appinsights "github.com/oraig/impactguard/internal/application/insights"
	appreports "github.com/oraig/impactguard/internal/application/reports"
	"github.com/oraig/impactguard/internal/infra/crossref"
	"github.com/oraig/impactguard/internal/middleware"
	"github.com/oraig/impactguard/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	executor := appassess.NewExecutor(2)
	t.Cleanup(executor.Shutdown)

	reportsSvc := &appreports.Service{Clock: application.SystemClock{}}
	insightsSvc := appinsights.NewService(nil)
	citationsClient := crossref.New()
	store := session.NewStore()

	mux := chi.NewRouter()
	mux.Use(middleware.SessionMiddleware(store))
	mux.Mount("/", NewRouter(executor, reportsSvc, insightsSvc, citationsClient, nil))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, sessionID string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			buf, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(buf)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func TestSessionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, snap := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sessionID := resp.Header.Get(middleware.SessionHeader)
	require.NotEmpty(t, sessionID)

	assert.Equal(t, "dark", snap["current_theme"])
	assert.Equal(t, "Dashboard", snap["current_page"])
	assert.EqualValues(t, 2, snap["validation_strictness"])
	assert.Equal(t, false, snap["running_test"])

	// the same header reuses the session
	resp2, _ := do(t, srv, http.MethodGet, "/v1/session", sessionID, nil)
	assert.Equal(t, sessionID, resp2.Header.Get(middleware.SessionHeader))
}

func TestTargetEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	t.Run("create", func(t *testing.T) {
		resp, created := do(t, srv, http.MethodPost, "/v1/targets", sid, map[string]any{
			"name":        "demo-model",
			"endpoint":    "https://api.example.com/v1",
			"description": "staging deployment",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "demo-model", created["name"])
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/targets", sid, map[string]any{"name": "demo-model"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid name rejected", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/targets", sid, map[string]any{"name": "<bad>"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodGet, "/v1/targets", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		targets, ok := body["targets"].([]any)
		require.True(t, ok)
		assert.Len(t, targets, 1)
	})

	t.Run("delete unknown is 404", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodDelete, "/v1/targets/ghost", sid, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodDelete, "/v1/targets/demo-model", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestNavigationAndTheme(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	t.Run("navigate to a known page", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/navigate", sid, map[string]any{"page": "Citation Tool"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Citation Tool", body["current_page"])
	})

	t.Run("unknown page is rejected", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/navigate", sid, map[string]any{"page": "Nope"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("theme toggles", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/theme/toggle", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "light", body["current_theme"])

		_, body = do(t, srv, http.MethodPost, "/v1/theme/toggle", sid, nil)
		assert.Equal(t, "dark", body["current_theme"])
	})
}

func TestAssessmentFlow(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	t.Run("unknown target is 404", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/assessments", sid, map[string]any{"target": "ghost"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("cancel without a submission is 404", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/assessments/cancel", sid, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("submit and poll to completion", func(t *testing.T) {
		do(t, srv, http.MethodPost, "/v1/targets", sid, map[string]any{"name": "demo-model"})

		resp, body := do(t, srv, http.MethodPost, "/v1/assessments", sid, map[string]any{
			"target":           "demo-model",
			"vector_ids":       []string{"sql_injection", "xss"},
			"duration_seconds": 1,
		})
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "queued", body["status"])
		assert.NotEmpty(t, body["id"])

		deadline := time.Now().Add(10 * time.Second)
		for {
			_, progress := do(t, srv, http.MethodGet, "/v1/assessments/progress", sid, nil)
			if progress["state"] == "completed" {
				break
			}
			require.True(t, time.Now().Before(deadline), "assessment did not complete")
			time.Sleep(50 * time.Millisecond)
		}

		resp, result := do(t, srv, http.MethodGet, "/v1/assessments/result", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		summary, ok := result["summary"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 20, summary["total_tests"])
	})

	t.Run("unknown vector ids are rejected", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/assessments", sid, map[string]any{
			"target":     "demo-model",
			"vector_ids": []string{"nonsense"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestVectorsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/v1/vectors", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	vectors, ok := body["vectors"].([]any)
	require.True(t, ok)
	assert.Len(t, vectors, 9)

	defaults, ok := body["default"].([]any)
	require.True(t, ok)
	assert.Len(t, defaults, 3)
}

func TestCarbonEndpoints(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	t.Run("start before initialize fails", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/carbon/start", sid, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("full tracking window", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/carbon/initialize", sid, map[string]any{"project_name": "impactguard"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = do(t, srv, http.MethodPost, "/v1/carbon/start", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := do(t, srv, http.MethodPost, "/v1/carbon/stop", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		emissions, ok := body["emissions_kg"].(float64)
		require.True(t, ok)
		assert.Greater(t, emissions, 0.0)

		resp, report := do(t, srv, http.MethodGet, "/v1/carbon/report", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, report["mitigation_strategies"])
	})
}

func TestBiasEndpoints(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	t.Run("analyze stores metrics on the session", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/bias/analyze", sid, map[string]any{
			"dataset_name":       "hiring",
			"protected_features": []string{"gender"},
			"target_column":      "hired",
			"records": []map[string]any{
				{"gender": "a", "hired": 1},
				{"gender": "b", "hired": 0},
			},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hiring", body["dataset"])

		resp, results := do(t, srv, http.MethodGet, "/v1/bias/results", sid, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		metrics, ok := results["session_metrics"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, metrics, "gender")
	})

	t.Run("missing parameters rejected", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/v1/bias/analyze", sid, map[string]any{"records": []map[string]any{}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	resp, rep := do(t, srv, http.MethodPost, "/v1/reports", sid, map[string]any{"title": "Q3 Review"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Q3 Review", rep["title"])
	assert.Contains(t, rep["id"], "REP-")

	resp, list := do(t, srv, http.MethodGet, "/v1/reports", sid, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reports, ok := list["reports"].([]any)
	require.True(t, ok)
	assert.Len(t, reports, 1)
}

func TestInsightsWithoutClient(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	r, _ := do(t, srv, http.MethodPost, "/v1/insights", sid, map[string]any{"prompt": "p", "response": "r"})
	assert.Equal(t, http.StatusServiceUnavailable, r.StatusCode)
}

func TestCitationFormatEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v1/session", "", nil)
	sid := resp.Header.Get(middleware.SessionHeader)

	article := `{"author":[{"family":"Smith","given":"John"}],"title":["A Paper"],"issued":{"date-parts":[[2020]]},"DOI":"10.1234/test"}`
	r, body := do(t, srv, http.MethodPost, "/v1/citations/format", sid, article)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	citation, _ := body["citation"].(string)
	assert.Contains(t, citation, "Smith, J.")
	assert.Contains(t, citation, "https://doi.org/10.1234/test")
	assert.Equal(t, true, body["metadata_complete"])
}

func TestCitationValidateFormatOnly(t *testing.T) {
	srv := newTestServer(t)

	// a malformed DOI short-circuits before any network resolution
	r, body := do(t, srv, http.MethodGet, "/v1/citations/validate?doi=not-a-doi", "", nil)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, false, body["valid_format"])
	assert.Equal(t, false, body["resolves"])
}

func TestPagesRenderHTML(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "ImpactGuard")
	assert.Contains(t, string(page), "Dashboard")
}
