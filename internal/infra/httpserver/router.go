package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	appassess "github.com/oraig/impactguard/internal/application/assessments"
	appinsights "github.com/oraig/impactguard/internal/application/insights"
	appreports "github.com/oraig/impactguard/internal/application/reports"
	domain "github.com/oraig/impactguard/internal/domain/assessments"
	domai "github.com/oraig/impactguard/internal/domain/ai"
	"github.com/oraig/impactguard/internal/domain/bias"
	"github.com/oraig/impactguard/internal/domain/citations"
	"github.com/oraig/impactguard/internal/infra/crossref"
	"github.com/oraig/impactguard/internal/middleware"
	"github.com/oraig/impactguard/internal/session"
	"github.com/oraig/impactguard/internal/theme"
	"github.com/oraig/impactguard/internal/ui"
)

var (
	errNotFound  = errors.New("not found")
	errNoSession = errors.New("no session in request context")
	errRunBusy   = errors.New("an assessment is already running for this session")
	errNoHandle  = errors.New("no assessment has been submitted for this session")
)

// badRequestError marks client-input failures so wrap can answer 400 instead
// of 500.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return badRequestError{err: fmt.Errorf(format, args...)}
}

type Router struct {
	executor  *appassess.Executor
	reports   *appreports.Service
	insights  *appinsights.Service
	citations *crossref.Client
	bias      *bias.Tracker

	mu      sync.Mutex
	handles map[string]*appassess.Handle // latest submission per session
}

func NewRouter(executor *appassess.Executor, reportsSvc *appreports.Service, insightsSvc *appinsights.Service, citationsClient *crossref.Client, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{
		executor:  executor,
		reports:   reportsSvc,
		insights:  insightsSvc,
		citations: citationsClient,
		bias:      bias.NewTracker(),
		handles:   make(map[string]*appassess.Handle),
	}
	mux := chi.NewRouter()

	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Get("/", r.wrap(r.handleIndex))
	mux.Get("/pages/{name}", r.wrap(r.handlePage))

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/session", r.wrap(r.handleSession))
		rt.Post("/session/errors/clear", r.wrap(r.handleClearError))
		rt.Post("/navigate", r.wrap(r.handleNavigate))
		rt.Post("/theme/toggle", r.wrap(r.handleThemeToggle))
		rt.Post("/settings/strictness", r.wrap(r.handleStrictness))

		rt.Get("/vectors", r.wrap(r.handleVectors))

		rt.Post("/targets", r.wrap(r.handleAddTarget))
		rt.Get("/targets", r.wrap(r.handleListTargets))
		rt.Delete("/targets/{name}", r.wrap(r.handleRemoveTarget))

		rt.Post("/assessments", r.wrap(r.handleSubmitAssessment))
		rt.Get("/assessments/progress", r.wrap(r.handleProgress))
		rt.Post("/assessments/cancel", r.wrap(r.handleCancel))
		rt.Get("/assessments/result", r.wrap(r.handleResult))

		rt.Post("/reports", r.wrap(r.handleBuildReport))
		rt.Get("/reports", r.wrap(r.handleListReports))

		rt.Get("/citations/search", r.wrap(r.handleCitationSearch))
		rt.Get("/citations/validate", r.wrap(r.handleCitationValidate))
		rt.Post("/citations/format", r.wrap(r.handleCitationFormat))

		rt.Post("/insights", r.wrap(r.handleInsight))
		rt.Post("/insights/batch", r.wrap(r.handleInsightBatch))
		rt.Get("/insights", r.wrap(r.handleListInsights))

		rt.Post("/bias/analyze", r.wrap(r.handleBiasAnalyze))
		rt.Get("/bias/results", r.wrap(r.handleBiasResults))

		rt.Post("/carbon/initialize", r.wrap(r.handleCarbonInitialize))
		rt.Post("/carbon/start", r.wrap(r.handleCarbonStart))
		rt.Post("/carbon/stop", r.wrap(r.handleCarbonStop))
		rt.Get("/carbon/report", r.wrap(r.handleCarbonReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var badReq badRequestError
			switch {
			case errors.Is(err, errNotFound), errors.Is(err, errNoHandle):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, errRunBusy):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			case errors.Is(err, domai.ErrNotConfigured):
				http.Error(w, "ai insights are not configured", http.StatusServiceUnavailable)
			case errors.As(err, &badReq):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func (r *Router) state(req *http.Request) (*session.State, error) {
	st := middleware.GetSessionFromContext(req.Context())
	if st == nil {
		return nil, errNoSession
	}
	return st, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// ---- pages ----

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	r.executor.Cleanup(st)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write([]byte(ui.RenderDocument(st, st.Page())))
	return err
}

// GET /pages/{name}
func (r *Router) handlePage(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	name, err := url.PathUnescape(chi.URLParam(req, "name"))
	if err != nil {
		return badRequest("invalid page name: %v", err)
	}
	name = middleware.SanitizeString(name)
	if ui.KnownPage(name) {
		st.SetPage(name)
	}
	r.executor.Cleanup(st)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write([]byte(ui.RenderDocument(st, st.Page())))
	return err
}

// ---- session ----

// GET /v1/session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	r.executor.Cleanup(st)
	return writeJSON(w, http.StatusOK, st.Snapshot())
}

// POST /v1/session/errors/clear
func (r *Router) handleClearError(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	st.ClearError()
	return writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

// POST /v1/navigate
// Body: {"page": "Dashboard"}
func (r *Router) handleNavigate(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		Page string `json:"page"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	body.Page = middleware.SanitizeString(body.Page)
	if err := middleware.ValidatePage(body.Page); err != nil {
		return badRequest("%v", err)
	}
	st.SetPage(body.Page)
	return writeJSON(w, http.StatusOK, map[string]any{"current_page": body.Page})
}

// POST /v1/theme/toggle
func (r *Router) handleThemeToggle(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	next := theme.Toggle(st.Theme())
	st.SetTheme(next)
	return writeJSON(w, http.StatusOK, map[string]any{"current_theme": next})
}

// POST /v1/settings/strictness
// Body: {"level": 2}
func (r *Router) handleStrictness(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	level := middleware.ValidateStrictness(body.Level)
	st.SetStrictness(level)
	return writeJSON(w, http.StatusOK, map[string]any{"validation_strictness": level})
}

// ---- test vectors ----

// GET /v1/vectors
func (r *Router) handleVectors(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{
		"vectors": domain.Catalog(),
		"default": domain.DefaultVectors(),
	})
}

// ---- targets ----

// POST /v1/targets
// Body: {"name": "...", "endpoint": "...", "description": "..."}
func (r *Router) handleAddTarget(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		Name        string `json:"name"`
		Endpoint    string `json:"endpoint"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	body.Name = middleware.SanitizeString(body.Name)
	if err := middleware.ValidateTargetName(body.Name); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidateEndpoint(body.Endpoint); err != nil {
		return badRequest("%v", err)
	}
	if _, exists := st.Target(body.Name); exists {
		return badRequest("target %q already exists", body.Name)
	}

	t := domain.Target{
		Name:        body.Name,
		Endpoint:    body.Endpoint,
		Description: middleware.SanitizeString(body.Description),
		AddedAt:     time.Now(),
	}
	st.AddTarget(t)
	return writeJSON(w, http.StatusCreated, t)
}

// GET /v1/targets
func (r *Router) handleListTargets(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"targets": st.Targets()})
}

// DELETE /v1/targets/{name}
func (r *Router) handleRemoveTarget(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	name, err := url.PathUnescape(chi.URLParam(req, "name"))
	if err != nil {
		return badRequest("invalid target name: %v", err)
	}
	if !st.RemoveTarget(name) {
		return fmt.Errorf("target %q: %w", name, errNotFound)
	}
	return writeJSON(w, http.StatusOK, map[string]any{"status": "removed", "name": name})
}

// ---- assessments ----

// POST /v1/assessments
// Body: {"target": "...", "vector_ids": ["sql_injection"], "duration_seconds": 30}
func (r *Router) handleSubmitAssessment(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		Target          string   `json:"target"`
		VectorIDs       []string `json:"vector_ids"`
		DurationSeconds int      `json:"duration_seconds"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}

	target, ok := st.Target(middleware.SanitizeString(body.Target))
	if !ok {
		return fmt.Errorf("target %q: %w", body.Target, errNotFound)
	}
	if st.Running() {
		return errRunBusy
	}

	vectors := domain.DefaultVectors()
	if len(body.VectorIDs) > 0 {
		vectors = domain.VectorsByID(body.VectorIDs)
		if len(vectors) == 0 {
			return badRequest("no known test vectors in %v", body.VectorIDs)
		}
	}
	duration := middleware.ValidateDuration(time.Duration(body.DurationSeconds) * time.Second)

	h := r.executor.Submit(st, target, vectors, duration)
	r.mu.Lock()
	r.handles[st.ID] = h
	r.mu.Unlock()

	return writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "queued",
		"id":       h.ID,
		"target":   target.Name,
		"vectors":  len(vectors),
		"queuedAt": time.Now(),
	})
}

func (r *Router) latestHandle(st *session.State) (*appassess.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[st.ID]
	if !ok {
		return nil, errNoHandle
	}
	return h, nil
}

// GET /v1/assessments/progress
func (r *Router) handleProgress(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	active := r.executor.Cleanup(st)
	out := map[string]any{
		"running":               st.Running(),
		"progress":              st.Progress(),
		"vulnerabilities_found": st.VulnerabilitiesFound(),
		"active_threads":        active,
	}
	if h, err := r.latestHandle(st); err == nil {
		out["id"] = h.ID
		out["state"] = h.State()
	}
	return writeJSON(w, http.StatusOK, out)
}

// POST /v1/assessments/cancel
func (r *Router) handleCancel(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	h, err := r.latestHandle(st)
	if err != nil {
		return err
	}
	h.Cancel()
	return writeJSON(w, http.StatusOK, map[string]any{"status": "cancel requested", "id": h.ID})
}

// GET /v1/assessments/result
func (r *Router) handleResult(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	res := st.TestResults()
	if res == nil {
		return fmt.Errorf("assessment result: %w", errNotFound)
	}
	return writeJSON(w, http.StatusOK, res)
}

// ---- reports ----

// POST /v1/reports
// Body: {"title": "...", "include_recommendations": true}
func (r *Router) handleBuildReport(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		Title                  string `json:"title"`
		IncludeRecommendations *bool  `json:"include_recommendations"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	include := true
	if body.IncludeRecommendations != nil {
		include = *body.IncludeRecommendations
	}
	rep := r.reports.Build(req.Context(), st, middleware.SanitizeString(body.Title), include)
	return writeJSON(w, http.StatusCreated, rep)
}

// GET /v1/reports?limit=20
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)
	reps := st.Reports()
	if len(reps) > limit {
		reps = reps[len(reps)-limit:]
	}
	return writeJSON(w, http.StatusOK, map[string]any{"reports": reps})
}

// ---- citations ----

// GET /v1/citations/search?query=
func (r *Router) handleCitationSearch(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	query := middleware.SanitizeString(req.URL.Query().Get("query"))
	if query == "" {
		return badRequest("query is required")
	}
	articles, err := r.citations.Search(req.Context(), query)
	if err != nil {
		return err
	}

	strictness := st.Strictness()
	type hit struct {
		Article  citations.Article `json:"article"`
		Citation string            `json:"citation"`
		Complete bool              `json:"metadata_complete"`
	}
	hits := make([]hit, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		hits = append(hits, hit{
			Article:  *a,
			Citation: citations.FormatCitation(a),
			Complete: citations.IsMetadataComplete(a, strictness),
		})
	}
	return writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": hits})
}

// GET /v1/citations/validate?doi=  or  ?url=
func (r *Router) handleCitationValidate(w http.ResponseWriter, req *http.Request) error {
	doi := req.URL.Query().Get("doi")
	rawURL := req.URL.Query().Get("url")
	switch {
	case doi != "":
		return writeJSON(w, http.StatusOK, map[string]any{
			"doi":          doi,
			"valid_format": citations.IsValidDOIFormat(doi),
			"resolves":     r.citations.ValidateDOI(req.Context(), doi),
		})
	case rawURL != "":
		return writeJSON(w, http.StatusOK, map[string]any{
			"url":      rawURL,
			"resolves": r.citations.ValidateURL(req.Context(), rawURL),
		})
	default:
		return badRequest("doi or url parameter is required")
	}
}

// POST /v1/citations/format
// Body: a CrossRef article record.
func (r *Router) handleCitationFormat(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var article citations.Article
	if err := json.NewDecoder(req.Body).Decode(&article); err != nil {
		return badRequest("decode article: %v", err)
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"citation":          citations.FormatCitation(&article),
		"metadata_complete": citations.IsMetadataComplete(&article, st.Strictness()),
	})
}

// ---- insights ----

// POST /v1/insights
func (r *Router) handleInsight(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body domai.InsightRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	if body.Prompt == "" || body.Response == "" {
		return badRequest("prompt and response are required")
	}
	insight, err := r.insights.Generate(req.Context(), st, body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, insight)
}

// POST /v1/insights/batch?format=csv|json|yaml|xml
// Body: CSV (default) with User, Category, Prompt, Response columns, or the
// same records in JSON, YAML or XML.
func (r *Router) handleInsightBatch(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	reqs, err := appinsights.ParseBatch(req.Body, req.URL.Query().Get("format"))
	if err != nil {
		return badRequest("%v", err)
	}
	if len(reqs) == 0 {
		return badRequest("csv contains no rows")
	}
	generated, err := r.insights.GenerateBatch(req.Context(), st, reqs)
	if err != nil {
		// partial results still matter; report how far the batch got
		return writeJSON(w, http.StatusMultiStatus, map[string]any{
			"insights": generated,
			"error":    err.Error(),
		})
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"insights": generated})
}

// GET /v1/insights
func (r *Router) handleListInsights(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"insights": st.Insights()})
}

// ---- bias ----

// POST /v1/bias/analyze
// Body: {"dataset_name": "...", "records": [...], "protected_features": [...], "target_column": "..."}
func (r *Router) handleBiasAnalyze(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		DatasetName       string        `json:"dataset_name"`
		Records           []bias.Record `json:"records"`
		ProtectedFeatures []string      `json:"protected_features"`
		TargetColumn      string        `json:"target_column"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	if body.DatasetName == "" {
		body.DatasetName = "uploaded"
	}
	if len(body.ProtectedFeatures) == 0 || body.TargetColumn == "" {
		return badRequest("protected_features and target_column are required")
	}

	metrics, err := r.bias.AnalyzeBias(body.Records, body.ProtectedFeatures, body.TargetColumn, body.DatasetName)
	if err != nil {
		return badRequest("%v", err)
	}
	st.SetBiasResults(metrics)
	return writeJSON(w, http.StatusOK, map[string]any{
		"dataset":      body.DatasetName,
		"bias_metrics": metrics,
	})
}

// GET /v1/bias/results?dataset=
func (r *Router) handleBiasResults(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	dataset := req.URL.Query().Get("dataset")
	return writeJSON(w, http.StatusOK, map[string]any{
		"session_metrics": st.BiasResults(),
		"datasets":        r.bias.Results(dataset),
	})
}

// ---- carbon ----

// POST /v1/carbon/initialize
// Body: {"project_name": "..."}
func (r *Router) handleCarbonInitialize(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	var body struct {
		ProjectName string `json:"project_name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decode body: %v", err)
	}
	if err := st.Carbon().Initialize(middleware.SanitizeString(body.ProjectName)); err != nil {
		return badRequest("%v", err)
	}
	return writeJSON(w, http.StatusOK, map[string]any{"status": "initialized", "project": body.ProjectName})
}

// POST /v1/carbon/start
func (r *Router) handleCarbonStart(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	if err := st.Carbon().Start(); err != nil {
		return badRequest("%v", err)
	}
	return writeJSON(w, http.StatusOK, map[string]any{"status": "tracking"})
}

// POST /v1/carbon/stop
func (r *Router) handleCarbonStop(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	emissions := st.Carbon().Stop()
	return writeJSON(w, http.StatusOK, map[string]any{
		"status":       "stopped",
		"emissions_kg": emissions,
	})
}

// GET /v1/carbon/report
func (r *Router) handleCarbonReport(w http.ResponseWriter, req *http.Request) error {
	st, err := r.state(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st.Carbon().GenerateReport())
}
