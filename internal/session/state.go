package session

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/oraig/impactguard/internal/domain/ai"
	"github.com/oraig/impactguard/internal/domain/assessments"
	"github.com/oraig/impactguard/internal/domain/bias"
	"github.com/oraig/impactguard/internal/domain/carbon"
	"github.com/oraig/impactguard/internal/domain/reports"
)

const (
	defaultTheme      = "dark"
	defaultPage       = "Dashboard"
	defaultStrictness = 2
)

// TaskHandle is the minimal contract a tracked background task must satisfy
// so finished entries can be pruned each render cycle.
type TaskHandle interface {
	Finished() bool
}

// State is the per-session mutable record shared between the request handlers
// and at most one in-flight assessment task. The running flag, progress and
// vulnerability counter are the only cells written from a worker; they are
// plain scalar writes read by handlers for display.
type State struct {
	ID string

	mu            sync.RWMutex
	targets       []assessments.Target
	testResults   *assessments.Result
	currentTheme  string
	currentPage   string
	activeThreads []TaskHandle
	errorMessage  string
	biasResults   map[string]bias.FeatureMetrics
	// strictness 0 is a legal level, so set-ness is tracked separately
	strictness    int
	strictnessSet bool
	reports       []*reports.Report
	insights      []ai.Insight
	carbon        *carbon.Tracker

	running      atomic.Bool
	progressBits atomic.Uint64
	vulnsFound   atomic.Int64
}

func NewState(id string) *State {
	s := &State{ID: id}
	s.EnsureDefaults()
	return s
}

// EnsureDefaults populates every absent field with its default and leaves
// present values untouched, so calling it on every request cannot clobber
// in-flight data. It never panics; defaulting problems are logged and routed
// to the error-display channel instead of failing the render cycle.
func (s *State) EnsureDefaults() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session state initialization failed", "session", s.ID, "err", r)
			s.DisplayError(fmt.Sprintf("Failed to initialize application state: %v", r))
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targets == nil {
		s.targets = []assessments.Target{}
	}
	if s.currentTheme == "" {
		s.currentTheme = defaultTheme
	}
	if s.currentPage == "" {
		s.currentPage = defaultPage
	}
	if s.activeThreads == nil {
		s.activeThreads = []TaskHandle{}
	}
	if s.biasResults == nil {
		s.biasResults = map[string]bias.FeatureMetrics{}
	}
	if !s.strictnessSet {
		s.strictness = defaultStrictness
		s.strictnessSet = true
	}
	if s.reports == nil {
		s.reports = []*reports.Report{}
	}
	if s.insights == nil {
		s.insights = []ai.Insight{}
	}
	if s.carbon == nil {
		s.carbon = carbon.NewTracker()
	}
}

// ---- targets ----

func (s *State) AddTarget(t assessments.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, t)
}

func (s *State) Targets() []assessments.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]assessments.Target, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *State) Target(name string) (assessments.Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.targets {
		if t.Name == name {
			return t, true
		}
	}
	return assessments.Target{}, false
}

func (s *State) RemoveTarget(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.targets {
		if t.Name == name {
			s.targets = append(s.targets[:i], s.targets[i+1:]...)
			return true
		}
	}
	return false
}

// ---- assessment results and shared progress cells ----

func (s *State) SetTestResults(r *assessments.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testResults = r
}

func (s *State) TestResults() *assessments.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.testResults
}

func (s *State) SetRunning(v bool) { s.running.Store(v) }
func (s *State) Running() bool     { return s.running.Load() }

func (s *State) SetProgress(p float64) { s.progressBits.Store(math.Float64bits(p)) }
func (s *State) Progress() float64     { return math.Float64frombits(s.progressBits.Load()) }

func (s *State) IncVulnerabilitiesFound()     { s.vulnsFound.Add(1) }
func (s *State) VulnerabilitiesFound() int64  { return s.vulnsFound.Load() }
func (s *State) ResetProgressCounters() {
	s.progressBits.Store(0)
	s.vulnsFound.Store(0)
}

// ---- navigation and theme ----

func (s *State) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTheme
}

func (s *State) SetTheme(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTheme = name
}

func (s *State) Page() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

func (s *State) SetPage(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPage = name
}

// ---- thread tracking ----

func (s *State) AddThread(h TaskHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeThreads = append(s.activeThreads, h)
}

// PruneThreads removes finished handles and returns the number still active.
// Idempotent; safe to call on every render cycle.
func (s *State) PruneThreads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.activeThreads[:0]
	for _, h := range s.activeThreads {
		if !h.Finished() {
			kept = append(kept, h)
		}
	}
	s.activeThreads = kept
	return len(kept)
}

func (s *State) ActiveThreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activeThreads)
}

// ---- error display channel ----

func (s *State) DisplayError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessage = message
	slog.Error("ui error", "session", s.ID, "message", message)
}

func (s *State) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorMessage
}

func (s *State) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessage = ""
}

// ---- bias, reports, insights, carbon ----

func (s *State) SetBiasResults(m map[string]bias.FeatureMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.biasResults = m
}

func (s *State) BiasResults() map[string]bias.FeatureMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bias.FeatureMetrics, len(s.biasResults))
	for k, v := range s.biasResults {
		out[k] = v
	}
	return out
}

func (s *State) Strictness() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strictness
}

func (s *State) SetStrictness(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strictness = v
	s.strictnessSet = true
}

func (s *State) AddReport(r *reports.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
}

func (s *State) Reports() []*reports.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*reports.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *State) AddInsight(i ai.Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append(s.insights, i)
}

func (s *State) Insights() []ai.Insight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ai.Insight, len(s.insights))
	copy(out, s.insights)
	return out
}

func (s *State) Carbon() *carbon.Tracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carbon
}

// Snapshot renders the whole session as the key set the dashboard polls.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var testResults any = map[string]any{}
	if s.testResults != nil {
		testResults = s.testResults
	}
	var errorMessage any
	if s.errorMessage != "" {
		errorMessage = s.errorMessage
	}
	return map[string]any{
		"targets":                s.targets,
		"test_results":           testResults,
		"running_test":           s.running.Load(),
		"progress":               math.Float64frombits(s.progressBits.Load()),
		"vulnerabilities_found":  s.vulnsFound.Load(),
		"current_theme":          s.currentTheme,
		"current_page":           s.currentPage,
		"active_threads":         len(s.activeThreads),
		"error_message":          errorMessage,
		"bias_results":           s.biasResults,
		"carbon_tracking_active": s.carbon != nil && s.carbon.IsTracking(),
		"carbon_measurements":    s.carbonMeasurements(),
		"validation_strictness":  s.strictness,
		"reports":                s.reports,
		"insights":               s.insights,
	}
}

func (s *State) carbonMeasurements() []float64 {
	if s.carbon == nil {
		return []float64{}
	}
	return s.carbon.Measurements()
}
