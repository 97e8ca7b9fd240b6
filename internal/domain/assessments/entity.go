package assessments

import (
	"time"
)

// TaskState enum for the assessment lifecycle
type TaskState string

const (
	StateIdle      TaskState = "idle"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateCancelled TaskState = "cancelled"
	StateFailed    TaskState = "failed"
)

// Terminal reports whether no further progress writes may happen.
func (s TaskState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Severity enum
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityWeights is the risk contribution of a single finding.
var severityWeights = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 5,
}

// Weight returns the risk weight for a severity, 1 for unknown values.
func Weight(s Severity) int {
	if w, ok := severityWeights[s]; ok {
		return w
	}
	return 1
}

// Target is a user-declared AI endpoint description to simulate testing against.
type Target struct {
	Name        string    `json:"name"`
	Endpoint    string    `json:"endpoint,omitempty"`
	Description string    `json:"description,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// TestVector is a static catalog entry describing one simulated probe.
type TestVector struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
}

// Vulnerability is created only by a running assessment task and never
// mutated afterwards. IDs are scoped to one result set, not globally unique.
type Vulnerability struct {
	ID         string    `json:"id"`
	TestVector string    `json:"test_vector"`
	TestName   string    `json:"test_name"`
	Severity   Severity  `json:"severity"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary aggregates one run.
type Summary struct {
	TotalTests           int `json:"total_tests"`
	VulnerabilitiesFound int `json:"vulnerabilities_found"`
	RiskScore            int `json:"risk_score"`
}

// Result is the outcome of one assessment run, completed or aborted.
// Error results carry Error/ErrorMessage instead of a populated summary.
type Result struct {
	Summary         Summary         `json:"summary"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Target          string          `json:"target,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	Error           bool            `json:"error,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
}
