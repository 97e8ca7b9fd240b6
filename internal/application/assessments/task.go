package assessments

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/oraig/impactguard/internal/application"
	domain "github.com/oraig/impactguard/internal/domain/assessments"
	"github.com/oraig/impactguard/internal/session"
)

const (
	// totalTicks quantizes the requested duration so progress granularity
	// and cancellation latency stay constant regardless of duration.
	totalTicks = 100

	// findProbability is the per-tick chance of synthesizing a finding.
	findProbability = 0.2

	// testsPerVector is the fixed multiplier reported as total_tests.
	testsPerVector = 10
)

// Task simulates one assessment run against a target. It writes progress and
// the vulnerability counter into session state after every tick so the UI can
// poll them live, and hands off the finished result object only at the end.
type Task struct {
	Target   domain.Target
	Vectors  []domain.TestVector
	Duration time.Duration
	State    *session.State
	Token    *Token
	Clock    application.Clock
	Sleep    application.Sleeper

	taskState atomic.Value
	rand      *rand.Rand
}

func NewTask(state *session.State, target domain.Target, vectors []domain.TestVector, duration time.Duration) *Task {
	// dedicated random source to avoid contention between workers
	t := &Task{
		Target:   target,
		Vectors:  vectors,
		Duration: duration,
		State:    state,
		Token:    NewToken(),
		Clock:    application.SystemClock{},
		Sleep:    application.SystemSleeper,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	t.taskState.Store(domain.StateIdle)
	return t
}

// TaskState returns the current lifecycle state.
func (t *Task) TaskState() domain.TaskState {
	return t.taskState.Load().(domain.TaskState)
}

func (t *Task) setState(s domain.TaskState) {
	t.taskState.Store(s)
}

// Run executes the tick loop. It never panics outward: any failure inside the
// loop becomes an error-shaped result and the running flag is always cleared
// so the UI cannot show a stuck indicator.
func (t *Task) Run() (result *domain.Result) {
	defer t.State.SetRunning(false)
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			slog.Error("assessment task failed", "target", t.Target.Name, "err", msg)
			t.setState(domain.StateFailed)
			t.State.DisplayError("Test execution failed: " + msg)
			result = &domain.Result{
				Error:        true,
				ErrorMessage: msg,
				Timestamp:    t.Clock.Now(),
			}
			t.State.SetTestResults(result)
		}
	}()

	t.State.ResetProgressCounters()
	t.State.SetRunning(true)
	t.setState(domain.StateRunning)

	slog.Info("starting assessment", "target", t.Target.Name, "vectors", len(t.Vectors), "duration", t.Duration)

	res := &domain.Result{
		Vulnerabilities: []domain.Vulnerability{},
		Target:          t.Target.Name,
	}
	stepSleep := t.Duration / totalTicks

	cancelled := false
	for i := 0; i < totalTicks; i++ {
		if t.Token.IsCancelled() {
			slog.Info("assessment cancelled", "target", t.Target.Name, "tick", i)
			cancelled = true
			break
		}

		t.Sleep(stepSleep)
		t.State.SetProgress(float64(i+1) / totalTicks)

		if t.rand.Float64() < findProbability {
			vector := t.Vectors[t.rand.Intn(len(t.Vectors))]
			vuln := domain.Vulnerability{
				ID:         fmt.Sprintf("VULN-%d", len(res.Vulnerabilities)+1),
				TestVector: vector.ID,
				TestName:   vector.Name,
				Severity:   vector.Severity,
				Details:    fmt.Sprintf("Mock vulnerability found in %s using %s test vector.", t.Target.Name, vector.Name),
				Timestamp:  t.Clock.Now(),
			}
			res.Vulnerabilities = append(res.Vulnerabilities, vuln)

			t.State.IncVulnerabilitiesFound()
			res.Summary.VulnerabilitiesFound++
			res.Summary.RiskScore += domain.Weight(vector.Severity)

			slog.Info("found vulnerability", "id", vuln.ID, "severity", vuln.Severity)
		}
	}

	res.Timestamp = t.Clock.Now()
	if cancelled {
		t.setState(domain.StateCancelled)
	} else {
		res.Summary.TotalTests = len(t.Vectors) * testsPerVector
		t.setState(domain.StateCompleted)
		slog.Info("assessment completed", "target", t.Target.Name, "vulnerabilities", res.Summary.VulnerabilitiesFound)
	}

	t.State.SetTestResults(res)
	return res
}
