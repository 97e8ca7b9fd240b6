package assessments

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oraig/impactguard/internal/domain/assessments"
	"github.com/oraig/impactguard/internal/session"
)

const (
	defaultWorkers    = 4
	defaultQueueDepth = 64
)

// Handle tracks one submitted task. Results are never returned synchronously;
// consumers poll session state, and the handle only answers lifecycle
// questions (finished, state, result object for the record).
type Handle struct {
	ID    string
	Token *Token

	task *Task
	done chan struct{}

	mu     sync.Mutex
	result *domain.Result
}

// Finished reports whether the task reached a terminal state.
func (h *Handle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done exposes the completion channel for callers that want to wait.
func (h *Handle) Done() <-chan struct{} { return h.done }

// State returns the task's lifecycle state.
func (h *Handle) State() domain.TaskState { return h.task.TaskState() }

// Cancel requests a cooperative stop; the task notices within one tick.
func (h *Handle) Cancel() { h.Token.Cancel() }

// Result is nil until the task finishes.
func (h *Handle) Result() *domain.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Executor runs assessment tasks on a bounded worker pool so the interactive
// request path never blocks on a simulation. Submissions queue when all
// workers are busy; they are never rejected.
type Executor struct {
	queue chan *Handle
	wg    sync.WaitGroup

	// optional metric hooks, wired in main
	OnTaskStart func()
	OnTaskDone  func(state domain.TaskState)
}

func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	e := &Executor{queue: make(chan *Handle, defaultQueueDepth)}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for h := range e.queue {
		if e.OnTaskStart != nil {
			e.OnTaskStart()
		}
		res := h.task.Run()
		h.mu.Lock()
		h.result = res
		h.mu.Unlock()
		close(h.done)
		if e.OnTaskDone != nil {
			e.OnTaskDone(h.task.TaskState())
		}
	}
}

// Submit enqueues a simulated assessment and registers its handle on the
// session for later cleanup. The returned handle carries the cancellation
// token shared with the task.
func (e *Executor) Submit(state *session.State, target domain.Target, vectors []domain.TestVector, duration time.Duration) *Handle {
	task := NewTask(state, target, vectors, duration)
	h := &Handle{
		ID:    uuid.NewString(),
		Token: task.Token,
		task:  task,
		done:  make(chan struct{}),
	}
	state.AddThread(h)
	e.queue <- h
	return h
}

// Cleanup prunes finished handles from the session's tracked list. Called
// once per render cycle; idempotent, no side effect beyond list pruning.
func (e *Executor) Cleanup(state *session.State) int {
	return state.PruneThreads()
}

// Shutdown drains the queue and waits for in-flight tasks.
func (e *Executor) Shutdown() {
	close(e.queue)
	e.wg.Wait()
}
