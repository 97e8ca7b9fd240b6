package assessments

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/oraig/impactguard/internal/domain/assessments"
	"github.com/oraig/impactguard/internal/session"
)

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task %s did not finish", h.ID)
	}
}

func TestExecutor(t *testing.T) {
	target := domain.Target{Name: "demo-model"}
	vectors := domain.DefaultVectors()

	t.Run("runs a submitted task to completion", func(t *testing.T) {
		e := NewExecutor(2)
		defer e.Shutdown()
		st := session.NewState("e1")

		h := e.Submit(st, target, vectors, 0)
		waitDone(t, h)

		assert.True(t, h.Finished())
		assert.Equal(t, domain.StateCompleted, h.State())
		require.NotNil(t, h.Result())
		assert.Equal(t, len(vectors)*10, h.Result().Summary.TotalTests)
	})

	t.Run("queues submissions beyond the worker count", func(t *testing.T) {
		e := NewExecutor(2)
		defer e.Shutdown()
		st := session.NewState("e2")

		handles := make([]*Handle, 0, 8)
		for i := 0; i < 8; i++ {
			handles = append(handles, e.Submit(st, target, vectors, 0))
		}
		for _, h := range handles {
			waitDone(t, h)
			assert.Equal(t, domain.StateCompleted, h.State())
		}
	})

	t.Run("cancel via handle reaches the task token", func(t *testing.T) {
		e := NewExecutor(1)
		defer e.Shutdown()
		st := session.NewState("e3")

		// occupy the single worker so the second submission sits in the
		// queue long enough to be cancelled before it starts
		blocker := e.Submit(st, target, vectors, 200*time.Millisecond)
		h := e.Submit(st, target, vectors, 0)
		h.Cancel()

		waitDone(t, blocker)
		waitDone(t, h)
		assert.Equal(t, domain.StateCancelled, h.State())
	})

	t.Run("cleanup prunes finished handles and is idempotent", func(t *testing.T) {
		e := NewExecutor(2)
		defer e.Shutdown()
		st := session.NewState("e4")

		h := e.Submit(st, target, vectors, 0)
		assert.Equal(t, 1, st.ActiveThreadCount())
		waitDone(t, h)

		assert.Equal(t, 0, e.Cleanup(st))
		assert.Equal(t, 0, e.Cleanup(st))
		assert.Equal(t, 0, st.ActiveThreadCount())
	})

	t.Run("invokes metric hooks around each task", func(t *testing.T) {
		e := NewExecutor(2)
		defer e.Shutdown()
		st := session.NewState("e5")

		var started, done atomic.Int64
		e.OnTaskStart = func() { started.Add(1) }
		e.OnTaskDone = func(domain.TaskState) { done.Add(1) }

		handles := []*Handle{
			e.Submit(st, target, vectors, 0),
			e.Submit(st, target, vectors, 0),
		}
		for _, h := range handles {
			waitDone(t, h)
		}
		assert.EqualValues(t, 2, started.Load())
		assert.EqualValues(t, 2, done.Load())
	})
}
