package assessments

import "sync/atomic"

// Token is the cooperative stop signal shared by the submitter and the
// worker. The task checks it once per tick, so the worst-case stop latency is
// one tick of the requested duration.
type Token struct {
	cancelled atomic.Bool
}

func NewToken() *Token { return &Token{} }

func (t *Token) Cancel()           { t.cancelled.Store(true) }
func (t *Token) IsCancelled() bool { return t.cancelled.Load() }
