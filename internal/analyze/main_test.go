package analyze

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingTimer fires immediately and remembers every requested delay
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (t *recordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	t.c <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time { return t.c }

func (t *recordingTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}

// scriptedGenerator replays replies in order and repeats the last one
type scriptedGenerator struct {
	calls   atomic.Int32
	replies []func(ctx context.Context) (*Reply, error)
}

func (g *scriptedGenerator) Generate(ctx context.Context, _ Prompt) (*Reply, error) {
	n := int(g.calls.Add(1)) - 1
	if n >= len(g.replies) {
		n = len(g.replies) - 1
	}
	return g.replies[n](ctx)
}

func (g *scriptedGenerator) Calls() int {
	return int(g.calls.Load())
}

func text(body string) func(context.Context) (*Reply, error) {
	return func(context.Context) (*Reply, error) {
		return &Reply{Text: body, FinishReason: "STOP"}, nil
	}
}

func fail(err error) func(context.Context) (*Reply, error) {
	return func(context.Context) (*Reply, error) {
		return nil, err
	}
}

func hang(ctx context.Context) (*Reply, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type staticProbe bool

func (p staticProbe) Online(context.Context) bool { return bool(p) }
