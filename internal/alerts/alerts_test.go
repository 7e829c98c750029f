package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/stockgpt/internal/database"
	"github.com/Alias1177/stockgpt/models"
)

type note struct{ title, body string }

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) Notify(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{title, body})
	return nil
}

func (r *recordingNotifier) Notes() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

// countingStore counts writes so tests can check that idle ticks don't save
type countingStore struct {
	*database.Memory
	mu   sync.Mutex
	sets int
}

func (c *countingStore) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.Memory.Set(ctx, key, value)
}

func (c *countingStore) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func fixed(v float64) func() float64 {
	return func() float64 { return v }
}

func TestAddSetsCondition(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewService(database.NewMemory(), notifier)

	above, err := svc.Add(ctx, " aapl ", 210, 200)
	require.NoError(t, err)
	below, err := svc.Add(ctx, "TSLA", 150, 180)
	require.NoError(t, err)
	equal, err := svc.Add(ctx, "MSFT", 400, 400)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", above.Symbol)
	assert.Equal(t, models.ConditionAbove, above.Condition)
	assert.Equal(t, models.ConditionBelow, below.Condition)
	assert.Equal(t, models.ConditionBelow, equal.Condition)
	assert.Equal(t, models.AlertActive, above.Status)
	assert.Equal(t, 200.0, above.InitialPrice)
	assert.NotEmpty(t, above.ID)
	assert.NotEqual(t, above.ID, below.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"MSFT", "TSLA", "AAPL"}, []string{list[0].Symbol, list[1].Symbol, list[2].Symbol})

	notes := notifier.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, note{"Alert Set: AAPL", "We'll notify you when AAPL goes above 210.00."}, notes[0])
}

func TestAddRejectsInvalid(t *testing.T) {
	svc := NewService(database.NewMemory(), nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "  ", 10, 10)
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = svc.Add(ctx, "AAPL", 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = svc.Add(ctx, "AAPL", 10, -1)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc := NewService(database.NewMemory(), nil)

	a, err := svc.Add(ctx, "AAPL", 210, 200)
	require.NoError(t, err)
	b, err := svc.Add(ctx, "TSLA", 150, 180)
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestMonitorCheck(t *testing.T) {
	tests := []struct {
		name      string
		target    float64
		current   float64
		rand      float64
		triggered bool
	}{
		{name: "above reached", target: 101, current: 100, rand: 0.99, triggered: true},
		{name: "above not reached", target: 101, current: 100, rand: 0.5},
		{name: "below reached", target: 99, current: 100, rand: 0, triggered: true},
		{name: "below not reached", target: 99, current: 100, rand: 0.9},
		{name: "out of range", target: 120, current: 100, rand: 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &countingStore{Memory: database.NewMemory()}
			notifier := &recordingNotifier{}
			svc := NewService(store, nil)

			alert, err := svc.Add(ctx, "AAPL", tt.target, tt.current)
			require.NoError(t, err)
			writes := store.Sets()

			m := NewMonitor(svc, notifier, MonitorOptions{Rand: fixed(tt.rand)})
			triggered, err := m.Check(ctx)
			require.NoError(t, err)

			list, err := svc.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)

			if !tt.triggered {
				assert.Empty(t, triggered)
				assert.Equal(t, models.AlertActive, list[0].Status)
				assert.Equal(t, writes, store.Sets(), "idle check must not write")
				assert.Empty(t, notifier.Notes())
				return
			}

			require.Len(t, triggered, 1)
			assert.Equal(t, alert.ID, triggered[0].ID)
			assert.Equal(t, models.AlertTriggered, list[0].Status)
			assert.Equal(t, writes+1, store.Sets())
			require.Len(t, notifier.Notes(), 1)
			assert.Equal(t, "Price Alert: AAPL", notifier.Notes()[0].title)

			// triggered alerts are never re-evaluated
			again, err := m.Check(ctx)
			require.NoError(t, err)
			assert.Empty(t, again)
			assert.Len(t, notifier.Notes(), 1)
		})
	}
}

func TestMonitorRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &recordingNotifier{}
	svc := NewService(database.NewMemory(), nil)
	_, err := svc.Add(ctx, "NVDA", 101, 100)
	require.NoError(t, err)

	m := NewMonitor(svc, notifier, MonitorOptions{Interval: 5 * time.Millisecond, Rand: fixed(0.99)})
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return len(notifier.Notes()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
