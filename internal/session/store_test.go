package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvedit/internal/core"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration, max int) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(Options{TTL: ttl, MaxSessions: max, Now: clock.Now}), clock
}

func TestStore_CreateGetDelete(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)

	s := st.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, st.Len())

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = st.Get("missing")
	assert.False(t, ok)
	_, ok = st.Get("")
	assert.False(t, ok)

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
	assert.Zero(t, st.Len())
}

func TestStore_UniqueIDs(t *testing.T) {
	st, _ := newTestStore(time.Hour, 100)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := st.Create().ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestStore_GetExpired(t *testing.T) {
	st, clock := newTestStore(time.Hour, 10)
	s := st.Create()

	clock.Advance(59 * time.Minute)
	_, ok := st.Get(s.ID)
	require.True(t, ok, "session used within TTL must survive")

	// Get refreshed the access time.
	clock.Advance(59 * time.Minute)
	_, ok = st.Get(s.ID)
	require.True(t, ok)

	clock.Advance(61 * time.Minute)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
	assert.Zero(t, st.Len(), "expired session should be removed on lookup")
}

func TestStore_Sweep(t *testing.T) {
	st, clock := newTestStore(time.Hour, 10)
	old := st.Create()
	clock.Advance(30 * time.Minute)
	fresh := st.Create()

	clock.Advance(45 * time.Minute)
	removed := st.Sweep(clock.Now())

	assert.Equal(t, 1, removed)
	_, ok := st.Get(old.ID)
	assert.False(t, ok)
	_, ok = st.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	st, clock := newTestStore(time.Hour, 2)

	a := st.Create()
	clock.Advance(time.Minute)
	b := st.Create()
	clock.Advance(time.Minute)

	// Touch a so b becomes the least recently used.
	_, ok := st.Get(a.ID)
	require.True(t, ok)
	clock.Advance(time.Minute)

	c := st.Create()
	assert.Equal(t, 2, st.Len())

	_, ok = st.Get(b.ID)
	assert.False(t, ok, "least recently used session should be evicted")
	_, ok = st.Get(a.ID)
	assert.True(t, ok)
	_, ok = st.Get(c.ID)
	assert.True(t, ok)
}

func TestSession_DoSerializes(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)
	s := st.Create()

	table, err := core.ParseCSV(strings.NewReader("n\n"))
	require.NoError(t, err)
	s.Load(table)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(e *core.Editor) error {
				_, err := e.AddRow()
				return err
			})
		}()
	}
	wg.Wait()

	assert.Len(t, s.Snapshot().Rows, workers)
}

func TestSession_DoReturnsError(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)
	s := st.Create()

	err := s.Do(func(e *core.Editor) error {
		return e.BeginEdit(0)
	})
	assert.True(t, errors.Is(err, core.ErrNoTable))
}

func TestSessions_AreIsolated(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)
	a, b := st.Create(), st.Create()

	table, err := core.ParseCSV(strings.NewReader("x\n1\n"))
	require.NoError(t, err)
	a.Load(table)

	assert.True(t, a.Snapshot().Loaded)
	assert.False(t, b.Snapshot().Loaded)
}

func TestSession_LoadReplacesTable(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)
	s := st.Create()

	first, err := core.ParseCSV(strings.NewReader("a\n1\n2\n"))
	require.NoError(t, err)
	s.Load(first)
	require.NoError(t, s.Do(func(e *core.Editor) error { return e.BeginEdit(1) }))
	rev := s.Snapshot().Revision

	second, err := core.ParseCSV(strings.NewReader("x,y\n9,8\n"))
	require.NoError(t, err)
	s.Load(second)

	snap := s.Snapshot()
	assert.Equal(t, []string{"x", "y"}, snap.Headers)
	assert.Equal(t, [][]string{{"9", "8"}}, snap.Rows)
	assert.Equal(t, core.NoEdit, snap.Editing)
	assert.Greater(t, snap.Revision, rev)
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	st := NewStore(Options{TTL: time.Millisecond})
	st.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewStore_Defaults(t *testing.T) {
	st := NewStore(Options{})
	assert.Equal(t, DefaultTTL, st.ttl)
	assert.Equal(t, DefaultMaxSessions, st.max)
}
