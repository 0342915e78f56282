package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration, maxSessions int) (*SessionStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	st := NewSessionStore(ttl, maxSessions)
	st.now = clock.Now
	return st, clock
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	st, _ := newTestStore(time.Minute, 0)

	sess := st.Create([]SessionFile{{Index: 0, File: csvFile("a.csv", "x\n1\n")}})
	require.NotEmpty(t, sess.ID)

	got, err := st.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Len(t, got.Files(), 1)

	assert.True(t, st.Delete(sess.ID))
	assert.False(t, st.Delete(sess.ID))

	_, err = st.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_IdleExpiry(t *testing.T) {
	st, clock := newTestStore(10*time.Minute, 0)
	sess := st.Create(nil)

	clock.Advance(9 * time.Minute)
	_, err := st.Get(sess.ID)
	require.NoError(t, err, "access inside the TTL")

	clock.Advance(9 * time.Minute)
	_, err = st.Get(sess.ID)
	require.NoError(t, err, "the previous Get renewed the TTL")

	clock.Advance(11 * time.Minute)
	_, err = st.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestSessionStore_EvictsLeastRecentlyUsed(t *testing.T) {
	st, clock := newTestStore(time.Hour, 2)

	var evicted []string
	st.onEvict = func(id, reason string) {
		evicted = append(evicted, reason+":"+id)
	}

	first := st.Create(nil)
	clock.Advance(time.Second)
	second := st.Create(nil)
	clock.Advance(time.Second)

	_, err := st.Get(first.ID)
	require.NoError(t, err)

	third := st.Create(nil)

	assert.Equal(t, 2, st.Len())
	_, err = st.Get(second.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(first.ID)
	assert.NoError(t, err)
	_, err = st.Get(third.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"evicted:" + second.ID}, evicted)
}

func TestSessionStore_Sweep(t *testing.T) {
	st, clock := newTestStore(time.Minute, 0)

	old := st.Create(nil)
	clock.Advance(45 * time.Second)
	fresh := st.Create(nil)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, st.Len())

	_, err := st.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSessionStore_SweeperStopsOnCancel(t *testing.T) {
	st := NewSessionStore(time.Millisecond, 0)
	st.Create(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.StartSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSession_ConversionGuard(t *testing.T) {
	sess := newSession("id", nil, time.Now())

	require.True(t, sess.begin())
	assert.False(t, sess.begin(), "second conversion must wait")

	result := &ConvertResult{Files: []FileResult{{
		Source:   "a.csv",
		Artifact: &ExportArtifact{Name: "a.xlsx", Format: FormatExcel, Data: []byte("x")},
	}}}
	sess.finish([]FileConfig{{OutputFormat: FormatExcel}}, result)

	assert.True(t, sess.begin())
	sess.finish(nil, nil)

	assert.Same(t, result, sess.Result(), "a failed conversion keeps the previous result")
	a, ok := sess.Artifact("a.xlsx")
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), a.Data)
	_, ok = sess.Artifact("missing.csv")
	assert.False(t, ok)
}
