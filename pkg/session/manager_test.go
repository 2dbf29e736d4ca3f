package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAcquire(t *testing.T) {
	m := NewManager(30*time.Minute, 10)

	id := m.Create("Juan dela Cruz")
	require.NotEmpty(t, id)
	assert.Equal(t, 1, m.Count())

	st, release, err := m.Acquire(context.Background(), id)
	require.NoError(t, err)
	defer release()

	assert.Equal(t, id, st.SessionID)
	assert.Equal(t, "Juan dela Cruz", st.PatientName)
}

func TestAcquireUnknownSession(t *testing.T) {
	m := NewManager(30*time.Minute, 10)

	_, _, err := m.Acquire(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Peek("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAcquireIsExclusiveUntilRelease(t *testing.T) {
	m := NewManager(30*time.Minute, 10)
	id := m.Create("Juan dela Cruz")

	_, release, err := m.Acquire(context.Background(), id)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, r2, err2 := m.Acquire(context.Background(), id)
		assert.NoError(t, err2)
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the session was locked")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	m := NewManager(30*time.Minute, 10)
	id := m.Create("Juan dela Cruz")

	_, release, err := m.Acquire(context.Background(), id)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err = m.Acquire(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionsExpireAfterIdleTTL(t *testing.T) {
	m := NewManager(30*time.Minute, 10)
	current := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	id := m.Create("Juan dela Cruz")

	current = current.Add(29 * time.Minute)
	_, err := m.Peek(id)
	require.NoError(t, err, "access inside the TTL refreshes the session")

	current = current.Add(31 * time.Minute)
	_, err = m.Peek(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, m.Count())
}

func TestCapacityEvictsOldestIdleSession(t *testing.T) {
	m := NewManager(30*time.Minute, 2)
	current := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	first := m.Create("Juan dela Cruz")
	current = current.Add(time.Minute)
	second := m.Create("Roberto Reyes")
	current = current.Add(time.Minute)

	third := m.Create("Maria Santos")
	assert.Equal(t, 2, m.Count())

	_, err := m.Peek(first)
	assert.ErrorIs(t, err, ErrSessionNotFound, "oldest idle session is evicted")
	_, err = m.Peek(second)
	assert.NoError(t, err)
	_, err = m.Peek(third)
	assert.NoError(t, err)
}

func TestCapacityNeverEvictsLockedSession(t *testing.T) {
	m := NewManager(30*time.Minute, 1)
	current := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	first := m.Create("Juan dela Cruz")
	_, release, err := m.Acquire(context.Background(), first)
	require.NoError(t, err)
	defer release()

	current = current.Add(time.Minute)
	m.Create("Roberto Reyes")

	_, err = m.Peek(first)
	assert.NoError(t, err, "a session mid-run survives capacity pressure")
}

func TestWaiterOnEvictedSessionIsTurnedAway(t *testing.T) {
	m := NewManager(30*time.Minute, 10)
	id := m.Create("Juan dela Cruz")

	_, release, err := m.Acquire(context.Background(), id)
	require.NoError(t, err)

	type result struct {
		st  any
		err error
	}
	got := make(chan result, 1)
	go func() {
		st, r2, err2 := m.Acquire(context.Background(), id)
		if r2 != nil {
			r2()
		}
		got <- result{st, err2}
	}()

	// Let the second acquire reach the semaphore wait, then evict the
	// session out from under it before the holder releases.
	time.Sleep(50 * time.Millisecond)
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	release()

	select {
	case r := <-got:
		assert.ErrorIs(t, r.err, ErrSessionNotFound,
			"a waiter must never receive the state of an evicted session")
	case <-time.After(time.Second):
		t.Fatal("waiter did not return")
	}
}

func TestHeldSessionNeverExpiresMidRun(t *testing.T) {
	m := NewManager(30*time.Minute, 10)
	current := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	id := m.Create("Juan dela Cruz")
	_, release, err := m.Acquire(context.Background(), id)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Count(), "a running session outlives its idle TTL")

	release()
	current = current.Add(31 * time.Minute)
	assert.Zero(t, m.Count())
}
