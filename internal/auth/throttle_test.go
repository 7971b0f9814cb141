package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petcare-serverless/internal/observability"
)

// memStore is an in-memory AttemptStore for tests.
type memStore struct {
	mu       sync.Mutex
	attempts map[string]*LoginAttempt
	err      error
}

func newMemStore() *memStore {
	return &memStore{attempts: make(map[string]*LoginAttempt)}
}

func (s *memStore) GetAttempt(_ context.Context, clientID string) (LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return LoginAttempt{}, s.err
	}
	if attempt, ok := s.attempts[clientID]; ok {
		return *attempt, nil
	}
	return LoginAttempt{ClientID: clientID}, nil
}

func (s *memStore) IncrementAttempt(_ context.Context, clientID string, _ time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	attempt, ok := s.attempts[clientID]
	if !ok {
		attempt = &LoginAttempt{ClientID: clientID}
		s.attempts[clientID] = attempt
	}
	attempt.AttemptCount++
	return attempt.AttemptCount, nil
}

func (s *memStore) LockAttempt(_ context.Context, clientID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if attempt, ok := s.attempts[clientID]; ok {
		attempt.LockedUntil = &until
	}
	return nil
}

func (s *memStore) ResetAttempt(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if attempt, ok := s.attempts[clientID]; ok {
		attempt.AttemptCount = 0
		attempt.LockedUntil = nil
	}
	return nil
}

func (s *memStore) ClearAttempt(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.attempts, clientID)
	return nil
}

func newTestThrottle(store AttemptStore) *LoginThrottle {
	return NewLoginThrottle(store, observability.NewLogger(), 5, 5*time.Minute)
}

func TestThrottleLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	throttle := newTestThrottle(store)

	for i := 1; i <= 4; i++ {
		result := throttle.RecordFailure(ctx, "1.2.3.4")
		assert.False(t, result.Locked)
		assert.Equal(t, i, result.AttemptCount)
		assert.Equal(t, 5-i, throttle.RemainingAttempts(result.AttemptCount))
	}

	fifth := throttle.RecordFailure(ctx, "1.2.3.4")
	assert.True(t, fifth.Locked)
	assert.Equal(t, 5, fifth.AttemptCount)
	assert.Equal(t, 300, fifth.RemainingSeconds)

	status := throttle.CheckStatus(ctx, "1.2.3.4")
	assert.True(t, status.Locked)
	assert.InDelta(t, 300, status.RemainingSeconds, 2)
}

func TestThrottleLazyExpiryResetsOnCheck(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	throttle := newTestThrottle(store)

	now := time.Now()
	throttle.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		throttle.RecordFailure(ctx, "1.2.3.4")
	}
	require.True(t, throttle.CheckStatus(ctx, "1.2.3.4").Locked)

	throttle.now = func() time.Time { return now.Add(5*time.Minute + time.Second) }

	status := throttle.CheckStatus(ctx, "1.2.3.4")
	assert.False(t, status.Locked)
	assert.Equal(t, 0, status.AttemptCount)

	// The reset happened in storage, not just in the returned status.
	attempt, err := store.GetAttempt(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, attempt.AttemptCount)
	assert.Nil(t, attempt.LockedUntil)
}

func TestThrottleSuccessClearsRecord(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	throttle := newTestThrottle(store)

	for i := 0; i < 3; i++ {
		throttle.RecordFailure(ctx, "1.2.3.4")
	}
	assert.Equal(t, 3, throttle.CheckStatus(ctx, "1.2.3.4").AttemptCount)

	throttle.RecordSuccess(ctx, "1.2.3.4")

	status := throttle.CheckStatus(ctx, "1.2.3.4")
	assert.False(t, status.Locked)
	assert.Equal(t, 0, status.AttemptCount)
}

func TestThrottleIsolatesClients(t *testing.T) {
	ctx := context.Background()
	throttle := newTestThrottle(newMemStore())

	for i := 0; i < 5; i++ {
		throttle.RecordFailure(ctx, "1.2.3.4")
	}

	assert.True(t, throttle.CheckStatus(ctx, "1.2.3.4").Locked)
	assert.False(t, throttle.CheckStatus(ctx, "5.6.7.8").Locked)
}

func TestThrottleFailsOpenOnStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	throttle := newTestThrottle(store)

	for i := 0; i < 5; i++ {
		throttle.RecordFailure(ctx, "1.2.3.4")
	}

	store.err = errors.New("store unreachable")

	status := throttle.CheckStatus(ctx, "1.2.3.4")
	assert.False(t, status.Locked)

	result := throttle.RecordFailure(ctx, "1.2.3.4")
	assert.False(t, result.Locked)
	assert.Equal(t, 1, result.AttemptCount)

	// RecordSuccess must not panic or surface the error either.
	throttle.RecordSuccess(ctx, "1.2.3.4")
}
