package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petcare-serverless/internal/observability"
)

const testPassword = "correct horse battery staple"

func newTestService(store AttemptStore) *Service {
	codec := NewTokenCodec("test-secret", 7*24*time.Hour)
	verifier := NewCredentialVerifier(false)
	throttle := newTestThrottle(store)
	return NewService(codec, verifier, throttle, observability.NewLogger(), sha256Reference(testPassword))
}

func TestLoginAccepted(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemStore())

	grant, err := service.Login(ctx, "1.2.3.4", testPassword)
	require.NoError(t, err)
	assert.Equal(t, int64(604800), grant.ExpiresIn)

	claims, err := service.VerifyRequest(grant.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenSubject, claims.Subject)
	assert.Equal(t, int64(604800), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
}

func TestLoginRejectedCountsAttempts(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemStore())

	_, err := service.Login(ctx, "1.2.3.4", "wrong")
	var rejected ErrInvalidPassword
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 1, rejected.AttemptCount)
	assert.Equal(t, 4, rejected.RemainingAttempts)

	_, err = service.Login(ctx, "1.2.3.4", "wrong")
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 2, rejected.AttemptCount)
	assert.Equal(t, 3, rejected.RemainingAttempts)
}

func TestLoginFifthFailureLocks(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemStore())

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = service.Login(ctx, "1.2.3.4", "wrong")
	}

	var locked ErrLoginLocked
	require.ErrorAs(t, lastErr, &locked)
	assert.InDelta(t, 300, locked.RemainingSeconds, 2)

	// Correct password within the lock window is still rejected as locked.
	_, err := service.Login(ctx, "1.2.3.4", testPassword)
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RemainingSeconds, 0)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	service := newTestService(store)

	for i := 0; i < 4; i++ {
		_, _ = service.Login(ctx, "1.2.3.4", "wrong")
	}

	_, err := service.Login(ctx, "1.2.3.4", testPassword)
	require.NoError(t, err)

	status := service.throttle.CheckStatus(ctx, "1.2.3.4")
	assert.Equal(t, 0, status.AttemptCount)

	// Failures start counting from scratch again.
	_, err = service.Login(ctx, "1.2.3.4", "wrong")
	var rejected ErrInvalidPassword
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 1, rejected.AttemptCount)
}

func TestLoginMisconfigured(t *testing.T) {
	ctx := context.Background()
	logger := observability.NewLogger()
	throttle := newTestThrottle(newMemStore())
	verifier := NewCredentialVerifier(false)

	noCredential := NewService(NewTokenCodec("secret", time.Hour), verifier, throttle, logger, "")
	_, err := noCredential.Login(ctx, "1.2.3.4", testPassword)
	assert.ErrorIs(t, err, ErrNotConfigured)

	noSecret := NewService(NewTokenCodec("", time.Hour), verifier, throttle, logger, sha256Reference(testPassword))
	_, err = noSecret.Login(ctx, "1.2.3.4", testPassword)
	assert.ErrorIs(t, err, ErrNotConfigured)

	// An unusable credential reference is a misconfiguration too, not a
	// bad password.
	badReference := NewService(NewTokenCodec("secret", time.Hour), verifier, throttle, logger, "plaintext-reference")
	_, err = badReference.Login(ctx, "1.2.3.4", "plaintext-reference")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyRequestBlankToken(t *testing.T) {
	service := newTestService(newMemStore())

	_, err := service.VerifyRequest("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.VerifyRequest("   ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
