package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"

	"petcare-serverless/internal/observability"
)

// TokenSubject is the fixed identity of the single account.
const TokenSubject = "admin"

// ErrNotConfigured means the signing secret or the credential reference is
// missing or unusable. Details are logged server-side; callers surface a
// generic server error.
var ErrNotConfigured = errors.New("auth is not configured")

type ErrLoginLocked struct {
	RemainingSeconds int
}

func (e ErrLoginLocked) Error() string {
	return "login temporarily locked"
}

type ErrInvalidPassword struct {
	AttemptCount      int
	RemainingAttempts int
	MaxAttempts       int
}

func (e ErrInvalidPassword) Error() string {
	return "invalid password"
}

// Service orchestrates the login flow: throttle, credential check, token
// issuance.
type Service struct {
	codec      *TokenCodec
	verifier   *CredentialVerifier
	throttle   *LoginThrottle
	logger     *observability.Logger
	credential string
}

func NewService(codec *TokenCodec, verifier *CredentialVerifier, throttle *LoginThrottle, logger *observability.Logger, credential string) *Service {
	return &Service{
		codec:      codec,
		verifier:   verifier,
		throttle:   throttle,
		logger:     logger,
		credential: strings.TrimSpace(credential),
	}
}

// Login checks the throttle before touching the credential: a locked
// client is rejected without the password ever being compared.
func (s *Service) Login(ctx context.Context, clientID, password string) (LoginGrant, error) {
	status := s.throttle.CheckStatus(ctx, clientID)
	if status.Locked {
		return LoginGrant{}, ErrLoginLocked{RemainingSeconds: status.RemainingSeconds}
	}

	if s.credential == "" || !s.codec.Configured() {
		s.logger.Error("auth_not_configured", map[string]any{
			"credential_set": s.credential != "",
			"secret_set":     s.codec.Configured(),
		})
		return LoginGrant{}, ErrNotConfigured
	}

	ok, err := s.verifier.Verify(password, s.credential)
	if err != nil {
		sentry.CaptureException(err)
		s.logger.Error("credential_check_failed", map[string]any{"error": err.Error()})
		return LoginGrant{}, ErrNotConfigured
	}

	if !ok {
		result := s.throttle.RecordFailure(ctx, clientID)
		if result.Locked {
			return LoginGrant{}, ErrLoginLocked{RemainingSeconds: result.RemainingSeconds}
		}
		return LoginGrant{}, ErrInvalidPassword{
			AttemptCount:      result.AttemptCount,
			RemainingAttempts: s.throttle.RemainingAttempts(result.AttemptCount),
			MaxAttempts:       s.throttle.MaxAttempts(),
		}
	}

	s.throttle.RecordSuccess(ctx, clientID)

	token, expiresIn, err := s.codec.Issue(TokenSubject)
	if err != nil {
		return LoginGrant{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginGrant{Token: token, ExpiresIn: expiresIn}, nil
}

// VerifyRequest validates a presented bearer token. A blank token is
// unauthenticated without ever reaching the codec.
func (s *Service) VerifyRequest(tokenStr string) (Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return Claims{}, ErrInvalidToken
	}
	if !s.codec.Configured() {
		s.logger.Error("auth_not_configured", map[string]any{"secret_set": false})
		return Claims{}, ErrNotConfigured
	}

	return s.codec.Verify(tokenStr)
}
