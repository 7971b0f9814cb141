package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAttachesClaims(t *testing.T) {
	service := newTestService(newMemStore())

	token, _, err := service.codec.Issue(TokenSubject)
	require.NoError(t, err)

	var gotClaims Claims
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, gotOK = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	Middleware(service, next).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	require.True(t, gotOK)
	assert.Equal(t, TokenSubject, gotClaims.Subject)
}

func TestMiddlewareRejectsWithoutValidToken(t *testing.T) {
	service := newTestService(newMemStore())

	expiredCodec := NewTokenCodec("test-secret", time.Hour)
	expiredCodec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expiredCodec.Issue(TokenSubject)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	cases := map[string]string{
		"no header":     "",
		"bad format":    "Token abc",
		"invalid token": "Bearer garbage",
		"expired token": "Bearer " + expiredToken,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			recorder := httptest.NewRecorder()
			Middleware(service, next).ServeHTTP(recorder, req)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}
