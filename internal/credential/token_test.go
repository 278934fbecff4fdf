// AngelaMos | 2026
// token_test.go

package credential

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/account-service/internal/config"
	"github.com/carterperez-dev/account-service/internal/core"
)

func newTestManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(privPath, pubPath))

	m, err := NewTokenManager(config.TokenConfig{
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
		TTL:            ttl,
		Issuer:         "account-service-test",
		Audience:       "account-service-test-api",
	})
	require.NoError(t, err)

	return m
}

func TestIssueToken_RoundTrip(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)

	token, err := m.IssueToken("user-123", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.VerifyToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyToken_Expired(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, err := m.IssueToken("user-123", "user")
	require.NoError(t, err)

	_, err = m.VerifyToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenExpired))
}

func TestVerifyToken_Garbage(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)

	_, err := m.VerifyToken(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))
}

func TestVerifyToken_WrongKey(t *testing.T) {
	issuer := newTestManager(t, 15*time.Minute)
	verifier := newTestManager(t, 15*time.Minute)

	token, err := issuer.IssueToken("user-123", "user")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))
}

func TestGetJWKSHandler_PublishesSigningKey(t *testing.T) {
	m := newTestManager(t, 15*time.Minute)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/.well-known/jwks.json", nil)

	m.GetJWKSHandler()(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)

	assert.Equal(t, "EC", body.Keys[0]["kty"])
	assert.Equal(t, m.GetKeyID(), body.Keys[0]["kid"])
	assert.NotContains(t, body.Keys[0], "d")
}
