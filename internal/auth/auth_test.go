package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testConfig = Config{
	Secret:     "test-secret",
	AccessTTL:  time.Hour,
	RefreshTTL: 24 * time.Hour,
	BcryptCost: bcrypt.MinCost,
}

func TestTokenPairRoundTrip(t *testing.T) {
	pair, err := GenerateTokenPair(testConfig, "user-42")
	require.NoError(t, err)

	userID, err := ValidateToken(pair.AccessToken, testConfig.Secret, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)

	userID, err = ValidateToken(pair.RefreshToken, testConfig.Secret, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestValidateTokenRejects(t *testing.T) {
	pair, err := GenerateTokenPair(testConfig, "user-42")
	require.NoError(t, err)

	_, err = ValidateToken(pair.RefreshToken, testConfig.Secret, AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = ValidateToken(pair.AccessToken, "other-secret", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("user-42", AccessToken, testConfig.Secret, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, testConfig.Secret, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("garbage", testConfig.Secret, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("correct horse", "not-a-hash"))
}

func TestMiddleware(t *testing.T) {
	pair, err := GenerateTokenPair(testConfig, "user-7")
	require.NoError(t, err)

	var seen string
	handler := Middleware(testConfig, AccessToken)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"valid access token", "Bearer " + pair.AccessToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Contains(t, rr.Body.String(), `"error":"Unauthorized"`)
			}
		})
	}
	assert.Equal(t, "user-7", seen)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORS([]string{"http://localhost:3000"})(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/events/sync", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"*", "http://localhost:3000"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}
