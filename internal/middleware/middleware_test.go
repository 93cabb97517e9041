package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lapor-chat/internal/auth"
	"lapor-chat/internal/config"
	imredis "lapor-chat/internal/redis"
)

var authCfg = config.AuthConfig{JWTSecretKey: "secret", JWTExpiry: time.Hour, Issuer: "test"}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetUserIDFromContext(r.Context())
		w.Write([]byte(id))
	})
}

func TestAuthMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	blacklist := imredis.NewRedisTokenBlacklist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	h := AuthMiddleware(authCfg.JWTSecretKey, blacklist)(echoUser())

	token, claims, err := auth.GenerateToken(auth.Identity{UserID: "u1", Role: "user"}, authCfg)
	require.NoError(t, err)

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid", func(t *testing.T) {
		rec := do("Bearer " + token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "u1", rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("").Code)
	})

	t.Run("malformed", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Token "+token).Code)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, blacklist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))
		rec := do("Bearer " + token)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "token revoked")
	})
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewRateLimiter(ctx, config.RateLimitConfig{PerMinute: 1, Burst: 2}, zap.NewNop().Sugar())
	h := l.Middleware(echoUser())

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, call("10.0.0.1:1111"))
	require.Equal(t, http.StatusOK, call("10.0.0.1:2222"))
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:3333"))
	require.Equal(t, http.StatusOK, call("10.0.0.2:1111"))
}

func TestCallerKeyPrefersUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), ClaimsKey, &auth.Claims{UserID: "u9"}))
	require.Equal(t, "user:u9", callerKey(req))
}
