package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-svc/internal/cache"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s stubBlacklist) Revoke(context.Context, string, time.Time) error { return nil }

func (s stubBlacklist) IsRevoked(_ context.Context, id string) (bool, error) {
	return s.revoked[id], s.err
}

func newProtectedRouter(tokens *security.TokenManager, blacklist cache.TokenBlacklist) *gin.Engine {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.Use(AuthMiddleware(tokens, blacklist, "auth-token", logger.Discard()))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(UserIDKey)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := security.NewTokenManager("secret", "tests", time.Hour)
	token, _, err := tokens.Generate(7, "john")
	require.NoError(t, err)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)

	tests := []struct {
		name      string
		setup     func(r *http.Request)
		blacklist cache.TokenBlacklist
		status    int
	}{
		{
			name:      "missing token",
			setup:     func(*http.Request) {},
			blacklist: cache.NewNoopBlacklist(),
			status:    http.StatusUnauthorized,
		},
		{
			name:      "bearer token",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			blacklist: cache.NewNoopBlacklist(),
			status:    http.StatusOK,
		},
		{
			name:      "cookie token",
			setup:     func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth-token", Value: token}) },
			blacklist: cache.NewNoopBlacklist(),
			status:    http.StatusOK,
		},
		{
			name:      "garbage token",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			blacklist: cache.NewNoopBlacklist(),
			status:    http.StatusUnauthorized,
		},
		{
			name:      "revoked token",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			blacklist: stubBlacklist{revoked: map[string]bool{claims.ID: true}},
			status:    http.StatusUnauthorized,
		},
		{
			name:      "blacklist unavailable",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			blacklist: stubBlacklist{err: errors.New("down")},
			status:    http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newProtectedRouter(tokens, tt.blacklist)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7}`, w.Body.String())
			}
		})
	}
}

func TestTraceMiddlewareKeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(TraceIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(TraceHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(TraceHeader), 36)
}

func TestErrorHandlerAndFallbacks(t *testing.T) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(LoggerMiddleware(logger.Discard()))
	r.Use(ErrorHandler(logger.Discard()))
	r.NoRoute(NoRouteHandler())
	r.NoMethod(NoMethodHandler())
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "kaboom")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/panic", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
