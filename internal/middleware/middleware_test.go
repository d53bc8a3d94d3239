package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/config"
	"swap-backend/internal/handlers"
	"swap-backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func originEngine(t *testing.T, secret string) (*gin.Engine, *types.Origin) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	seen := &types.Origin{}

	engine := gin.New()
	engine.GET("/origin", NewAdminAuthMiddleware(secret, logger).ResolveOrigin(), func(c *gin.Context) {
		*seen = handlers.OriginFromContext(c)
		c.Status(http.StatusOK)
	})
	return engine, seen
}

func TestResolveOrigin(t *testing.T) {
	const secret = "middleware-secret"

	token, err := handlers.IssueAdminToken([]byte(secret), "ops", time.Hour)
	require.NoError(t, err)
	foreignToken, err := handlers.IssueAdminToken([]byte("other-secret"), "ops", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		kind   types.OriginKind
	}{
		{name: "no header", status: http.StatusOK, kind: types.OriginNone},
		{name: "admin token", header: "Bearer " + token, status: http.StatusOK, kind: types.OriginPrivileged},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreignToken, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, seen := originEngine(t, secret)
			req := httptest.NewRequest(http.MethodGet, "/origin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.kind, seen.Kind)
			}
		})
	}
}

func TestLocalhostOnly(t *testing.T) {
	logger, _ := test.NewNullLogger()
	restrict := NewLocalhostOnly(logger, []string{"10.1.0.0/16", "192.0.2.7", "not-a-cidr/99"}).Restrict()

	engine := gin.New()
	engine.GET("/admin", restrict, func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := map[string]int{
		"127.0.0.1:1000":  http.StatusOK,
		"[::1]:1000":      http.StatusOK,
		"10.1.44.3:1000":  http.StatusOK,
		"192.0.2.7:1000":  http.StatusOK,
		"10.2.0.1:1000":   http.StatusForbidden,
		"203.0.113.9:443": http.StatusForbidden,
	}
	for addr, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, addr)
	}
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"https://app.example"}, AllowCredentials: true}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
