package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	cfg.CleanupInterval = 0
	cfg.KeyFunc = func(c *gin.Context) string { return "user:" + c.Query("user") }
	rl := NewRateLimiter(logger.NewNoop(), cfg)
	t.Cleanup(func() { _ = rl.Close() })

	r := gin.New()
	r.GET("/drop", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/drop?user=1", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/drop?user=1", nil).Code)
	rec := serve(r, http.MethodGet, "/drop?user=1", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// 不同键互不影响
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/drop?user=2", nil).Code)
}

func TestAuth(t *testing.T) {
	m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "secret"})
	require.NoError(t, err)
	adminToken, err := m.GenerateToken(7, "root", "admin")
	require.NoError(t, err)
	userToken, err := m.GenerateToken(8, "eve")
	require.NoError(t, err)

	isAdmin := func(id int64) bool { return id == 7 || id == 8 }
	r := gin.New()
	r.POST("/admin", Auth(m, isAdmin), RequireRoles("admin"), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"admin": claims.AdminID})
	})
	r.POST("/strict", Auth(m, func(int64) bool { return false }), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing token", "/admin", "", http.StatusUnauthorized},
		{"garbage token", "/admin", "Bearer x.y.z", http.StatusUnauthorized},
		{"missing role", "/admin", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "/admin", "Bearer " + adminToken, http.StatusOK},
		{"not in admin list", "/strict", "Bearer " + adminToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, http.MethodPost, tt.path, map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

type observerFunc func(route, method, status string, seconds float64)

func (f observerFunc) ObserveHTTP(route, method, status string, seconds float64) {
	f(route, method, status, seconds)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	var mu sync.Mutex
	var routes []string
	r := gin.New()
	r.Use(Metrics(observerFunc(func(route, method, status string, _ float64) {
		mu.Lock()
		defer mu.Unlock()
		routes = append(routes, route+" "+method+" "+status)
	})))
	r.GET("/players/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/players/42", nil)
	serve(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, []string{"/players/:id GET 200", "unknown GET 404"}, routes)
}

func TestRequestIDGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen, _ = logger.RequestIDFrom(c.Request.Context())
	})

	rec := serve(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestCORSOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://cards.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, http.MethodGet, "/x", map[string]string{"Origin": "https://cards.example.com"})
	assert.Equal(t, "https://cards.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
