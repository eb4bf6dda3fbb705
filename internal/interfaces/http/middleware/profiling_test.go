package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDefaultProfilingConfig(t *testing.T) {
	cfg := DefaultProfilingConfig()

	assert.True(t, cfg.Enabled)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPathPrefixes, "/swagger")
}

func TestProfilingMiddleware_AttachesLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var route, controller, method, branch string
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(JWTBranchIDKey, "b7f6a8c2-0d3e-4c1a-9f2b-1a2b3c4d5e6f")
		c.Next()
	})
	r.Use(Profiling())
	r.GET("/api/v1/branches/:branchId/vouchers", func(c *gin.Context) {
		ctx := c.Request.Context()
		route, _ = pprof.Label(ctx, "route")
		controller, _ = pprof.Label(ctx, "controller")
		method, _ = pprof.Label(ctx, "method")
		branch, _ = pprof.Label(ctx, "branch_id")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/branches/b1/vouchers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/branches/:branchId/vouchers", route)
	assert.Equal(t, "vouchers", controller)
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "b7f6a8c2-0d3e-4c1a-9f2b-1a2b3c4d5e6f", branch)
}

func TestProfilingMiddleware_SkipsAndDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, mw := range map[string]gin.HandlerFunc{
		"skip path": Profiling(),
		"disabled":  ProfilingWithConfig(ProfilingConfig{Enabled: false}),
	} {
		t.Run(name, func(t *testing.T) {
			var labelled bool
			r := gin.New()
			r.Use(mw)
			r.GET("/health", func(c *gin.Context) {
				_, labelled = pprof.Label(c.Request.Context(), "route")
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, labelled)
		})
	}
}

func TestExtractControllerFromRoute(t *testing.T) {
	tests := []struct {
		route    string
		expected string
	}{
		{"/api/v1/branches/:branchId/vouchers", "vouchers"},
		{"/api/v1/branches/:branchId/payments", "payments"},
		{"/api/v1/vouchers/:id", "vouchers"},
		{"/api/v1/vouchers/:id/payments/upload", "vouchers"},
		{"/api/v1/admin/vouchers/overdue-sweep", "vouchers"},
		{"/api/v2/system/info", "system"},
		{"/health", "health"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractControllerFromRoute(tt.route))
		})
	}
}
