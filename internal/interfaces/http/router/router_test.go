package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/interfaces/http/handler"
	"github.com/feeledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterWithMiddleware(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-Api-Middleware", "applied")
		c.Next()
	}))
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	}))
	r.Setup()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, "applied", w.Header().Get("X-Api-Middleware"))

	w = serve(engine, http.MethodGet, "/health")
	assert.Empty(t, w.Header().Get("X-Api-Middleware"))
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	var order []string
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		order = append(order, "option")
		c.Next()
	}))
	r.Use(func(c *gin.Context) {
		order = append(order, "use")
		c.Next()
	})
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})).Setup()

	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
	assert.Equal(t, []string{"option", "use"}, order)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("vouchers", "/vouchers")
		assert.Equal(t, "vouchers", g.Name())
		assert.Equal(t, "/vouchers", g.Prefix())
	})

	t.Run("registers GET and POST", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/test/items").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/test/items").Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "applied", serve(engine, http.MethodGet, "/api/v1/test/items").Header().Get("X-Test-Middleware"))
	})

	t.Run("subgroups and route listing", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("branches", "/branches/:branchId")
		g.GET("/vouchers", func(c *gin.Context) { c.String(http.StatusOK, c.Param("branchId")) })
		g.Group("reports", "/reports").GET("", func(c *gin.Context) { c.String(http.StatusOK, "reports") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/branches/b-1/vouchers")
		assert.Equal(t, "b-1", w.Body.String())
		assert.Equal(t, "reports", serve(engine, http.MethodGet, "/api/v1/branches/b-1/reports").Body.String())

		assert.Equal(t, []RouteInfo{
			{Group: "branches", Method: http.MethodGet, Path: "/api/v1/branches/:branchId/vouchers"},
			{Group: "reports", Method: http.MethodGet, Path: "/api/v1/branches/:branchId/reports"},
		}, g.Routes("/api/v1"))
	})
}

func newFeeHandlers() FeeHandlers {
	return FeeHandlers{
		Vouchers: handler.NewFeeVoucherHandler(nil, nil),
		Payments: handler.NewPaymentHandler(nil, nil),
		Reports:  handler.NewReportHandler(nil),
		System:   handler.NewSystemHandler("feeledger", "test", nil),
	}
}

func TestFeeRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	groups := RegisterFeeRoutes(r, newFeeHandlers())
	require.NotPanics(t, r.Setup)

	var routes []string
	for _, g := range groups {
		for _, info := range g.Routes(r.BasePath()) {
			routes = append(routes, info.Method+" "+info.Path)
		}
	}
	assert.ElementsMatch(t, []string{
		"POST /api/v1/branches/:branchId/vouchers",
		"GET /api/v1/branches/:branchId/vouchers",
		"GET /api/v1/branches/:branchId/payments",
		"POST /api/v1/branches/:branchId/vouchers/:id/payments/:ref/decision",
		"GET /api/v1/vouchers/:id",
		"GET /api/v1/vouchers/number/:number",
		"POST /api/v1/vouchers/:id/payments",
		"POST /api/v1" + EvidenceUploadPath,
		"POST /api/v1/vouchers/:id/cancel",
		"POST /api/v1/admin/vouchers/:id/payments/:ref/decision",
		"POST /api/v1/admin/vouchers/overdue-sweep",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
	}, routes)
}

func TestFeeRoutes_RoleGuards(t *testing.T) {
	var actor *fee.Actor
	engine := gin.New()
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ActorKey, *actor)
		}
		c.Next()
	}))
	RegisterFeeRoutes(r, newFeeHandlers())
	r.Setup()

	branchID := uuid.New()
	voucherID := uuid.New()
	parent := fee.Actor{ID: uuid.New(), Role: fee.RoleParent, BranchID: branchID}
	branchAdmin := fee.Actor{ID: uuid.New(), Role: fee.RoleBranchAdmin, BranchID: branchID}

	tests := []struct {
		name   string
		actor  *fee.Actor
		method string
		path   string
		code   int
	}{
		{"anonymous sweep", nil, http.MethodPost, "/api/v1/admin/vouchers/overdue-sweep", http.StatusUnauthorized},
		{"branch admin sweep", &branchAdmin, http.MethodPost, "/api/v1/admin/vouchers/overdue-sweep", http.StatusForbidden},
		{"branch admin platform decision", &branchAdmin, http.MethodPost, "/api/v1/admin/vouchers/" + voucherID.String() + "/payments/0/decision", http.StatusForbidden},
		{"parent branch decision", &parent, http.MethodPost, "/api/v1/branches/" + branchID.String() + "/vouchers/" + voucherID.String() + "/payments/0/decision", http.StatusForbidden},
		{"parent cancel", &parent, http.MethodPost, "/api/v1/vouchers/" + voucherID.String() + "/cancel", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor = tt.actor
			assert.Equal(t, tt.code, serve(engine, tt.method, tt.path).Code)
		})
	}
}
