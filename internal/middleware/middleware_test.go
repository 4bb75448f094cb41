package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/auth"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const jwtSecret = "test-secret"

// fakeShops knows one shop with secret "s3cret".
type fakeShops struct{}

func (fakeShops) GetShop(_ context.Context, id string) (*models.Shop, error) {
	if id != "gallari-1" {
		return nil, service.ErrNotFound
	}
	return &models.Shop{ID: id}, nil
}

func (f fakeShops) Authenticate(ctx context.Context, id, secret string) (*models.Shop, error) {
	if id != "gallari-1" || secret != "s3cret" {
		return nil, service.ErrUnauthorized
	}
	return f.GetShop(ctx, id)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newShopRouter(t *testing.T) *gin.Engine {
	r := gin.New()
	r.GET("/api/shops/:shopId/config", ShopAuth(fakeShops{}, jwtSecret, zaptest.NewLogger(t)), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop": GetShopID(c)})
	})
	return r
}

func TestShopAuth(t *testing.T) {
	r := newShopRouter(t)
	good, err := auth.GenerateToken("gallari-1", jwtSecret, time.Hour)
	require.NoError(t, err)
	otherShop, err := auth.GenerateToken("fade-lab-2", jwtSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"header secret", "/api/shops/gallari-1/config", map[string]string{HeaderAdminSecret: "s3cret"}, http.StatusOK},
		{"query secret", "/api/shops/gallari-1/config?adminSecret=s3cret", nil, http.StatusOK},
		{"bearer", "/api/shops/gallari-1/config", map[string]string{"Authorization": "Bearer " + good}, http.StatusOK},
		{"wrong secret", "/api/shops/gallari-1/config", map[string]string{HeaderAdminSecret: "nope"}, http.StatusUnauthorized},
		{"no credentials", "/api/shops/gallari-1/config", nil, http.StatusUnauthorized},
		{"token for another shop", "/api/shops/gallari-1/config", map[string]string{"Authorization": "Bearer " + otherShop}, http.StatusUnauthorized},
		{"unknown shop", "/api/shops/ghost/config", map[string]string{HeaderAdminSecret: "s3cret"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestDashboardSession(t *testing.T) {
	r := gin.New()
	r.GET("/dashboard/shops/:shopId", DashboardSession(jwtSecret), func(c *gin.Context) {
		c.String(http.StatusOK, GetShopID(c))
	})
	token, err := auth.GenerateToken("gallari-1", jwtSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/shops/gallari-1", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gallari-1", w.Body.String())

	// Cookie for a different shop: back to login.
	req = httptest.NewRequest(http.MethodGet, "/dashboard/shops/fade-lab-2", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/dashboard/shops/gallari-1", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOperatorOnly(t *testing.T) {
	for _, tc := range []struct {
		configured, sent string
		want             int
	}{
		{"op", "op", http.StatusOK},
		{"op", "nope", http.StatusUnauthorized},
		{"", "", http.StatusUnauthorized},
	} {
		r := gin.New()
		r.GET("/api/shops", OperatorOnly(tc.configured), func(c *gin.Context) { c.Status(http.StatusOK) })
		req := httptest.NewRequest(http.MethodGet, "/api/shops", nil)
		req.Header.Set(HeaderOperatorToken, tc.sent)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "configured=%q sent=%q", tc.configured, tc.sent)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.POST("/signup", rl.Limit(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, post("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, post("10.0.0.2"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.getLimiter("10.0.0.1")

	now = now.Add(5 * time.Minute)
	rl.getLimiter("10.0.0.2")

	now = now.Add(6 * time.Minute)
	rl.Sweep()

	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}
