package api

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/events"
	"github.com/lalith-99/nextup/internal/middleware"
	"github.com/lalith-99/nextup/internal/observ"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps is everything the router needs from main.
type Deps struct {
	Registry *service.Registry
	Catalog  *service.Catalog
	Ledger   *service.Ledger
	Events   events.Subscriber
	Store    Pinger
	Limiter  *middleware.RateLimiter
	Logger   *zap.Logger

	JWTSecret     string
	SessionTTL    time.Duration
	OperatorToken string
	PublicBaseURL string
	Location      *time.Location
	SecureCookies bool
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(observ.GinLogger(d.Logger), gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Limit()
	}

	signup := NewSignupHandler(d.Registry, d.PublicBaseURL, d.Logger)
	booking := NewBookingHandler(d.Registry, d.Catalog, d.Ledger, d.Logger)
	dashboard := NewDashboardHandler(d.Registry, d.Catalog, d.Ledger, d.JWTSecret, d.SessionTTL, d.SecureCookies, d.Logger)
	tenant := NewTenantHandler(d.Catalog, d.Ledger, d.Location, d.JWTSecret, d.SessionTTL, d.Logger)
	health := NewHealthHandler(d.Registry, d.Store, d.Logger)

	r.GET("/health", health.Check)

	// Public pages.
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/signup") })
	r.GET("/signup", signup.Form)
	r.POST("/signup", limit, signup.Submit)
	r.GET("/book/:shopId", booking.Form)
	r.POST("/book/:shopId", limit, booking.Submit)

	// Dashboard: login is public, the rest needs a session for the shop.
	r.GET("/dashboard", dashboard.LoginForm)
	r.POST("/dashboard", limit, dashboard.Login)
	r.POST("/dashboard/logout", dashboard.Logout)
	dash := r.Group("/dashboard/shops/:shopId", middleware.DashboardSession(d.JWTSecret))
	dash.GET("", dashboard.Show)
	dash.POST("/barbers/add", dashboard.AddBarber())
	dash.POST("/barbers/delete", dashboard.DeleteBarber())
	dash.POST("/services/add", dashboard.AddService())
	dash.POST("/services/update", dashboard.UpdateService())
	dash.POST("/services/delete", dashboard.DeleteService())

	// Tenant API.
	r.GET("/api/shops", middleware.OperatorOnly(d.OperatorToken), signup.List)
	r.POST("/api/shops", limit, signup.Create)

	shop := r.Group("/api/shops/:shopId", middleware.ShopAuth(d.Registry, d.JWTSecret, d.Logger))
	shop.GET("/config", tenant.Config)
	shop.GET("/bookings", tenant.ListBookings)
	shop.POST("/bookings", tenant.CreateWalkIn)
	shop.PATCH("/bookings/:bookingId/status", tenant.SetStatus)
	shop.POST("/token", tenant.IssueToken)
	if d.Events != nil {
		stream := NewStreamHandler(d.Events, d.Logger)
		shop.GET("/bookings/stream", stream.Serve)
	}

	return r, nil
}
