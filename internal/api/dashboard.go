package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/auth"
	"github.com/lalith-99/nextup/internal/middleware"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

// loginFailed is the one message for every bad login, whichever of shop
// id, email or secret was wrong.
const loginFailed = "Invalid shop ID, email or admin secret."

// DashboardHandler serves the owner dashboard. Login exchanges the admin
// secret for a signed session cookie; every other route sits behind
// middleware.DashboardSession.
type DashboardHandler struct {
	registry     *service.Registry
	catalog      *service.Catalog
	ledger       *service.Ledger
	jwtSecret    string
	sessionTTL   time.Duration
	secureCookie bool
	logger       *zap.Logger
}

func NewDashboardHandler(registry *service.Registry, catalog *service.Catalog, ledger *service.Ledger,
	jwtSecret string, sessionTTL time.Duration, secureCookie bool, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		registry:     registry,
		catalog:      catalog,
		ledger:       ledger,
		jwtSecret:    jwtSecret,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type loginRequest struct {
	Email       flexString `form:"email" json:"email"`
	ShopID      flexString `form:"shopId" json:"shopId"`
	AdminSecret flexString `form:"adminSecret" json:"adminSecret"`
}

// LoginForm handles GET /dashboard
func (h *DashboardHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Title": "Dashboard"})
}

// Login handles POST /dashboard
func (h *DashboardHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.rejectLogin(c, req.ShopID.String())
		return
	}

	// The secret is compared as sent, untrimmed.
	shop, err := h.registry.AuthenticateOwner(c.Request.Context(), req.ShopID.String(), req.Email.String(), string(req.AdminSecret))
	if err != nil {
		if !errors.Is(err, service.ErrUnauthorized) {
			renderError(c, h.logger, "dashboard login", err)
			return
		}
		h.rejectLogin(c, req.ShopID.String())
		return
	}

	token, err := auth.GenerateToken(shop.ID, h.jwtSecret, h.sessionTTL)
	if err != nil {
		renderError(c, h.logger, "dashboard login", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.sessionTTL.Seconds()), "/dashboard", "", h.secureCookie, true)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"shopId":    shop.ID,
			"token":     token,
			"expiresAt": time.Now().Add(h.sessionTTL).UTC(),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/shops/"+shop.ID)
}

// rejectLogin answers every failed login the same way, malformed bodies
// included.
func (h *DashboardHandler) rejectLogin(c *gin.Context, shopID string) {
	h.logger.Info("dashboard login rejected", zap.String("shop_id", shopID))
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Title": "Dashboard", "Error": loginFailed})
}

// Logout handles POST /dashboard/logout
func (h *DashboardHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/dashboard", "", h.secureCookie, true)
	if wantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Show handles GET /dashboard/shops/:shopId
func (h *DashboardHandler) Show(c *gin.Context) {
	shopID := middleware.GetShopID(c)
	ctx := c.Request.Context()

	shop, err := h.registry.GetShop(ctx, shopID)
	if err != nil {
		renderError(c, h.logger, "dashboard", err)
		return
	}
	barbers, err := h.catalog.ListBarbers(ctx, shopID)
	if err != nil {
		renderError(c, h.logger, "dashboard", err)
		return
	}
	services, err := h.catalog.ListServices(ctx, shopID)
	if err != nil {
		renderError(c, h.logger, "dashboard", err)
		return
	}
	bookings, err := h.ledger.ListBookings(ctx, shopID, nil)
	if err != nil {
		renderError(c, h.logger, "dashboard", err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"shop":     shop.Public(),
			"barbers":  barbers,
			"services": services,
			"bookings": bookings,
		})
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":    shop.Name,
		"Shop":     shop.Public(),
		"Barbers":  barbers,
		"Services": services,
		"Bookings": bookings,
	})
}

type catalogRequest struct {
	Name            flexString `form:"name" json:"name"`
	BarberID        flexString `form:"barberId" json:"barberId"`
	ServiceID       flexString `form:"serviceId" json:"serviceId"`
	DurationMinutes flexString `form:"durationMinutes" json:"durationMinutes"`
	Price           flexString `form:"price" json:"price"`
	IsActive        flexString `form:"isActive" json:"isActive"`
}

func (r catalogRequest) serviceInput() service.ServiceInput {
	return service.ServiceInput{
		Name:            r.Name.String(),
		DurationMinutes: r.DurationMinutes.String(),
		Price:           r.Price.String(),
		IsActive:        r.IsActive.String(),
	}
}

// mutate binds the catalog form, runs fn and answers with a redirect back
// to the dashboard, or with the fresh config for JSON clients.
func (h *DashboardHandler) mutate(op string, fn func(c *gin.Context, shopID string, req catalogRequest) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID := middleware.GetShopID(c)

		var req catalogRequest
		if err := c.ShouldBind(&req); err != nil {
			if wantsJSON(c) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			renderError(c, h.logger, op, err)
			return
		}

		if err := fn(c, shopID, req); err != nil {
			renderError(c, h.logger, op, err)
			return
		}

		if wantsJSON(c) {
			cfg, err := h.catalog.Config(c.Request.Context(), shopID)
			if err != nil {
				respondError(c, h.logger, op, err)
				return
			}
			c.JSON(http.StatusOK, cfg)
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard/shops/"+shopID)
	}
}

func (h *DashboardHandler) AddBarber() gin.HandlerFunc {
	return h.mutate("add barber", func(c *gin.Context, shopID string, req catalogRequest) error {
		_, err := h.catalog.AddBarber(c.Request.Context(), shopID, req.Name.String())
		return err
	})
}

func (h *DashboardHandler) DeleteBarber() gin.HandlerFunc {
	return h.mutate("delete barber", func(c *gin.Context, shopID string, req catalogRequest) error {
		return h.catalog.RemoveBarber(c.Request.Context(), shopID, req.BarberID.String())
	})
}

func (h *DashboardHandler) AddService() gin.HandlerFunc {
	return h.mutate("add service", func(c *gin.Context, shopID string, req catalogRequest) error {
		_, err := h.catalog.AddService(c.Request.Context(), shopID, req.serviceInput())
		return err
	})
}

func (h *DashboardHandler) UpdateService() gin.HandlerFunc {
	return h.mutate("update service", func(c *gin.Context, shopID string, req catalogRequest) error {
		_, err := h.catalog.UpdateService(c.Request.Context(), shopID, req.ServiceID.String(), req.serviceInput())
		return err
	})
}

func (h *DashboardHandler) DeleteService() gin.HandlerFunc {
	return h.mutate("delete service", func(c *gin.Context, shopID string, req catalogRequest) error {
		return h.catalog.RemoveService(c.Request.Context(), shopID, req.ServiceID.String())
	})
}
