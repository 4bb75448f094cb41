package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/auth"
	"github.com/lalith-99/nextup/internal/middleware"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

// TenantHandler is the JSON API the shop's tablet talks to. Every route
// runs behind middleware.ShopAuth, so the shop exists and the caller holds
// its secret or a token minted for it.
type TenantHandler struct {
	catalog   *service.Catalog
	ledger    *service.Ledger
	loc       *time.Location
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewTenantHandler(catalog *service.Catalog, ledger *service.Ledger, loc *time.Location,
	jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *TenantHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TenantHandler{
		catalog:   catalog,
		ledger:    ledger,
		loc:       loc,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Config handles GET /api/shops/:shopId/config
func (h *TenantHandler) Config(c *gin.Context) {
	cfg, err := h.catalog.Config(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		respondError(c, h.logger, "get config", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// parseSince accepts an RFC 3339 timestamp or a bare date (start of that
// day in the booking time zone).
func (h *TenantHandler) parseSince(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, h.loc); err == nil {
		return &t, true
	}
	return nil, false
}

// ListBookings handles GET /api/shops/:shopId/bookings?since=
func (h *TenantHandler) ListBookings(c *gin.Context) {
	since, ok := h.parseSince(c.Query("since"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339 or YYYY-MM-DD", "fields": []string{"since"}})
		return
	}

	bookings, err := h.ledger.ListBookings(c.Request.Context(), middleware.GetShopID(c), since)
	if err != nil {
		respondError(c, h.logger, "list bookings", err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// CreateWalkIn handles POST /api/shops/:shopId/bookings
func (h *TenantHandler) CreateWalkIn(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	booking, err := h.ledger.CreateWalkIn(c.Request.Context(), req.input(middleware.GetShopID(c)))
	if err != nil {
		respondError(c, h.logger, "create walk-in", err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

type statusRequest struct {
	Status flexString `json:"status"`
}

// SetStatus handles PATCH /api/shops/:shopId/bookings/:bookingId/status
func (h *TenantHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	booking, err := h.ledger.SetStatus(c.Request.Context(), middleware.GetShopID(c), c.Param("bookingId"), req.Status.String())
	if err != nil {
		respondError(c, h.logger, "set booking status", err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// IssueToken handles POST /api/shops/:shopId/token. The tablet trades the
// admin secret for a bearer token once instead of sending the secret on
// every call.
func (h *TenantHandler) IssueToken(c *gin.Context) {
	shopID := middleware.GetShopID(c)
	token, err := auth.GenerateToken(shopID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, h.logger, "issue token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"shopId":    shopID,
		"token":     token,
		"tokenType": "Bearer",
		"expiresAt": time.Now().Add(h.tokenTTL).UTC(),
	})
}
