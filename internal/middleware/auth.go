package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/auth"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

const (
	ContextKeyShopID = "shop_id"

	// SessionCookie holds the dashboard's signed session token.
	SessionCookie = "nextup_session"

	HeaderAdminSecret   = "X-Admin-Secret"
	HeaderOperatorToken = "X-Operator-Token"
)

// ShopAuthenticator is the slice of service.Registry the auth middleware
// needs.
type ShopAuthenticator interface {
	GetShop(ctx context.Context, shopID string) (*models.Shop, error)
	Authenticate(ctx context.Context, shopID, secret string) (*models.Shop, error)
}

// ShopAuth guards /api/shops/:shopId/... routes.
//
// The shop is looked up first so an unknown shop is a 404 with a body.
// Then either a bearer token minted for this shop or the admin secret
// (X-Admin-Secret header, or adminSecret query for clients that cannot set
// headers) must be presented. Every credential failure is the same 401.
func ShopAuth(shops ShopAuthenticator, jwtSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID := c.Param("shopId")

		if _, err := shops.GetShop(c.Request.Context(), shopID); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "shop not found"})
				return
			}
			logger.Error("shop auth lookup failed", zap.String("shop_id", shopID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if token := bearerToken(c); token != "" {
			claims, err := auth.ParseToken(token, jwtSecret)
			if err != nil || claims.ShopID != shopID {
				abortUnauthorized(c)
				return
			}
			c.Set(ContextKeyShopID, shopID)
			c.Next()
			return
		}

		secret := c.GetHeader(HeaderAdminSecret)
		if secret == "" {
			secret = c.Query("adminSecret")
		}
		if _, err := shops.Authenticate(c.Request.Context(), shopID, secret); err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				logger.Error("shop auth failed", zap.String("shop_id", shopID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			abortUnauthorized(c)
			return
		}

		c.Set(ContextKeyShopID, shopID)
		c.Next()
	}
}

// DashboardSession requires a session cookie (or bearer token) for the
// shop in the path. Browsers are sent back to the login form; JSON
// clients get a 401.
func DashboardSession(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID := c.Param("shopId")

		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		claims, err := auth.ParseToken(token, jwtSecret)
		if token == "" || err != nil || claims.ShopID != shopID {
			if WantsJSON(c) {
				abortUnauthorized(c)
				return
			}
			c.Redirect(http.StatusSeeOther, "/dashboard")
			c.Abort()
			return
		}

		c.Set(ContextKeyShopID, shopID)
		c.Next()
	}
}

// OperatorOnly guards the operator listing. An empty token disables the
// route entirely.
func OperatorOnly(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderOperatorToken)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

func GetShopID(c *gin.Context) string {
	val, exists := c.Get(ContextKeyShopID)
	if !exists {
		return ""
	}
	id, ok := val.(string)
	if !ok {
		return ""
	}
	return id
}

// WantsJSON reports whether the client sent or asked for JSON.
func WantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		// Websocket clients in browsers cannot set headers.
		return c.Query("access_token")
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
