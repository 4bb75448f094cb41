package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

// SignupHandler serves shop provisioning: the public signup form and the
// JSON endpoints under /api/shops.
type SignupHandler struct {
	registry *service.Registry
	baseURL  string
	logger   *zap.Logger
}

func NewSignupHandler(registry *service.Registry, baseURL string, logger *zap.Logger) *SignupHandler {
	return &SignupHandler{registry: registry, baseURL: baseURL, logger: logger}
}

// signupRequest accepts the form's field names and the API's.
type signupRequest struct {
	ShopName   flexString `form:"shopName" json:"shopName"`
	Name       flexString `form:"name" json:"name"`
	OwnerName  flexString `form:"ownerName" json:"ownerName"`
	Email      flexString `form:"email" json:"email"`
	OwnerEmail flexString `form:"ownerEmail" json:"ownerEmail"`
	City       flexString `form:"city" json:"city"`
}

func (r signupRequest) input() service.SignupInput {
	return service.SignupInput{
		Name:       firstOf(r.ShopName, r.Name),
		OwnerEmail: firstOf(r.Email, r.OwnerEmail),
		OwnerName:  r.OwnerName.String(),
		City:       r.City.String(),
	}
}

// signupForm refills the signup page after a validation error.
type signupForm struct {
	ShopName  string
	OwnerName string
	Email     string
	City      string
}

// signupResponse is the only payload that ever carries the admin secret.
type signupResponse struct {
	OK                 bool      `json:"ok"`
	ShopID             string    `json:"shopId"`
	ShopName           string    `json:"shopName"`
	OwnerEmail         string    `json:"ownerEmail"`
	AdminSecret        string    `json:"adminSecret"`
	BookingURL         string    `json:"bookingUrl"`
	APIURL             string    `json:"apiUrl"`
	DashboardURL       string    `json:"dashboardUrl"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (h *SignupHandler) response(shop *models.Shop) signupResponse {
	return signupResponse{
		OK:                 true,
		ShopID:             shop.ID,
		ShopName:           shop.Name,
		OwnerEmail:         shop.OwnerEmail,
		AdminSecret:        shop.AdminSecret,
		BookingURL:         h.baseURL + "/book/" + shop.ID,
		APIURL:             h.baseURL + "/api/shops/" + shop.ID,
		DashboardURL:       h.baseURL + "/dashboard",
		SubscriptionStatus: shop.SubscriptionStatus,
		CreatedAt:          shop.CreatedAt,
	}
}

// Form handles GET /signup
func (h *SignupHandler) Form(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{"Title": "Sign up", "Form": signupForm{}})
}

// Submit handles POST /signup: HTML for the browser form, JSON otherwise.
func (h *SignupHandler) Submit(c *gin.Context) {
	if wantsJSON(c) {
		h.Create(c)
		return
	}

	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", gin.H{"Title": "Sign up", "Form": signupForm{}, "Error": "Could not read the form."})
		return
	}

	in := req.input()
	shop, err := h.registry.CreateShop(c.Request.Context(), in)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			renderError(c, h.logger, "signup", err)
			return
		}
		c.HTML(status, "signup.html", gin.H{
			"Title": "Sign up",
			"Error": err.Error(),
			"Form": signupForm{
				ShopName:  in.Name,
				OwnerName: in.OwnerName,
				Email:     in.OwnerEmail,
				City:      in.City,
			},
		})
		return
	}

	c.HTML(http.StatusCreated, "signup_done.html", gin.H{"Title": shop.Name, "Shop": h.response(shop)})
}

// Create handles POST /api/shops (and JSON posts to /signup).
func (h *SignupHandler) Create(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	shop, err := h.registry.CreateShop(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, h.logger, "create shop", err)
		return
	}
	c.JSON(http.StatusCreated, h.response(shop))
}

// List handles GET /api/shops, operator only.
func (h *SignupHandler) List(c *gin.Context) {
	shops, err := h.registry.ListShops(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list shops", err)
		return
	}
	c.JSON(http.StatusOK, shops)
}
