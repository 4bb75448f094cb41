package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

// BookingHandler serves the customer-facing booking form.
type BookingHandler struct {
	registry *service.Registry
	catalog  *service.Catalog
	ledger   *service.Ledger
	logger   *zap.Logger
}

func NewBookingHandler(registry *service.Registry, catalog *service.Catalog, ledger *service.Ledger, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{registry: registry, catalog: catalog, ledger: ledger, logger: logger}
}

// bookingRequest is shared by the customer form and the tablet's walk-in
// call, which uses ids and a single dateISO/dateTime instead.
type bookingRequest struct {
	ClientName  flexString `form:"clientName" json:"clientName"`
	ClientPhone flexString `form:"clientPhone" json:"clientPhone"`
	BarberName  flexString `form:"barberName" json:"barberName"`
	BarberID    flexString `form:"barberId" json:"barberId"`
	ServiceName flexString `form:"serviceName" json:"serviceName"`
	ServiceID   flexString `form:"serviceId" json:"serviceId"`
	Date        flexString `form:"date" json:"date"`
	Time        flexString `form:"time" json:"time"`
	DateTime    flexString `form:"dateTime" json:"dateTime"`
	DateISO     flexString `form:"dateISO" json:"dateISO"`
	Notes       flexString `form:"notes" json:"notes"`
}

func (r bookingRequest) input(shopID string) service.BookingInput {
	return service.BookingInput{
		ShopID:      shopID,
		ClientName:  r.ClientName.String(),
		ClientPhone: r.ClientPhone.String(),
		ServiceRef:  firstOf(r.ServiceID, r.ServiceName),
		BarberRef:   firstOf(r.BarberID, r.BarberName),
		Date:        r.Date.String(),
		Time:        r.Time.String(),
		DateTime:    firstOf(r.DateTime, r.DateISO),
		Notes:       r.Notes.String(),
	}
}

// bookingForm refills the booking page after a validation error.
type bookingForm struct {
	ClientName  string
	ClientPhone string
	Date        string
	Time        string
	Notes       string
}

// formData loads what the booking page needs: shop name, barbers and the
// active services.
func (h *BookingHandler) formData(c *gin.Context, shopID string) (gin.H, error) {
	ctx := c.Request.Context()
	shop, err := h.registry.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	barbers, err := h.catalog.ListBarbers(ctx, shopID)
	if err != nil {
		return nil, err
	}
	services, err := h.catalog.ListActiveServices(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"Title":    "Book at " + shop.Name,
		"ShopID":   shop.ID,
		"ShopName": shop.Name,
		"Barbers":  barbers,
		"Services": services,
		"Form":     bookingForm{},
	}, nil
}

// Form handles GET /book/:shopId
func (h *BookingHandler) Form(c *gin.Context) {
	shopID := c.Param("shopId")
	data, err := h.formData(c, shopID)
	if err != nil {
		renderError(c, h.logger, "booking form", err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"shopId":   data["ShopID"],
			"name":     data["ShopName"],
			"barbers":  data["Barbers"],
			"services": data["Services"],
		})
		return
	}
	c.HTML(http.StatusOK, "book.html", data)
}

// Submit handles POST /book/:shopId
func (h *BookingHandler) Submit(c *gin.Context) {
	shopID := c.Param("shopId")

	var req bookingRequest
	if err := c.ShouldBind(&req); err != nil {
		if wantsJSON(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		renderError(c, h.logger, "create booking", err)
		return
	}

	in := req.input(shopID)
	booking, err := h.ledger.CreateBooking(c.Request.Context(), in)
	if err != nil {
		if wantsJSON(c) {
			respondError(c, h.logger, "create booking", err)
			return
		}
		if _, ok := service.IsValidation(err); !ok {
			renderError(c, h.logger, "create booking", err)
			return
		}
		// Re-render the form with what the customer typed.
		data, ferr := h.formData(c, shopID)
		if ferr != nil {
			renderError(c, h.logger, "booking form", ferr)
			return
		}
		data["Error"] = err.Error()
		data["Form"] = bookingForm{
			ClientName:  in.ClientName,
			ClientPhone: in.ClientPhone,
			Date:        in.Date,
			Time:        in.Time,
			Notes:       in.Notes,
		}
		c.HTML(http.StatusBadRequest, "book.html", data)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, booking)
		return
	}
	c.HTML(http.StatusCreated, "book_done.html", gin.H{"Title": "Booked", "Booking": booking})
}
