package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/middleware"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

// flexString binds from a form field or from any JSON scalar. The tablet
// sends numbers and booleans where the HTML forms send text, and the
// service layer parses both the same way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return errors.New("expected a string, number or boolean")
	}
	*f = flexString(strconv.FormatBool(b))
	return nil
}

// UnmarshalParam lets gin's form binding fill a flexString.
func (f *flexString) UnmarshalParam(param string) error {
	*f = flexString(param)
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// firstOf returns the first non-empty value. Several fields have two
// accepted names (shopName/name, barberName/barberId, ...).
func firstOf(values ...flexString) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

var wantsJSON = middleware.WantsJSON

// errorBody is the JSON error shape on every endpoint.
func errorBody(err error) gin.H {
	if ve, ok := service.IsValidation(err); ok {
		return gin.H{"error": ve.Error(), "fields": ve.Fields}
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return gin.H{"error": "not found"}
	case errors.Is(err, service.ErrUnauthorized):
		return gin.H{"error": "unauthorized"}
	case errors.Is(err, service.ErrConflict):
		return gin.H{"error": "already exists"}
	}
	return gin.H{"error": "internal error"}
}

// statusFor maps service errors to HTTP status codes. Anything
// unrecognized is a storage failure.
func statusFor(err error) int {
	if _, ok := service.IsValidation(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server errors are logged with the
// operation and shop; the client only sees an opaque message.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("op", op),
			zap.String("shop_id", c.Param("shopId")),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	c.JSON(status, errorBody(err))
}

// renderError shows a plain error page for browser requests.
func renderError(c *gin.Context, logger *zap.Logger, op string, err error) {
	if wantsJSON(c) {
		respondError(c, logger, op, err)
		return
	}
	status := statusFor(err)
	msg := "Something went wrong. Please try again."
	switch status {
	case http.StatusNotFound:
		msg = "Shop not found."
	case http.StatusBadRequest:
		msg = err.Error()
	case http.StatusInternalServerError:
		logger.Error("request failed",
			zap.String("op", op),
			zap.String("shop_id", c.Param("shopId")),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	c.HTML(status, "error.html", gin.H{"Title": http.StatusText(status), "Message": msg})
}
