package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/nextup/internal/events"
	"github.com/lalith-99/nextup/internal/middleware"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamHandler pushes a shop's booking events to the tablet over a
// websocket. The socket is send-only: anything the client writes is
// discarded, and reading only serves to notice the disconnect.
type StreamHandler struct {
	bus      events.Subscriber
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStreamHandler allows any origin: the route is already behind shop
// auth, and CORS is handled by the outer cors wrapper.
func NewStreamHandler(bus events.Subscriber, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve handles GET /api/shops/:shopId/bookings/stream
func (h *StreamHandler) Serve(c *gin.Context) {
	shopID := middleware.GetShopID(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, unsubscribe, err := h.bus.Subscribe(ctx, shopID)
	if err != nil {
		respondError(c, h.logger, "subscribe bookings", err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.String("shop_id", shopID), zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("booking stream opened", zap.String("shop_id", shopID))
	defer h.logger.Info("booking stream closed", zap.String("shop_id", shopID))

	// Reader: keeps pong deadlines fresh and cancels on disconnect.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-stream:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
