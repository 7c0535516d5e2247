package discovery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-discovery/internal/app/observability/metrics"
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// Handler serves one Controller per websocket connection.
type Handler struct {
	cfg      Config
	deps     Deps
	logger   *zap.Logger
	upgrader websocket.Upgrader
	base     context.Context
	stop     context.CancelFunc
}

// NewHandler returns a handler creating views from cfg. checkOrigin may be
// nil to accept any origin.
func NewHandler(cfg Config, deps Deps, checkOrigin func(r *http.Request) bool) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	base, stop := context.WithCancel(context.Background())
	return &Handler{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		base:   base,
		stop:   stop,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Shutdown closes every open session with a normal close frame. Sessions
// started afterwards are closed immediately.
func (h *Handler) Shutdown() {
	h.stop()
}

// Serve upgrades the request and runs the view until either side hangs up.
// The optional "slug" query parameter deep-links a venue.
func (h *Handler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer ws.Close()

	cfg := h.cfg
	cfg.Slug = c.Query("slug")
	logger := h.logger.With(zap.String("remote", c.ClientIP()), zap.String("slug", cfg.Slug))
	deps := h.deps
	deps.Logger = logger

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	out := make(chan Outbound, sendBuffer)
	ctrl := NewController(cfg, deps, newSender(gctx, out))
	defer ctrl.Close()

	m := metrics.Get()
	m.DiscoverySessionsGauge.Add(ctx, 1)
	defer m.DiscoverySessionsGauge.Add(context.Background(), -1)
	logger.Info("Discovery session opened")

	g.Go(func() error {
		defer cancel()
		return h.readPump(ws, ctrl, logger)
	})
	g.Go(func() error {
		// Unblock the reader when writing fails.
		defer ws.Close()
		return h.writePump(gctx, ws, out)
	})

	ctrl.Start()
	if err := g.Wait(); err != nil {
		logger.Warn("Discovery session ended with error", zap.Error(err))
		return
	}
	logger.Info("Discovery session closed")
}

// newSender queues outbound messages for the write pump. Once ctx is done,
// because either pump returned, messages are dropped instead of blocking.
func newSender(ctx context.Context, out chan<- Outbound) func(Outbound) {
	return func(m Outbound) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}
}

func (h *Handler) readPump(ws *websocket.Conn, ctrl *Controller, logger *zap.Logger) error {
	ws.SetReadLimit(maxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in Inbound
		if err := ws.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return err
			}
			return nil
		}
		if err := ctrl.Handle(in); err != nil {
			logger.Warn("Rejected discovery message", zap.String("type", in.Type), zap.Error(err))
		}
	}
}

func (h *Handler) writePump(ctx context.Context, ws *websocket.Conn, out <-chan Outbound) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-out:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-ctx.Done():
			err := ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				h.logger.Debug("Close frame not sent", zap.Error(err))
			}
			return nil
		}
	}
}
