package line

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"
)

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	ListenAddr string
}

// Server receives LINE webhook calls and enqueues text messages for
// dispatch. The webhook is acknowledged as soon as the signature checks
// out; dispatch outcomes never reach the transport.
type Server struct {
	config ServerConfig
	client *linebot.Client
	pool   *Pool
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates the webhook server. The LINE client verifies the
// X-Line-Signature header against the channel secret during parsing, so the
// webhook route goes through the net/http adaptor to hand it the raw request.
func NewServer(config ServerConfig, client *linebot.Client, pool *Pool, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		client: client,
		pool:   pool,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/webhook", adaptor.HTTPHandlerFunc(s.handleWebhook))

	return s
}

// Run starts the webhook server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting webhook server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the webhook server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting webhook server",
		zap.String("listen", listener.Addr().String()),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the webhook server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// handleWebhook validates and acknowledges the webhook, then hands the first
// text-message event to the dispatch pool. LINE redelivers on non-2xx, so
// everything past signature verification is a 200.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	events, err := s.client.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			s.logger.Warn("webhook signature rejected")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.logger.Error("webhook parse failed", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	// Only the first event of a delivery is processed.
	if len(events) == 0 {
		return
	}
	event := events[0]

	if event.Type != linebot.EventTypeMessage {
		return
	}
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}

	var userID string
	if event.Source != nil {
		userID = event.Source.UserID
	}

	s.pool.Enqueue(Job{
		UserID: userID,
		Text:   strings.TrimSpace(message.Text),
	})
}
