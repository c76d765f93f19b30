package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sitesentry/sitesentry/internal/bot"
	"github.com/sitesentry/sitesentry/internal/session"
	"github.com/sitesentry/sitesentry/internal/version"
)

// ConnectionChecker reports whether the chat transport is currently open.
type ConnectionChecker interface {
	Connected() bool
}

// StatusHandler serves read-only runtime state: counters, connection state,
// and the knowledge base.
type StatusHandler struct {
	logger  *slog.Logger
	session *session.Service
	bot     *bot.Service
	conn    ConnectionChecker
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(log *slog.Logger, sess *session.Service, botService *bot.Service, conn ConnectionChecker) *StatusHandler {
	return &StatusHandler{
		logger:  log.With(slog.String("handler", "status")),
		session: sess,
		bot:     botService,
		conn:    conn,
	}
}

// Register mounts the status routes on the Echo instance.
func (h *StatusHandler) Register(e *echo.Echo) {
	e.GET("/status", h.Status)
	e.GET("/api/sites", h.Sites)
	e.GET("/api/verified", h.Verified)
}

type statusResponse struct {
	Version       string    `json:"version"`
	Connected     bool      `json:"connected"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	MessagesSeen  int64     `json:"messages_seen"`
	CommandsRun   int64     `json:"commands_run"`
	Disclosures   int64     `json:"disclosures"`
	Sites         int       `json:"sites"`
	VerifiedTrips int       `json:"verified_trips"`
}

// Status returns runtime counters and connection state.
func (h *StatusHandler) Status(c echo.Context) error {
	stats := h.bot.Stats()
	sites, verified := h.session.Counts()
	return c.JSON(http.StatusOK, statusResponse{
		Version:       version.GetInfo(),
		Connected:     h.conn.Connected(),
		UptimeSeconds: int64(time.Since(stats.StartedAt) / time.Second),
		MessagesSeen:  stats.MessagesSeen,
		CommandsRun:   stats.CommandsRun,
		Disclosures:   stats.Disclosures,
		Sites:         sites,
		VerifiedTrips: verified,
	})
}

// Sites returns the full knowledge base.
func (h *StatusHandler) Sites(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Sites())
}

// Verified returns the verified-trip list.
func (h *StatusHandler) Verified(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Verified())
}
