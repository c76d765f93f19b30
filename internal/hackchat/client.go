package hackchat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const reconnectDelay = 3 * time.Second

// Handler consumes decoded inbound events. Events are delivered one at a
// time from the read loop; a handler call completes before the next frame is
// decoded.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event)
}

// Options configures a Client.
type Options struct {
	URL      string
	Channel  string
	Nick     string
	Password string
	// SendPerSecond / SendBurst bound outbound sends; frames beyond the
	// limit are dropped, not queued.
	SendPerSecond float64
	SendBurst     int
}

// Client maintains one persistent connection to the chat server, decodes
// inbound frames for its Handler, and sends outbound frames. Sends while the
// connection is down are silently dropped.
type Client struct {
	opts    Options
	handler Handler
	limiter *rate.Limiter
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	open bool
}

// NewClient creates a Client. Attach the event consumer with SetHandler
// before calling Run.
func NewClient(log *slog.Logger, opts Options) *Client {
	perSecond := opts.SendPerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	burst := opts.SendBurst
	if burst <= 0 {
		burst = 5
	}
	return &Client{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  log.With(slog.String("component", "hackchat")),
	}
}

// SetHandler attaches the event consumer. Must be called before Run.
func (c *Client) SetHandler(h Handler) {
	c.handler = h
}

// Run connects and processes inbound frames until ctx is canceled,
// reconnecting after a short delay whenever the connection drops.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.runOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("connection lost", slog.Any("error", err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		timer := time.NewTimer(reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	connID := uuid.NewString()
	log := c.logger.With(slog.String("conn_id", connID))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.open = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.open = false
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	log.Info("connection open", slog.String("channel", c.opts.Channel))

	join := joinMessage{
		Cmd:     "join",
		Channel: c.opts.Channel,
		Nick:    c.opts.Nick + "#" + c.opts.Password,
	}
	if err := c.write(join); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-readDone:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn("undecodable frame, most likely a server issue", slog.Any("error", err))
			continue
		}
		if ev.Cmd == "" || c.handler == nil {
			continue
		}
		c.handler.HandleEvent(ctx, ev)
	}
}

// Connected reports whether the connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Send marshals and writes v. Frames are dropped when the connection is not
// open or the rate limiter denies; neither case is an error to the caller.
func (c *Client) Send(v any) {
	c.mu.Lock()
	open := c.open
	c.mu.Unlock()
	if !open {
		c.logger.Debug("dropping send on closed connection")
		return
	}
	if !c.limiter.Allow() {
		c.logger.Warn("dropping send, rate limit exceeded")
		return
	}
	if err := c.write(v); err != nil {
		c.logger.Error("send failed", slog.Any("error", err))
	}
}

func (c *Client) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("connection is closed")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
