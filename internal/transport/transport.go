package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"scoresync/internal/metrics"
	"scoresync/internal/protocol"
)

// State is the connection lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by Send when the connection is not open.
// The transport never queues frames: a score command replayed blindly
// after a reconnect could double-count a point.
var ErrNotConnected = errors.New("transport: not connected")

const (
	defaultMaxReconnectAttempts = 5
	defaultReconnectInterval    = 3 * time.Second
	defaultDialTimeout          = 10 * time.Second
)

// Config controls the connection and its reconnection policy. Reconnects
// fire at a fixed interval up to MaxReconnectAttempts; after that the
// client stays closed until Connect is called again.
type Config struct {
	Endpoint             string
	MaxReconnectAttempts int
	ReconnectInterval    time.Duration
	DialTimeout          time.Duration
	Logger               *slog.Logger
	Metrics              *metrics.Recorder
}

// Handlers is the callback surface. OnError is informational only: an
// error without an ensuing close does not trigger reconnection.
type Handlers struct {
	OnOpen    func()
	OnMessage func(protocol.Inbound)
	OnClose   func()
	OnError   func(error)
}

// Client owns a single websocket connection to the scoring backend.
type Client struct {
	cfg      Config
	handlers Handlers
	logger   *slog.Logger

	mu             sync.Mutex
	conn           *websocket.Conn
	state          State
	attempt        int
	reconnectTimer *time.Timer
	userClosed     bool
}

func NewClient(cfg Config, handlers Handlers) *Client {
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		handlers: handlers,
		logger:   logger.With("endpoint", cfg.Endpoint),
		state:    StateIdle,
	}
}

// Connect opens the socket. Calling it while a connection attempt is in
// flight or the socket is already open is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.userClosed = false
	c.mu.Unlock()

	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.cfg.Endpoint, nil)
	if err != nil {
		c.logger.Warn("dial failed", "error", err)

		c.mu.Lock()
		c.state = StateClosed
		if !c.userClosed {
			c.scheduleReconnectLocked()
		}
		c.mu.Unlock()

		if c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
		return err
	}

	c.mu.Lock()
	if c.userClosed {
		// Disconnect raced the dial; tear the new connection down.
		c.state = StateClosed
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
		return nil
	}
	c.conn = conn
	c.state = StateOpen
	c.attempt = 0
	c.mu.Unlock()

	c.logger.Info("connected")
	if c.handlers.OnOpen != nil {
		c.handlers.OnOpen()
	}

	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		c.dispatch(data)
	}
}

// dispatch decodes one raw frame. Decode failures are logged and dropped;
// they never tear down the connection.
func (c *Client) dispatch(data []byte) {
	msg, err := protocol.Decode(data)
	c.cfg.Metrics.RecordFrame(msg.Type, err)
	if err != nil {
		c.logger.Warn("dropping inbound frame", "error", err)
		return
	}
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(msg)
	}
}

func (c *Client) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A newer connection has replaced this one.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	requested := c.state == StateClosing
	c.state = StateClosed
	if !requested {
		c.scheduleReconnectLocked()
	}
	c.mu.Unlock()

	if requested {
		c.logger.Info("connection closed")
	} else {
		c.logger.Warn("connection lost", "error", err)
	}
	if c.handlers.OnClose != nil {
		c.handlers.OnClose()
	}
}

// scheduleReconnectLocked arms the reconnect timer if attempts remain.
// Callers hold c.mu.
func (c *Client) scheduleReconnectLocked() {
	if c.attempt >= c.cfg.MaxReconnectAttempts {
		c.logger.Warn("reconnect attempts exhausted", "attempts", c.attempt)
		return
	}
	c.attempt++
	c.cfg.Metrics.RecordReconnect()
	c.logger.Info("scheduling reconnect", "attempt", c.attempt, "interval", c.cfg.ReconnectInterval)

	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectInterval, func() {
		c.mu.Lock()
		if c.userClosed || c.state != StateClosed {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		_ = c.dial(context.Background())
	})
}

// Send encodes and writes one command. There is no buffering: if the
// socket is not open the command is rejected and the caller decides
// whether to retry.
func (c *Client) Send(ctx context.Context, command any) error {
	commandType := protocol.CommandType(command)

	frame, err := protocol.Encode(command)
	if err != nil {
		c.cfg.Metrics.RecordCommand(commandType, err)
		return err
	}

	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		c.cfg.Metrics.RecordCommand(commandType, ErrNotConnected)
		return ErrNotConnected
	}

	err = conn.Write(ctx, websocket.MessageText, frame)
	c.cfg.Metrics.RecordCommand(commandType, err)
	if err != nil {
		c.logger.Warn("send failed", "type", commandType, "error", err)
		if c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
	}
	return err
}

// Disconnect cancels any pending reconnect and closes the socket. Safe to
// call from any state, including while a dial is in flight: a dial that
// completes or fails afterwards will not reconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.userClosed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	if conn != nil {
		c.state = StateClosing
	} else {
		c.state = StateClosed
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ReconnectAttempt returns how many reconnects have been scheduled since
// the last successful open.
func (c *Client) ReconnectAttempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}
