package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scoresync/internal/protocol"
	"scoresync/internal/store"
	"scoresync/internal/transport"
)

// Backend is the REST collaborator the controller calls for authoritative
// state changes.
type Backend interface {
	ListMatches(ctx context.Context, status string) ([]store.Match, error)
	StartMatch(ctx context.Context, matchID int) error
	EndMatch(ctx context.Context, matchID int) error
	ListGames(ctx context.Context, matchID int) ([]store.Game, error)
	CreateGame(ctx context.Context, matchID, gameNumber int) (store.Game, error)
	AddPoint(ctx context.Context, gameID, playerID int) (store.Game, error)
	UndoPoint(ctx context.Context, gameID int) (store.Game, error)
}

// Socket is the transport surface the controller drives. Send failures are
// tolerated: the REST write already happened and inbound broadcasts
// reconcile the store either way.
type Socket interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, command any) error
	Disconnect()
	State() transport.State
}

// Notifier receives human-readable event strings for the user-facing
// notification sink.
type Notifier func(string)

// Config wires a controller.
type Config struct {
	Backend       Backend
	Store         *store.Store
	Logger        *slog.Logger
	Notifier      Notifier
	PendingExpiry time.Duration
}

const defaultPendingExpiry = 30 * time.Second

// Controller sequences the match lifecycle: it validates preconditions,
// issues the dual REST + socket writes, and feeds inbound socket events
// into the store. It owns the transport instance for the lifetime of the
// scoring feature.
type Controller struct {
	backend Backend
	store   *store.Store
	socket  Socket
	logger  *slog.Logger
	notify  Notifier

	pendingExpiry time.Duration
	done          chan struct{}
}

func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = func(string) {}
	}
	expiry := cfg.PendingExpiry
	if expiry <= 0 {
		expiry = defaultPendingExpiry
	}
	return &Controller{
		backend:       cfg.Backend,
		store:         cfg.Store,
		logger:        logger,
		notify:        notify,
		pendingExpiry: expiry,
		done:          make(chan struct{}),
	}
}

// SocketHandlers returns the callback set to construct the transport with.
func (c *Controller) SocketHandlers() transport.Handlers {
	return transport.Handlers{
		OnOpen:    c.onSocketOpen,
		OnMessage: c.HandleInbound,
		OnClose:   c.onSocketClose,
		OnError:   c.onSocketError,
	}
}

// BindSocket attaches the transport the controller drives.
func (c *Controller) BindSocket(s Socket) {
	c.socket = s
}

// Run connects the socket, loads the initial state over REST, and starts
// the pending-point expiry sweep. Neither startup step is fatal: the
// socket's own retry policy handles dial failures, and a failed initial
// refresh leaves an empty store that the next reconnect or manual refresh
// fills in.
func (c *Controller) Run(ctx context.Context) {
	if c.socket != nil {
		if err := c.socket.Connect(ctx); err != nil {
			c.logger.Warn("initial socket connect failed", "error", err)
		}
	}

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial refresh failed, starting with empty state", "error", err)
		c.notify("backend unreachable, state will load on reconnect")
	}

	go c.expirySweep()
}

// Close tears the scoring feature down.
func (c *Controller) Close() {
	close(c.done)
	if c.socket != nil {
		c.socket.Disconnect()
	}
}

func (c *Controller) expirySweep() {
	ticker := time.NewTicker(c.pendingExpiry)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if dropped := c.store.PruneExpired(c.pendingExpiry); dropped > 0 {
				c.logger.Warn("dropped unconfirmed points", "count", dropped)
				c.notify(fmt.Sprintf("%d unconfirmed point(s) discarded", dropped))
			}
		}
	}
}

// Refresh reloads matches (and the games of live matches) over REST. Called
// on startup and whenever the socket reopens, since frames missed during an
// outage are not replayed.
func (c *Controller) Refresh(ctx context.Context) error {
	matches, err := c.backend.ListMatches(ctx, "")
	if err != nil {
		return err
	}
	for _, m := range matches {
		c.store.UpsertMatch(m)
		if m.Status != store.StatusLive {
			continue
		}
		games, err := c.backend.ListGames(ctx, m.ID)
		if err != nil {
			c.logger.Warn("failed to load games", "match_id", m.ID, "error", err)
			continue
		}
		c.store.UpsertGames(games)
	}
	return nil
}

// StartMatch moves a scheduled match to LIVE: REST first, then the socket
// broadcast. Starting a match that is not SCHEDULED is a no-op.
func (c *Controller) StartMatch(ctx context.Context, matchID int) error {
	m, ok := c.store.MatchSnapshot(matchID)
	if !ok {
		c.logger.Warn("start requested for unknown match", "match_id", matchID)
		return nil
	}
	if m.Status != store.StatusScheduled {
		c.logger.Debug("start ignored", "match_id", matchID, "status", m.Status)
		return nil
	}

	if err := c.backend.StartMatch(ctx, matchID); err != nil {
		c.notify(fmt.Sprintf("Could not start match #%d", matchID))
		return err
	}

	c.store.ApplyMatchStarted(matchID)
	c.sendCommand(ctx, protocol.MatchStartCommand{MatchID: matchID})
	c.notify(fmt.Sprintf("Match #%d is live", matchID))
	return nil
}

// EndMatch moves a live match to COMPLETED. Once completed the controller
// refuses all further scoring actions for the match.
func (c *Controller) EndMatch(ctx context.Context, matchID int) error {
	m, ok := c.store.MatchSnapshot(matchID)
	if !ok || m.Status != store.StatusLive {
		c.logger.Debug("end ignored", "match_id", matchID)
		return nil
	}

	if err := c.backend.EndMatch(ctx, matchID); err != nil {
		c.notify(fmt.Sprintf("Could not end match #%d", matchID))
		return err
	}

	c.store.ApplyMatchEnded(matchID)
	c.sendCommand(ctx, protocol.MatchEndCommand{MatchID: matchID})
	c.notify(fmt.Sprintf("Match #%d completed", matchID))
	return nil
}

// CreateGame opens the next game for a match. Rejected while a game is
// still open.
func (c *Controller) CreateGame(ctx context.Context, matchID int) (store.Game, error) {
	if err := c.store.CanCreateGame(matchID); err != nil {
		return store.Game{}, err
	}

	game, err := c.backend.CreateGame(ctx, matchID, c.store.NextGameNumber(matchID))
	if err != nil {
		c.notify(fmt.Sprintf("Could not create game for match #%d", matchID))
		return store.Game{}, err
	}

	c.store.UpsertGame(game)
	return game, nil
}

// AddPoint scores one point for the player in the given slot (1 or 2). The
// point lands in the store immediately as a pending overlay and is
// reconciled when the backend confirms; if the backend rejects it, the
// overlay entry is discarded. When no game is open one is created first.
func (c *Controller) AddPoint(ctx context.Context, matchID, slot int) error {
	if slot != 1 && slot != 2 {
		c.logger.Warn("invalid player slot", "slot", slot)
		return nil
	}

	m, ok := c.store.MatchSnapshot(matchID)
	if !ok || m.Status != store.StatusLive {
		c.logger.Debug("point ignored, match not live", "match_id", matchID)
		return nil
	}

	game, ok := c.store.OpenGame(matchID)
	if !ok {
		created, err := c.CreateGame(ctx, matchID)
		if err != nil {
			return err
		}
		game = created
	}

	pendingID, err := c.store.AddPendingPoint(matchID, game.ID, slot)
	if err != nil {
		c.logger.Debug("point rejected", "match_id", matchID, "error", err)
		return nil
	}

	playerID := m.Player1ID
	if slot == 2 {
		playerID = m.Player2ID
	}

	confirmed, err := c.backend.AddPoint(ctx, game.ID, playerID)
	if err != nil {
		c.store.DiscardPending(pendingID)
		c.notify(fmt.Sprintf("Point rejected for match #%d", matchID))
		return err
	}

	c.store.UpsertGame(confirmed)

	score := confirmed.Player1Score
	if slot == 2 {
		score = confirmed.Player2Score
	}
	c.sendCommand(ctx, protocol.ScoreUpdateCommand{MatchID: matchID, Player: slot, Score: score})

	if confirmed.Completed {
		c.notify(fmt.Sprintf("Game %d of match #%d completed", confirmed.GameNumber, matchID))
	}
	return nil
}

// UndoPoint reverts the most recent point of the match's open game.
func (c *Controller) UndoPoint(ctx context.Context, matchID int) error {
	m, ok := c.store.MatchSnapshot(matchID)
	if !ok || m.Status != store.StatusLive {
		return nil
	}

	game, ok := c.store.OpenGame(matchID)
	if !ok {
		return nil
	}

	confirmed, err := c.backend.UndoPoint(ctx, game.ID)
	if err != nil {
		c.notify(fmt.Sprintf("Could not undo point for match #%d", matchID))
		return err
	}

	c.store.UpsertGame(confirmed)
	return nil
}

// HandleInbound applies one decoded socket event to the store. All store
// transitions are idempotent, so receiving an event the REST response
// already covered is harmless.
func (c *Controller) HandleInbound(msg protocol.Inbound) {
	switch msg.Type {
	case protocol.TypeScoreUpdate:
		if c.store.ApplyScoreUpdate(*msg.ScoreUpdate) {
			c.logger.Debug("score update applied", "match_id", msg.ScoreUpdate.MatchID)
		}
	case protocol.TypeMatchStarted:
		if c.store.ApplyMatchStarted(msg.MatchStarted.MatchID) {
			c.notify(fmt.Sprintf("Match #%d is live", msg.MatchStarted.MatchID))
		}
	case protocol.TypeMatchEnded:
		if c.store.ApplyMatchEnded(msg.MatchEnded.MatchID) {
			c.notify(fmt.Sprintf("Match #%d completed", msg.MatchEnded.MatchID))
		}
	case protocol.TypeGameUpdate:
		c.store.ApplyGameUpdate(*msg.GameUpdate)
	default:
		c.logger.Warn("unhandled inbound type", "type", msg.Type)
	}
}

func (c *Controller) sendCommand(ctx context.Context, command any) {
	if c.socket == nil {
		return
	}
	if err := c.socket.Send(ctx, command); err != nil {
		c.logger.Warn("socket command not sent", "type", protocol.CommandType(command), "error", err)
	}
}

func (c *Controller) onSocketOpen() {
	c.notify("Live scoring connected")

	// Frames missed while disconnected are gone; reload over REST.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after reconnect failed", "error", err)
	}
}

func (c *Controller) onSocketClose() {
	c.notify("Live scoring disconnected")
}

func (c *Controller) onSocketError(err error) {
	// Informational only; reconnection is driven by the close event.
	c.logger.Warn("socket error", "error", err)
}
