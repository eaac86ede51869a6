package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scoresync/internal/protocol"
)

var (
	// ErrMatchNotFound is returned when an operation references a match
	// the store has never seen.
	ErrMatchNotFound = errors.New("store: match not found")

	// ErrMatchNotLive is returned when a scoring action targets a match
	// that is not in the LIVE state.
	ErrMatchNotLive = errors.New("store: match is not live")

	// ErrGameNotFound is returned when a point references an unknown game.
	ErrGameNotFound = errors.New("store: game not found")

	// ErrGameCompleted is returned when a point targets a finished game.
	ErrGameCompleted = errors.New("store: game already completed")

	// ErrOpenGameExists rejects creating a game while one is still open.
	ErrOpenGameExists = errors.New("store: match already has an open game")
)

// Store holds the client's view of matches and games. Confirmed state comes
// from the backend (REST responses and socket events); locally issued points
// sit in a pending overlay until a confirmed update covers them. All reads
// return copies, so callers never hold references into the store.
type Store struct {
	mu      sync.RWMutex
	matches map[int]*Match
	games   map[int]*Game
	pending []PendingPoint

	now func() time.Time
}

func New() *Store {
	return &Store{
		matches: make(map[int]*Match),
		games:   make(map[int]*Game),
		now:     time.Now,
	}
}

// UpsertMatch records a backend-confirmed match. Status never regresses:
// a completed match stays completed no matter what a late refresh says.
func (s *Store) UpsertMatch(m Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.matches[m.ID]
	if ok && !existing.Status.canAdvanceTo(m.Status) {
		return
	}
	copied := m
	s.matches[m.ID] = &copied
}

// UpsertGame records a backend-confirmed game and resolves any pending
// points for it: the confirmed score is now authoritative.
func (s *Store) UpsertGame(g Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertGameLocked(g)
}

// UpsertGames replaces the confirmed view of several games at once, as
// after a REST refresh.
func (s *Store) UpsertGames(games []Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range games {
		s.upsertGameLocked(g)
	}
}

func (s *Store) upsertGameLocked(g Game) {
	copied := g
	s.games[g.ID] = &copied
	s.resolvePendingLocked(g.ID)
}

// ApplyScoreUpdate merges a match-level score frame. Fields absent from the
// frame keep their current values. Updates for completed matches are stale
// and ignored. Returns true when the store changed.
func (s *Store) ApplyScoreUpdate(ev protocol.ScoreUpdateEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[ev.MatchID]
	if !ok || m.Status == StatusCompleted {
		return false
	}

	if ev.Status != nil {
		next := Status(*ev.Status)
		if !m.Status.canAdvanceTo(next) {
			return false
		}
		m.Status = next
		if next == StatusCompleted {
			s.discardPendingForMatchLocked(ev.MatchID)
		}
	}
	if ev.ScorePlayer1 != nil {
		m.ScorePlayer1 = *ev.ScorePlayer1
	}
	if ev.ScorePlayer2 != nil {
		m.ScorePlayer2 = *ev.ScorePlayer2
	}
	if ev.CurrentSet != nil {
		m.CurrentSet = *ev.CurrentSet
	}
	if ev.SetsWonPlayer1 != nil {
		m.SetsWonPlayer1 = *ev.SetsWonPlayer1
	}
	if ev.SetsWonPlayer2 != nil {
		m.SetsWonPlayer2 = *ev.SetsWonPlayer2
	}
	return true
}

// ApplyMatchStarted moves a match to LIVE. Applying it to a match that is
// already LIVE is a no-op; a completed match never regresses.
func (s *Store) ApplyMatchStarted(matchID int) bool {
	return s.transition(matchID, StatusLive)
}

// ApplyMatchEnded moves a match to COMPLETED and drops any pending points
// still riding on it. Repeats are no-ops.
func (s *Store) ApplyMatchEnded(matchID int) bool {
	return s.transition(matchID, StatusCompleted)
}

func (s *Store) transition(matchID int, next Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return false
	}
	if m.Status == next || !m.Status.canAdvanceTo(next) {
		return false
	}
	m.Status = next
	if next == StatusCompleted {
		s.discardPendingForMatchLocked(matchID)
	}
	return true
}

// ApplyGameUpdate merges a backend game frame. The owning match's terminal
// guard applies here too: once a match is completed its games are frozen.
func (s *Store) ApplyGameUpdate(ev protocol.GameUpdateEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.matches[ev.MatchID]; ok && m.Status == StatusCompleted {
		return false
	}

	g, ok := s.games[ev.GameID]
	if !ok {
		g = &Game{ID: ev.GameID, MatchID: ev.MatchID}
		s.games[ev.GameID] = g
	}
	g.Player1Score = ev.Player1Score
	g.Player2Score = ev.Player2Score
	g.Completed = ev.Completed
	s.resolvePendingLocked(ev.GameID)
	return true
}

// AddPendingPoint applies a local point optimistically and returns the
// overlay entry's id so the caller can discard it if the backend rejects
// the point.
func (s *Store) AddPendingPoint(matchID, gameID, slot int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return "", ErrMatchNotFound
	}
	if m.Status != StatusLive {
		return "", ErrMatchNotLive
	}
	g, ok := s.games[gameID]
	if !ok {
		return "", ErrGameNotFound
	}
	if g.Completed {
		return "", ErrGameCompleted
	}

	p := PendingPoint{
		ID:        uuid.New().String(),
		MatchID:   matchID,
		GameID:    gameID,
		Slot:      slot,
		CreatedAt: s.now(),
	}
	s.pending = append(s.pending, p)
	return p.ID, nil
}

// DiscardPending removes one overlay entry, typically because the REST call
// that produced it failed.
func (s *Store) DiscardPending(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.pending {
		if p.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// PruneExpired drops pending points older than maxAge and returns how many
// were dropped. A confirmation that never arrives should not inflate the
// score forever.
func (s *Store) PruneExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	kept := s.pending[:0]
	dropped := 0
	for _, p := range s.pending {
		if p.CreatedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	s.pending = kept
	return dropped
}

// PendingCount reports the size of the optimistic overlay.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// resolvePendingLocked drops every overlay entry for a game once a
// confirmed update has arrived. Last writer wins by arrival order.
func (s *Store) resolvePendingLocked(gameID int) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.GameID != gameID {
			kept = append(kept, p)
		}
	}
	s.pending = kept
}

func (s *Store) discardPendingForMatchLocked(matchID int) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.MatchID != matchID {
			kept = append(kept, p)
		}
	}
	s.pending = kept
}

// OpenGame returns the match's current non-completed game, if any.
func (s *Store) OpenGame(matchID int) (Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.games {
		if g.MatchID == matchID && !g.Completed {
			return s.effectiveGameLocked(g), true
		}
	}
	return Game{}, false
}

// NextGameNumber returns the game number a newly created game should use.
func (s *Store) NextGameNumber(matchID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	highest := 0
	for _, g := range s.games {
		if g.MatchID == matchID && g.GameNumber > highest {
			highest = g.GameNumber
		}
	}
	return highest + 1
}

// CanCreateGame reports whether the single-open-game rule allows a new
// game for the match.
func (s *Store) CanCreateGame(matchID int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.matches[matchID]; !ok {
		return ErrMatchNotFound
	}
	for _, g := range s.games {
		if g.MatchID == matchID && !g.Completed {
			return ErrOpenGameExists
		}
	}
	return nil
}

// MatchSnapshot returns a copy of one match.
func (s *Store) MatchSnapshot(matchID int) (Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[matchID]
	if !ok {
		return Match{}, false
	}
	return *m, true
}

// Snapshot returns copies of all matches ordered by id.
func (s *Store) Snapshot() []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GamesSnapshot returns the match's games with the pending overlay applied,
// ordered by game number.
func (s *Store) GamesSnapshot(matchID int) []Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Game, 0)
	for _, g := range s.games {
		if g.MatchID == matchID {
			out = append(out, s.effectiveGameLocked(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out
}

// GameSnapshot returns one game with the pending overlay applied.
func (s *Store) GameSnapshot(gameID int) (Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return Game{}, false
	}
	return s.effectiveGameLocked(g), true
}

func (s *Store) effectiveGameLocked(g *Game) Game {
	out := *g
	for _, p := range s.pending {
		if p.GameID != g.ID {
			continue
		}
		if p.Slot == 1 {
			out.Player1Score++
		} else {
			out.Player2Score++
		}
	}
	return out
}
