package store

import "time"

// Status is a match's lifecycle phase. Transitions only move forward:
// SCHEDULED -> LIVE -> COMPLETED.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusCompleted Status = "COMPLETED"
)

// rank orders statuses so regressions can be rejected.
func (s Status) rank() int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusLive:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// canAdvanceTo reports whether moving from s to next is a forward (or
// repeated) transition.
func (s Status) canAdvanceTo(next Status) bool {
	nr := next.rank()
	return nr >= 0 && nr >= s.rank()
}

// Match is the client-side view of one scheduled contest.
type Match struct {
	ID             int    `json:"id"`
	Player1ID      int    `json:"player1_id"`
	Player2ID      int    `json:"player2_id"`
	Status         Status `json:"status"`
	ScorePlayer1   int    `json:"score_player1"`
	ScorePlayer2   int    `json:"score_player2"`
	CurrentSet     int    `json:"current_set"`
	SetsWonPlayer1 int    `json:"sets_won_player1"`
	SetsWonPlayer2 int    `json:"sets_won_player2"`
}

// Game is one set within a match.
type Game struct {
	ID           int  `json:"id"`
	MatchID      int  `json:"match_id"`
	GameNumber   int  `json:"game_number"`
	Player1Score int  `json:"player1_score"`
	Player2Score int  `json:"player2_score"`
	Completed    bool `json:"completed"`
}

// PendingPoint is a locally applied point that the backend has not
// confirmed yet. It overlays the confirmed game score until a confirmed
// update for the game arrives, the originating call fails, or it expires.
type PendingPoint struct {
	ID        string
	MatchID   int
	GameID    int
	Slot      int
	CreatedAt time.Time
}
