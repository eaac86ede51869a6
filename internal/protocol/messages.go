package protocol

import (
	json "github.com/goccy/go-json"
)

// Envelope is the wire shape shared by both directions: a tag plus an
// opaque payload that is only parsed once the tag is recognized.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound command tags. TypeScoreUpdate doubles as the inbound tag for
// match-level score frames.
const (
	TypeMatchStart  = "match_start"
	TypeMatchEnd    = "match_end"
	TypeScoreUpdate = "score_update"
)

// Inbound event tags.
const (
	TypeMatchStarted = "match_started"
	TypeMatchEnded   = "match_ended"
	TypeGameUpdate   = "game_update"
)

// MatchStartCommand asks the backend to broadcast that a match went live.
type MatchStartCommand struct {
	MatchID int `json:"match_id"`
}

// MatchEndCommand asks the backend to broadcast that a match finished.
type MatchEndCommand struct {
	MatchID int `json:"match_id"`
}

// ScoreUpdateCommand reports a referee-entered score for one player.
type ScoreUpdateCommand struct {
	MatchID int `json:"match_id"`
	Player  int `json:"player"`
	Score   int `json:"score"`
}

// ScoreUpdateEvent carries match-level aggregates pushed by the backend.
// Pointer fields distinguish "absent" from zero so partial frames only
// touch the fields they carry.
type ScoreUpdateEvent struct {
	MatchID        int     `json:"match_id"`
	ScorePlayer1   *int    `json:"score_player1,omitempty"`
	ScorePlayer2   *int    `json:"score_player2,omitempty"`
	CurrentSet     *int    `json:"current_set,omitempty"`
	SetsWonPlayer1 *int    `json:"sets_won_player1,omitempty"`
	SetsWonPlayer2 *int    `json:"sets_won_player2,omitempty"`
	Status         *string `json:"status,omitempty"`
}

// MatchStartedEvent is the backend's broadcast of a match going live.
type MatchStartedEvent struct {
	MatchID int    `json:"match_id"`
	Status  string `json:"status,omitempty"`
}

// MatchEndedEvent is the backend's broadcast of a match finishing.
type MatchEndedEvent struct {
	MatchID int    `json:"match_id"`
	Status  string `json:"status,omitempty"`
}

// GameUpdateEvent carries per-game scores after a point is recorded or
// undone on the backend.
type GameUpdateEvent struct {
	MatchID      int  `json:"match_id"`
	GameID       int  `json:"game_id"`
	Player1Score int  `json:"player1_score"`
	Player2Score int  `json:"player2_score"`
	Completed    bool `json:"completed"`
}
