package backend

import "scoresync/internal/store"

// Wire DTOs for the scoring backend's REST API. Matches come back with the
// fixture (pairing) nested; games reference their match by id on create and
// nested on read.

type playerDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type fixtureDTO struct {
	ID      int       `json:"id"`
	Player1 playerDTO `json:"player1"`
	Player2 playerDTO `json:"player2"`
}

type matchDTO struct {
	ID             int        `json:"id"`
	Fixture        fixtureDTO `json:"fixture"`
	Status         string     `json:"status"`
	ScorePlayer1   int        `json:"score_player1"`
	ScorePlayer2   int        `json:"score_player2"`
	CurrentSet     int        `json:"current_set"`
	SetsWonPlayer1 int        `json:"sets_won_player1"`
	SetsWonPlayer2 int        `json:"sets_won_player2"`
}

type gameDTO struct {
	ID           int       `json:"id"`
	Match        *matchDTO `json:"match,omitempty"`
	GameNumber   int       `json:"game_number"`
	Player1Score int       `json:"player1_score"`
	Player2Score int       `json:"player2_score"`
	Completed    bool      `json:"completed"`
}

type createGameRequest struct {
	Match        int  `json:"match"`
	GameNumber   int  `json:"game_number"`
	Player1Score int  `json:"player1_score"`
	Player2Score int  `json:"player2_score"`
	Completed    bool `json:"completed"`
}

type addPointRequest struct {
	Player int `json:"player"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func mapMatch(dto matchDTO) store.Match {
	return store.Match{
		ID:             dto.ID,
		Player1ID:      dto.Fixture.Player1.ID,
		Player2ID:      dto.Fixture.Player2.ID,
		Status:         store.Status(dto.Status),
		ScorePlayer1:   dto.ScorePlayer1,
		ScorePlayer2:   dto.ScorePlayer2,
		CurrentSet:     dto.CurrentSet,
		SetsWonPlayer1: dto.SetsWonPlayer1,
		SetsWonPlayer2: dto.SetsWonPlayer2,
	}
}

func mapGame(dto gameDTO, matchID int) store.Game {
	if dto.Match != nil {
		matchID = dto.Match.ID
	}
	return store.Game{
		ID:           dto.ID,
		MatchID:      matchID,
		GameNumber:   dto.GameNumber,
		Player1Score: dto.Player1Score,
		Player2Score: dto.Player2Score,
		Completed:    dto.Completed,
	}
}
