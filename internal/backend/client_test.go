package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"scoresync/internal/metrics"
	"scoresync/internal/store"
)

func TestListMatchesMapsFixturePlayers(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodGet, r.Method)
		assert.Equal("/matches/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":1,"fixture":{"id":5,"player1":{"id":101,"name":"Lee"},"player2":{"id":102,"name":"Chen"}},
			 "status":"SCHEDULED","score_player1":0,"score_player2":0,
			 "current_set":1,"sets_won_player1":0,"sets_won_player2":0}
		]`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	matches, err := client.ListMatches(context.Background(), "")
	assert.NoError(err)
	if assert.Len(matches, 1) {
		assert.Equal(1, matches[0].ID)
		assert.Equal(101, matches[0].Player1ID)
		assert.Equal(102, matches[0].Player2ID)
		assert.Equal(store.StatusScheduled, matches[0].Status)
		assert.Equal(1, matches[0].CurrentSet)
	}
}

func TestListMatchesStatusFilter(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("LIVE", r.URL.Query().Get("status"))
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	matches, err := client.ListMatches(context.Background(), "LIVE")
	assert.NoError(err)
	assert.Empty(matches)
}

func TestStartMatchPostsToStartAction(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal("/matches/7/start/", r.URL.Path)
		io.WriteString(w, `{"status":"match started"}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	assert.NoError(client.StartMatch(context.Background(), 7))
}

func TestAddPointSendsPlayerAndMapsGame(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/scoring/games/10/add_point/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(`{"player":101}`, string(body))
		io.WriteString(w, `{"id":10,"match":{"id":1,"fixture":{"player1":{"id":101},"player2":{"id":102}}},
			"game_number":1,"player1_score":1,"player2_score":0,"completed":false}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	game, err := client.AddPoint(context.Background(), 10, 101)
	assert.NoError(err)
	assert.Equal(10, game.ID)
	assert.Equal(1, game.MatchID)
	assert.Equal(1, game.Player1Score)
	assert.False(game.Completed)
}

func TestCreateGameSendsMatchAndNumber(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/scoring/games/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(`{"match":1,"game_number":2,"player1_score":0,"player2_score":0,"completed":false}`, string(body))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":11,"game_number":2,"player1_score":0,"player2_score":0,"completed":false}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	game, err := client.CreateGame(context.Background(), 1, 2)
	assert.NoError(err)
	assert.Equal(11, game.ID)
	assert.Equal(1, game.MatchID, "falls back to requested match when response omits it")
	assert.Equal(2, game.GameNumber)
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"Game is already completed"}`)
	}))
	defer srv.Close()

	rec := metrics.NewRecorder()
	client := NewClient(Config{BaseURL: srv.URL, Metrics: rec})

	_, err := client.AddPoint(context.Background(), 10, 101)
	assert.Error(err)

	var statusErr *StatusError
	assert.True(errors.As(err, &statusErr))
	assert.Equal(http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(statusErr.Body, "already completed")

	snap := rec.Backend("add_point")
	assert.Equal(1, snap.Calls)
	assert.Equal(1, snap.Errors)
}

func TestUndoPoint(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/scoring/games/10/undo_point/", r.URL.Path)
		io.WriteString(w, `{"id":10,"match":{"id":1},"game_number":1,"player1_score":0,"player2_score":0,"completed":false}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	game, err := client.UndoPoint(context.Background(), 10)
	assert.NoError(err)
	assert.Equal(0, game.Player1Score)
}

func TestListGames(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("1", r.URL.Query().Get("match"))
		io.WriteString(w, `[
			{"id":10,"game_number":1,"player1_score":21,"player2_score":15,"completed":true},
			{"id":11,"game_number":2,"player1_score":3,"player2_score":4,"completed":false}
		]`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	games, err := client.ListGames(context.Background(), 1)
	assert.NoError(err)
	if assert.Len(games, 2) {
		assert.Equal(1, games[0].MatchID)
		assert.True(games[0].Completed)
		assert.Equal(11, games[1].ID)
	}
}
