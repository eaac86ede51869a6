package scoreboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"scoresync/internal/store"
	"scoresync/internal/transport"
)

type fixedState transport.State

func (f fixedState) State() transport.State { return transport.State(f) }

func newTestServer() (*Server, *store.Store) {
	st := store.New()
	st.UpsertMatch(store.Match{ID: 1, Player1ID: 101, Player2ID: 102, Status: store.StatusLive, ScorePlayer1: 11})
	st.UpsertMatch(store.Match{ID: 2, Status: store.StatusScheduled})
	st.UpsertGame(store.Game{ID: 10, MatchID: 1, GameNumber: 1, Player1Score: 11, Player2Score: 8})
	return NewServer(st, fixedState(transport.StateOpen), nil), st
}

func TestHealthz(t *testing.T) {
	assert := assert.New(t)
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Routes(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(http.StatusOK, rec.Code)
}

func TestStatusReportsSocketState(t *testing.T) {
	assert := assert.New(t)
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Routes(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(http.StatusOK, rec.Code)

	var body map[string]any
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal("open", body["socket"])
	assert.Equal(float64(2), body["matches"])
}

func TestListMatches(t *testing.T) {
	assert := assert.New(t)
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Routes(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches", nil))
	assert.Equal(http.StatusOK, rec.Code)

	var matches []store.Match
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &matches))
	if assert.Len(matches, 2) {
		assert.Equal(1, matches[0].ID)
		assert.Equal(11, matches[0].ScorePlayer1)
	}
}

func TestGetMatch(t *testing.T) {
	assert := assert.New(t)
	srv, _ := newTestServer()
	router := srv.Routes(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/1", nil))
	assert.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/99", nil))
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/abc", nil))
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestListGamesIncludesOverlay(t *testing.T) {
	assert := assert.New(t)
	srv, st := newTestServer()

	_, err := st.AddPendingPoint(1, 10, 2)
	assert.NoError(err)

	rec := httptest.NewRecorder()
	srv.Routes(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/1/games", nil))
	assert.Equal(http.StatusOK, rec.Code)

	var games []store.Game
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &games))
	if assert.Len(games, 1) {
		assert.Equal(9, games[0].Player2Score, "pending point visible to displays")
	}
}
