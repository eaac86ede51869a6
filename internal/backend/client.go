package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"scoresync/internal/metrics"
	"scoresync/internal/store"
)

// StatusError is a non-2xx response from the backend. These are business
// rejections (validation failures and the like), recoverable by the caller.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Config controls how the client reaches the scoring backend.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Metrics    *metrics.Recorder
}

// Client wraps the backend's match and scoring REST endpoints. All methods
// treat any 2xx as success and everything else as a *StatusError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Recorder
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}
}

// ListMatches fetches all matches, optionally filtered by status.
func (c *Client) ListMatches(ctx context.Context, status string) ([]store.Match, error) {
	path := "/matches/"
	if status != "" {
		path += "?status=" + status
	}

	var dtos []matchDTO
	if err := c.call(ctx, "list_matches", http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}

	matches := make([]store.Match, 0, len(dtos))
	for _, dto := range dtos {
		matches = append(matches, mapMatch(dto))
	}
	return matches, nil
}

// StartMatch asks the backend to move a scheduled match to LIVE.
func (c *Client) StartMatch(ctx context.Context, matchID int) error {
	path := "/matches/" + strconv.Itoa(matchID) + "/start/"
	return c.call(ctx, "start_match", http.MethodPost, path, nil, nil)
}

// EndMatch asks the backend to move a live match to COMPLETED.
func (c *Client) EndMatch(ctx context.Context, matchID int) error {
	path := "/matches/" + strconv.Itoa(matchID) + "/end/"
	return c.call(ctx, "end_match", http.MethodPost, path, nil, nil)
}

// UpdateMatchStatus sets a match's status directly.
func (c *Client) UpdateMatchStatus(ctx context.Context, matchID int, status store.Status) error {
	path := "/matches/" + strconv.Itoa(matchID) + "/update_status/"
	return c.call(ctx, "update_status", http.MethodPost, path, updateStatusRequest{Status: string(status)}, nil)
}

// ListGames fetches the games of one match.
func (c *Client) ListGames(ctx context.Context, matchID int) ([]store.Game, error) {
	path := "/scoring/games/?match=" + strconv.Itoa(matchID)

	var dtos []gameDTO
	if err := c.call(ctx, "list_games", http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}

	games := make([]store.Game, 0, len(dtos))
	for _, dto := range dtos {
		games = append(games, mapGame(dto, matchID))
	}
	return games, nil
}

// CreateGame opens a new game for the match with the given number.
func (c *Client) CreateGame(ctx context.Context, matchID, gameNumber int) (store.Game, error) {
	body := createGameRequest{Match: matchID, GameNumber: gameNumber}

	var dto gameDTO
	if err := c.call(ctx, "create_game", http.MethodPost, "/scoring/games/", body, &dto); err != nil {
		return store.Game{}, err
	}
	return mapGame(dto, matchID), nil
}

// AddPoint records a point for a player and returns the confirmed game.
func (c *Client) AddPoint(ctx context.Context, gameID, playerID int) (store.Game, error) {
	path := "/scoring/games/" + strconv.Itoa(gameID) + "/add_point/"

	var dto gameDTO
	if err := c.call(ctx, "add_point", http.MethodPost, path, addPointRequest{Player: playerID}, &dto); err != nil {
		return store.Game{}, err
	}
	return mapGame(dto, 0), nil
}

// UndoPoint removes a game's most recent point and returns the confirmed
// game.
func (c *Client) UndoPoint(ctx context.Context, gameID int) (store.Game, error) {
	path := "/scoring/games/" + strconv.Itoa(gameID) + "/undo_point/"

	var dto gameDTO
	if err := c.call(ctx, "undo_point", http.MethodPost, path, nil, &dto); err != nil {
		return store.Game{}, err
	}
	return mapGame(dto, 0), nil
}

func (c *Client) call(ctx context.Context, operation, method, path string, body, out any) error {
	started := time.Now()
	err := c.do(ctx, method, path, body, out)
	c.metrics.RecordBackendCall(operation, time.Since(started), err)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}
