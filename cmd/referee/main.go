package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"scoresync/internal/backend"
	"scoresync/internal/config"
	"scoresync/internal/metrics"
	"scoresync/internal/scoring"
	"scoresync/internal/store"
	"scoresync/internal/transport"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec, _, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:      cfg.MetricsEnabled,
		ServiceName:  "scoresync-referee",
		OtlpEndpoint: cfg.OtlpEndpoint,
		OtlpInsecure: cfg.OtlpInsecure,
	})
	if err != nil {
		logger.Error("metrics setup failed", "error", err)
		os.Exit(1)
	}

	st := store.New()
	api := backend.NewClient(backend.Config{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Metrics:    rec,
	})

	ctrl := scoring.NewController(scoring.Config{
		Backend:       api,
		Store:         st,
		Logger:        logger,
		Notifier:      func(msg string) { fmt.Println(">>", msg) },
		PendingExpiry: cfg.PendingExpiry,
	})

	sock := transport.NewClient(transport.Config{
		Endpoint:             cfg.SocketURL,
		MaxReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectInterval:    cfg.ReconnectInterval,
		Logger:               logger,
		Metrics:              rec,
	}, ctrl.SocketHandlers())
	ctrl.BindSocket(sock)

	ctrl.Run(ctx)

	fmt.Println("referee console ready, type 'help' for commands")
	go commandLoop(ctx, stop, ctrl, st, sock)

	<-ctx.Done()

	ctrl.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", "error", err)
	}
	fmt.Println("bye")
}

func commandLoop(ctx context.Context, stop context.CancelFunc, ctrl *scoring.Controller, st *store.Store, sock *transport.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printHelp()
		case "list":
			for _, m := range st.Snapshot() {
				fmt.Printf("match #%d  %s  %d-%d (set %d, sets %d-%d)\n",
					m.ID, m.Status, m.ScorePlayer1, m.ScorePlayer2,
					m.CurrentSet, m.SetsWonPlayer1, m.SetsWonPlayer2)
			}
		case "games":
			matchID, ok := intArg(fields, 1)
			if !ok {
				continue
			}
			for _, g := range st.GamesSnapshot(matchID) {
				marker := " "
				if !g.Completed {
					marker = "*"
				}
				fmt.Printf("%s game %d  %d-%d\n", marker, g.GameNumber, g.Player1Score, g.Player2Score)
			}
		case "start":
			if matchID, ok := intArg(fields, 1); ok {
				if err := ctrl.StartMatch(ctx, matchID); err != nil {
					fmt.Println("!!", err)
				}
			}
		case "end":
			if matchID, ok := intArg(fields, 1); ok {
				if err := ctrl.EndMatch(ctx, matchID); err != nil {
					fmt.Println("!!", err)
				}
			}
		case "point":
			matchID, ok1 := intArg(fields, 1)
			slot, ok2 := intArg(fields, 2)
			if ok1 && ok2 {
				if err := ctrl.AddPoint(ctx, matchID, slot); err != nil {
					fmt.Println("!!", err)
				}
			}
		case "undo":
			if matchID, ok := intArg(fields, 1); ok {
				if err := ctrl.UndoPoint(ctx, matchID); err != nil {
					fmt.Println("!!", err)
				}
			}
		case "game":
			if matchID, ok := intArg(fields, 1); ok {
				g, err := ctrl.CreateGame(ctx, matchID)
				if err != nil {
					fmt.Println("!!", err)
				} else {
					fmt.Printf("game %d opened\n", g.GameNumber)
				}
			}
		case "refresh":
			if err := ctrl.Refresh(ctx); err != nil {
				fmt.Println("!!", err)
			}
		case "reconnect":
			if err := sock.Connect(ctx); err != nil {
				fmt.Println("!!", err)
			}
		case "status":
			fmt.Printf("socket: %s (attempt %d)\n", sock.State(), sock.ReconnectAttempt())
		case "quit", "exit":
			stop()
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func intArg(fields []string, index int) (int, bool) {
	if index >= len(fields) {
		fmt.Println("missing argument")
		return 0, false
	}
	v, err := strconv.Atoi(fields[index])
	if err != nil {
		fmt.Println("not a number:", fields[index])
		return 0, false
	}
	return v, true
}

func printHelp() {
	fmt.Print(`commands:
  list                 show all matches
  games <match>        show a match's games (* = open)
  start <match>        start a scheduled match
  end <match>          finish a live match
  point <match> <1|2>  score a point for player 1 or 2
  undo <match>         undo the last point in the open game
  game <match>         open the next game
  refresh              reload state from the backend
  reconnect            reconnect the socket after retries ran out
  status               show socket state
  quit                 exit
`)
}
