// Command bot plays Tile Match against a running game server through its
// REST API. It creates (or resumes) a session, restarts it, and picks tiles
// with the greedy strategy until it wins or runs out of attempts. Every pick
// goes through the same endpoints a human client uses, so watching the
// session over WebSocket shows the bot playing.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/tilematch/game/engine"
	"github.com/wricardo/mcp-training/tilematch/game/strategy"
)

var errNoVictory = errors.New("failed to win")

// Bot drives one session until it wins
type Bot struct {
	client *Client
	// Pause between picks; zero plays as fast as the server answers
	Delay time.Duration
	// How often to poll while a triple is waiting to clear
	PollInterval time.Duration
	// Upper bound on polls per attempt so a stuck server cannot hang the bot
	MaxPolls int
}

// Attempt is the outcome of one game
type Attempt struct {
	Number int
	Picks  int
	Status engine.Status
	Stuck  bool
}

func NewBot(client *Client) *Bot {
	return &Bot{
		client:       client,
		PollInterval: 50 * time.Millisecond,
		MaxPolls:     1000,
	}
}

// waitForClear polls until the pending triple has cleared
func (b *Bot) waitForClear(ctx context.Context, state *engine.GameState) (*engine.GameState, error) {
	for polls := 0; state.Status == engine.AwaitingClear; polls++ {
		if polls >= b.MaxPolls {
			return nil, fmt.Errorf("match never cleared after %d polls", polls)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.PollInterval):
		}

		var err error
		if state, err = b.client.GetState(ctx); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// playOnce plays from state until the game ends or no tile is open
func (b *Bot) playOnce(ctx context.Context, number int, state *engine.GameState) (Attempt, error) {
	attempt := Attempt{Number: number}

	for {
		var err error
		if state, err = b.waitForClear(ctx, state); err != nil {
			return attempt, err
		}
		if state.GameOver() {
			attempt.Status = state.Status
			return attempt, nil
		}

		cell, ok := strategy.Greedy(state)
		if !ok {
			attempt.Status = state.Status
			attempt.Stuck = true
			return attempt, nil
		}
		if strategy.Risky(state, cell) {
			log.Debug().Int("row", cell.Row).Int("col", cell.Col).Msg("forced to fill the last slot")
		}

		result, err := b.client.Select(ctx, cell.Row, cell.Col)
		if err != nil {
			return attempt, err
		}
		if !result.Selection.Accepted {
			return attempt, fmt.Errorf("pick (%d,%d) ignored: %s", cell.Row, cell.Col, result.Selection.Reason)
		}
		attempt.Picks++
		state = result.GameState

		log.Debug().
			Int("row", cell.Row).
			Int("col", cell.Col).
			Str("symbol", result.Selection.Symbol).
			Int("cleared", state.MatchedCount).
			Int("total", state.TotalTiles).
			Msg("pick")

		if b.Delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(b.Delay):
			}
		}
	}
}

// Play restarts the session and plays up to maxAttempts games. It returns
// every attempt made and errNoVictory when none was won.
func (b *Bot) Play(ctx context.Context, maxAttempts int) ([]Attempt, error) {
	var attempts []Attempt
	for n := 1; n <= maxAttempts; n++ {
		state, err := b.client.Restart(ctx)
		if err != nil {
			return attempts, fmt.Errorf("restart: %w", err)
		}

		attempt, err := b.playOnce(ctx, n, state)
		attempts = append(attempts, attempt)
		if err != nil {
			return attempts, err
		}

		log.Info().
			Int("attempt", n).
			Int("picks", attempt.Picks).
			Str("status", string(attempt.Status)).
			Bool("stuck", attempt.Stuck).
			Msg("attempt finished")

		if attempt.Status == engine.Won {
			return attempts, nil
		}
	}
	return attempts, errNoVictory
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Play Tile Match against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("GAME_SERVER_URL")},
			&cli.StringFlag{Name: "config", Usage: "Theme id for a new session (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File remembering the last session ID (empty disables)"},
			&cli.IntFlag{Name: "max-attempts", Value: 100, Usage: "Maximum games before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between picks"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log every pick"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cmd.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	client := NewClient(cmd.String("url"))
	log.Info().Str("url", cmd.String("url")).Msg("connecting to game server")

	sessionFile := cmd.String("session-file")
	sessionID := cmd.String("continue")
	if sessionID == "" && sessionFile != "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	resumed := false
	if sessionID != "" {
		if _, err := client.Resume(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("failed to resume session, creating a new one")
		} else {
			resumed = true
			log.Info().Str("session", sessionID).Msg("resuming session")
		}
	}

	if !resumed {
		state, err := client.CreateSession(ctx, cmd.String("config"))
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		log.Info().Str("session", client.SessionID()).Str("theme", state.ConfigName).Int("tiles", state.TotalTiles).Msg("session created")

		if sessionFile != "" {
			if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0644); err != nil {
				log.Warn().Err(err).Msg("failed to save session ID")
			}
		}
	}

	bot := NewBot(client)
	bot.Delay = cmd.Duration("delay")

	attempts, err := bot.Play(ctx, int(cmd.Int("max-attempts")))
	if err != nil {
		log.Error().Err(err).Int("attempts", len(attempts)).Str("session", client.SessionID()).Msg("no victory")
		return err
	}

	last := attempts[len(attempts)-1]
	log.Info().Int("attempt", last.Number).Int("picks", last.Picks).Str("session", client.SessionID()).Msg("🎉 victory")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}
