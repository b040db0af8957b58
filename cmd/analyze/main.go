// Command analyze prints quick, human-readable heuristics about the themes
// in a configs directory. The boards subcommand deals many boards per theme
// and reports how many tiles are open at the start and how often two tiles
// lock each other; autoplay runs a greedy player against the engine and
// reports how often it wins.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/kamstrup/intmap"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/tilematch/game/config"
	"github.com/wricardo/mcp-training/tilematch/game/engine"
	"github.com/wricardo/mcp-training/tilematch/game/strategy"
)

// Theme is a loaded theme and the identifier it was listed under
type Theme struct {
	ID     string
	Config *engine.GameConfig
}

// BoardStats summarizes freshly dealt boards for one theme
type BoardStats struct {
	Theme         string
	Boards        int
	MinSelectable int
	MaxSelectable int
	AvgSelectable float64
	// Boards with at least one pair of equal-height tiles covering each other
	MutualBlockBoards int
	MutualBlockPairs  int
	// Openings maps a selectable-at-start count to the boards that had it
	Openings *intmap.Map[int, int]
}

// PlayStats summarizes autoplayed games for one theme
type PlayStats struct {
	Theme         string
	Games         int
	Wins          int
	Losses        int
	Stuck         int
	AvgSelections float64
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Board and playability heuristics for Tile Match themes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game themes",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:  "theme",
				Usage: "Only analyze this theme id",
			},
			&cli.UintFlag{
				Name:  "seed",
				Value: 1,
				Usage: "Seed for the first board; later boards use seed+1, seed+2, ...",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "boards",
				Usage: "Deal boards and report selectable-at-start counts and mutual blocks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Value: 100, Usage: "Boards per theme"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					themes, err := loadThemes(cmd.String("config-dir"), cmd.String("theme"))
					if err != nil {
						return err
					}
					out := cmd.Root().Writer
					for _, theme := range themes {
						printBoardStats(out, analyzeBoards(theme, int(cmd.Int("count")), uint64(cmd.Uint("seed"))))
					}
					return nil
				},
			},
			{
				Name:  "autoplay",
				Usage: "Play games with a greedy strategy and report win/loss rates",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 100, Usage: "Games per theme"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					themes, err := loadThemes(cmd.String("config-dir"), cmd.String("theme"))
					if err != nil {
						return err
					}
					out := cmd.Root().Writer
					for _, theme := range themes {
						stats, err := autoplay(theme, int(cmd.Int("games")), uint64(cmd.Uint("seed")))
						if err != nil {
							return err
						}
						printPlayStats(out, stats)
					}
					return nil
				},
			},
		},
	}
}

// loadThemes returns every valid theme in dir, or just the one named by only
func loadThemes(dir, only string) ([]Theme, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}

	if only != "" {
		cfg, err := manager.LoadConfig(only)
		if err != nil {
			return nil, err
		}
		return []Theme{{ID: only, Config: cfg}}, nil
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}

	var themes []Theme
	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			continue
		}
		themes = append(themes, Theme{ID: info.ConfigID, Config: cfg})
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("no valid themes in %s", dir)
	}
	return themes, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
}

// selectableCount counts uncleared tiles nothing covers
func selectableCount(board *engine.Board, cfg *engine.GameConfig) int {
	n := 0
	for i, tile := range board.Tiles {
		if tile.Matched {
			continue
		}
		row, col := board.Coords(i)
		if !engine.IsBlocked(board, row, col, cfg.TileSize, cfg.OverlapThreshold) {
			n++
		}
	}
	return n
}

func analyzeBoards(theme Theme, count int, seed uint64) BoardStats {
	stats := BoardStats{Theme: theme.ID, Boards: count, Openings: intmap.New[int, int](16)}
	if count <= 0 {
		return stats
	}

	cfg := theme.Config
	total := 0
	for i := 0; i < count; i++ {
		board := engine.GenerateBoard(cfg, newRand(seed+uint64(i)))

		n := selectableCount(&board, cfg)
		total += n
		seen, _ := stats.Openings.Get(n)
		stats.Openings.Put(n, seen+1)
		if i == 0 || n < stats.MinSelectable {
			stats.MinSelectable = n
		}
		if n > stats.MaxSelectable {
			stats.MaxSelectable = n
		}

		if pairs := engine.MutualBlocks(&board, cfg.TileSize, cfg.OverlapThreshold); len(pairs) > 0 {
			stats.MutualBlockBoards++
			stats.MutualBlockPairs += len(pairs)
		}
	}
	stats.AvgSelectable = float64(total) / float64(count)
	return stats
}

// playGame plays one game to the end and returns the final status and the
// number of accepted selections. A Playing status means no tile was left
// open while tiles remained.
func playGame(cfg *engine.GameConfig, seed uint64) (engine.Status, int, error) {
	scheduler := &engine.ManualScheduler{}
	e, err := engine.NewEngine(cfg, engine.WithRand(newRand(seed)), engine.WithScheduler(scheduler))
	if err != nil {
		return "", 0, err
	}
	defer e.Close()

	picks := 0
	for limit := 2*e.GetTotalTiles() + 1; limit > 0; limit-- {
		state := e.GetState()
		if state.GameOver() {
			return state.Status, picks, nil
		}
		if state.Status == engine.AwaitingClear {
			scheduler.RunAll()
			continue
		}

		cell, ok := strategy.Greedy(state)
		if !ok {
			return engine.Playing, picks, nil
		}

		if res := e.SelectTile(cell.Row, cell.Col); res.Accepted {
			picks++
		}
	}
	return e.Status(), picks, nil
}

func autoplay(theme Theme, games int, seed uint64) (PlayStats, error) {
	stats := PlayStats{Theme: theme.ID, Games: games}
	if games <= 0 {
		return stats, nil
	}

	// Clears resolve through the manual scheduler, so the delay is irrelevant
	cfg := *theme.Config
	cfg.ClearDelayMS = 0

	totalPicks := 0
	for i := 0; i < games; i++ {
		status, picks, err := playGame(&cfg, seed+uint64(i))
		if err != nil {
			return stats, fmt.Errorf("theme %s: %w", theme.ID, err)
		}
		totalPicks += picks

		switch status {
		case engine.Won:
			stats.Wins++
		case engine.Lost:
			stats.Losses++
		default:
			stats.Stuck++
		}
	}
	stats.AvgSelections = float64(totalPicks) / float64(games)
	return stats, nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func printBoardStats(w io.Writer, s BoardStats) {
	fmt.Fprintf(w, "\n=== %s: %d boards ===\n", s.Theme, s.Boards)
	fmt.Fprintf(w, "Selectable at start: min %d, max %d, avg %.1f\n", s.MinSelectable, s.MaxSelectable, s.AvgSelectable)
	fmt.Fprintf(w, "Boards with mutual blocks: %d (%.1f%%), %d pairs total\n",
		s.MutualBlockBoards, percent(s.MutualBlockBoards, s.Boards), s.MutualBlockPairs)

	if s.Openings == nil || s.Openings.Len() == 0 {
		return
	}
	fmt.Fprintln(w, "Distribution:")
	for n := s.MinSelectable; n <= s.MaxSelectable; n++ {
		if boards, ok := s.Openings.Get(n); ok {
			fmt.Fprintf(w, "  %3d open: %d\n", n, boards)
		}
	}
}

func printPlayStats(w io.Writer, s PlayStats) {
	fmt.Fprintf(w, "\n=== %s: %d games ===\n", s.Theme, s.Games)
	fmt.Fprintf(w, "Won: %d (%.1f%%)\n", s.Wins, percent(s.Wins, s.Games))
	fmt.Fprintf(w, "Lost: %d (%.1f%%)\n", s.Losses, percent(s.Losses, s.Games))
	fmt.Fprintf(w, "Stuck: %d (%.1f%%)\n", s.Stuck, percent(s.Stuck, s.Games))
	fmt.Fprintf(w, "Average accepted selections: %.1f\n", s.AvgSelections)
}
