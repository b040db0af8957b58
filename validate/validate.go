// Command validate checks every Tile Match theme JSON file in a directory.
// It checks:
//   - JSON structure, with unknown keys rejected to catch typos
//   - The engine's validation rules (symbols, layout, slots, geometry, regions, messages)
//   - Playability: sample boards must deal at least one uncovered tile
//
// It prints a report per file and exits with status 1 when any file is invalid.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/tilematch/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors explain why a file is invalid; Info is only filled for valid files.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

var errInvalidConfigs = errors.New("some configurations have errors")

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single theme file, dealing sample
// boards to check that a game can start.
func validateConfig(filePath string, sampleBoards int) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	openings := validateOpenings(&config, sampleBoards)
	if !openings.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, openings.Errors...)
		return result
	}

	board := engine.GenerateBoard(&config, rand.New(rand.NewPCG(1, 2)))
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Symbols: %d (%s)", len(config.Symbols), strings.Join(config.Symbols, " ")),
		fmt.Sprintf("✓ Tiles: %d on a %dx%d grid", config.TotalTiles(), board.Rows, board.Cols),
		fmt.Sprintf("✓ Slots: %d", config.SlotCount),
		fmt.Sprintf("✓ Tile size: %g, overlap threshold: %g", config.TileSize, config.OverlapThreshold),
		fmt.Sprintf("✓ Clear delay: %s", config.ClearDelay()),
		fmt.Sprintf("✓ Regions: %d", len(config.Regions)),
	)
	result.Info = append(result.Info, openings.Info...)
	return result
}

// validateOpenings deals n boards and fails when any of them starts with
// every tile covered. Boards with equal-height tiles covering each other are
// reported but do not fail the theme.
func validateOpenings(config *engine.GameConfig, n int) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	if n <= 0 {
		return result
	}

	closed := 0
	locked := 0
	minOpen := -1
	for seed := 0; seed < n; seed++ {
		board := engine.GenerateBoard(config, rand.New(rand.NewPCG(uint64(seed), 0xda3e39cb94b95bdb)))

		open := 0
		for i, tile := range board.Tiles {
			row, col := board.Coords(i)
			if !tile.Matched && !engine.IsBlocked(&board, row, col, config.TileSize, config.OverlapThreshold) {
				open++
			}
		}
		if open == 0 {
			closed++
		}
		if minOpen < 0 || open < minOpen {
			minOpen = open
		}
		if len(engine.MutualBlocks(&board, config.TileSize, config.OverlapThreshold)) > 0 {
			locked++
		}
	}

	if closed > 0 {
		result.fail("Playability failure: %d/%d sample boards start with every tile covered", closed, n)
		return result
	}

	result.Info = append(result.Info, fmt.Sprintf("✓ Openings: at least %d uncovered tiles across %d sample boards", minOpen, n))
	if locked > 0 {
		result.Info = append(result.Info, fmt.Sprintf("⚠ Mutual blocks: %d/%d sample boards have equal-height tiles covering each other", locked, n))
	}
	return result
}

// validateDir validates every *.json file in dir and writes a concise report.
// It returns errInvalidConfigs when any file is invalid.
func validateDir(w io.Writer, dir string, sampleBoards int) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no config files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file, sampleBoards)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+e)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some configurations have errors")
		return errInvalidConfigs
	}
	fmt.Fprintln(w, "✅ All configurations are valid!")
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate Tile Match theme files",
		ArgsUsage: "[config-dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game themes",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "boards",
				Value: 50,
				Usage: "Sample boards dealt per theme for the playability check",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("config-dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			return validateDir(cmd.Root().Writer, dir, int(cmd.Int("boards")))
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidConfigs) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
