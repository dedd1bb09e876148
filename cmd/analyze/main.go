// Command analyze prints quick, human-readable balance heuristics for the
// configuration files in the configs directory. For every config it plays a
// batch of seeded games with a greedy player and summarizes how many turns a
// level takes, how often boards reshuffle, and how often the player gets
// stuck with equal neighbours that cannot merge.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/coincraze/game/config"
	"github.com/wricardo/mcp-training/coincraze/game/engine"
)

// GameStats summarizes one simulated game
type GameStats struct {
	Turns      int
	Merges     int
	Failures   int
	Collapses  int
	Reshuffles int
	Level      int
	Score      int
	TotalScore int
	Stuck      bool
	LevelTurns []int // turns spent on each completed level
}

// Summary aggregates a batch of games for one config
type Summary struct {
	Config         string
	Games          int
	MeanTurns      float64
	MeanLevel      float64
	MaxLevel       int
	MeanTotalScore float64
	MergeRate      float64
	ReshuffleRate  float64 // reshuffles per turn
	StuckGames     int
	MeanLevelTurns float64
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "simulate seeded games for each configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 50, Usage: "games per configuration"},
			&cli.IntFlag{Name: "turns", Value: 300, Usage: "turn limit per game"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "seed of the first game"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(os.Stdout, cmd.String("config-dir"), int(cmd.Int("games")), int(cmd.Int("turns")), uint64(cmd.Int("seed")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, configDir string, games, turns int, seed uint64) error {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(configDir, pattern))
		if err != nil {
			return err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no configurations found in %s", configDir)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))
		cfg, err := config.ReadFile(file)
		if err != nil {
			fmt.Fprintf(w, "Error loading config: %v\n", err)
			continue
		}
		printSummary(w, cfg, analyze(cfg, games, turns, seed))
	}
	return nil
}

// analyze plays games seeded seed, seed+1, ...
func analyze(cfg *engine.GameConfig, games, turns int, seed uint64) Summary {
	summary := Summary{Config: cfg.Name, Games: games}
	if games <= 0 {
		return summary
	}

	var turnSum, levelSum, scoreSum, merges, reshuffles, levelTurns, levelsDone int
	for i := 0; i < games; i++ {
		stats := simulate(cfg, seed+uint64(i), turns)
		turnSum += stats.Turns
		levelSum += stats.Level
		scoreSum += stats.TotalScore
		merges += stats.Merges
		reshuffles += stats.Reshuffles
		if stats.Level > summary.MaxLevel {
			summary.MaxLevel = stats.Level
		}
		if stats.Stuck {
			summary.StuckGames++
		}
		for _, n := range stats.LevelTurns {
			levelTurns += n
			levelsDone++
		}
	}

	summary.MeanTurns = float64(turnSum) / float64(games)
	summary.MeanLevel = float64(levelSum) / float64(games)
	summary.MeanTotalScore = float64(scoreSum) / float64(games)
	if turnSum > 0 {
		summary.MergeRate = float64(merges) / float64(turnSum)
		summary.ReshuffleRate = float64(reshuffles) / float64(turnSum)
	}
	if levelsDone > 0 {
		summary.MeanLevelTurns = float64(levelTurns) / float64(levelsDone)
	}
	return summary
}

// simulate plays one game with the greedy player until the turn limit or
// until no chain on the board can merge
func simulate(cfg *engine.GameConfig, seed uint64, turns int) GameStats {
	clock := time.Unix(0, 0)
	e, err := engine.NewEngine(cfg,
		engine.WithRandomSource(engine.NewSeededSource(seed)),
		engine.WithClock(func() time.Time { return clock }),
	)
	if err != nil {
		return GameStats{Stuck: true}
	}

	stats := GameStats{Level: 1}
	levelStart := 0
	for stats.Turns < turns {
		chain := bestChain(e.GetGrid())
		if chain == nil {
			stats.Stuck = true
			break
		}

		result, _ := e.PlayChain(chain)
		stats.Turns++
		stats.TotalScore += result.ScoreDelta
		if result.Merged {
			stats.Merges++
		} else {
			stats.Failures++
		}
		if result.Cleared {
			stats.Collapses++
		}
		if result.Reshuffled {
			stats.Reshuffles++
		}
		if result.LevelUp != nil {
			stats.LevelTurns = append(stats.LevelTurns, stats.Turns-levelStart)
			levelStart = stats.Turns
		}
		clock = clock.Add(time.Second)
	}

	state := e.GetState()
	stats.Level = state.Level
	stats.Score = state.Score
	return stats
}

// bestChain returns the highest-scoring mergeable chain found by a greedy
// walk from every cell, or nil when none merges
func bestChain(g engine.Grid) []engine.Position {
	var best []engine.Position
	bestSum := 0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Columns(); c++ {
			start := engine.Position{Row: r, Column: c}
			base := g.At(start)
			if !base.IsBase() {
				continue
			}
			chain := greedyWalk(g, start)
			sum := len(chain) * int(base)
			if sum >= int(base.Successor()) && sum > bestSum {
				best, bestSum = chain, sum
			}
		}
	}
	return best
}

// greedyWalk extends a chain from start through equal neighbours, taking the
// first unvisited one in reading order, until it cannot continue
func greedyWalk(g engine.Grid, start engine.Position) []engine.Position {
	base := g.At(start)
	chain := []engine.Position{start}
	used := map[engine.Position]bool{start: true}

	for len(chain) < engine.MaxChainLength {
		last := chain[len(chain)-1]
		next, ok := nextEqual(g, last, base, used)
		if !ok {
			break
		}
		chain = append(chain, next)
		used[next] = true
	}
	return chain
}

func nextEqual(g engine.Grid, from engine.Position, base engine.Denomination, used map[engine.Position]bool) (engine.Position, bool) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			p := engine.Position{Row: from.Row + dr, Column: from.Column + dc}
			if p != from && g.InBounds(p) && !used[p] && g.At(p) == base {
				return p, true
			}
		}
	}
	return engine.Position{}, false
}

func printSummary(w io.Writer, cfg *engine.GameConfig, s Summary) {
	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Grid: %d x %d, refill: %s\n", cfg.Rows, cfg.Columns, cfg.RefillPolicy)
	fmt.Fprintf(w, "Target: %d (+%d per level)\n", cfg.InitialTargetScore, cfg.TargetScoreStep)
	fmt.Fprintf(w, "Games: %d, mean turns: %.1f\n", s.Games, s.MeanTurns)
	fmt.Fprintf(w, "Mean level reached: %.2f (max %d)\n", s.MeanLevel, s.MaxLevel)
	fmt.Fprintf(w, "Mean points scored: %.0f\n", s.MeanTotalScore)
	fmt.Fprintf(w, "Merge rate: %.0f%%, reshuffles per 100 turns: %.1f\n", s.MergeRate*100, s.ReshuffleRate*100)
	if s.MeanLevelTurns > 0 {
		fmt.Fprintf(w, "Turns per level: %.1f\n", s.MeanLevelTurns)
	} else {
		fmt.Fprintf(w, "⚠️  No game completed a level within the turn limit\n")
	}

	if s.StuckGames > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d/%d games got stuck with no mergeable chain\n", s.StuckGames, s.Games)
		fmt.Fprintf(w, "   Equal neighbours exist but none reach the next denomination (e.g. isolated 1s or 10s)\n")
	} else {
		fmt.Fprintf(w, "✅ No game got stuck\n")
	}
}
