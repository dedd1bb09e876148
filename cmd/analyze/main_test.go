package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
)

func TestGreedyWalk(t *testing.T) {
	grid := engine.Grid{
		{1, 1, 5},
		{10, 1, 1},
		{1, 50, 1},
	}

	chain := greedyWalk(grid, engine.Position{Row: 0, Column: 0})
	want := []engine.Position{
		{Row: 0, Column: 0},
		{Row: 0, Column: 1},
		{Row: 1, Column: 1},
		{Row: 1, Column: 2},
		{Row: 2, Column: 2},
	}
	if !reflect.DeepEqual(chain, want) {
		t.Errorf("Expected %v, got %v", want, chain)
	}

	lonely := greedyWalk(grid, engine.Position{Row: 0, Column: 2})
	if len(lonely) != 1 {
		t.Errorf("Expected a single-cell chain for an isolated coin, got %v", lonely)
	}
}

func TestBestChain(t *testing.T) {
	tests := []struct {
		name    string
		grid    engine.Grid
		wantLen int
		wantSum int
	}{
		{
			name:    "prefers the larger merge",
			grid:    engine.Grid{{5, 5, 1}, {50, 50, 1}, {10, 1, 1}},
			wantLen: 2,
			wantSum: 100,
		},
		{
			name:    "five ones merge",
			grid:    engine.Grid{{1, 1, 1}, {5, 10, 1}, {50, 100, 1}},
			wantLen: 5,
			wantSum: 5,
		},
		{
			name:    "nothing merges",
			grid:    engine.Grid{{1, 1, 5}, {10, 10, 50}, {100, 500, 1}},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := bestChain(tt.grid)
			if len(chain) != tt.wantLen {
				t.Fatalf("Expected chain of %d, got %v", tt.wantLen, chain)
			}
			if tt.wantLen == 0 {
				return
			}
			res := engine.Resolve(tt.grid, chain)
			if !res.Merged || res.Sum != tt.wantSum {
				t.Errorf("Expected a merge summing to %d, got %+v", tt.wantSum, res)
			}
		})
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	cfg := engine.DefaultGameConfig()

	a := simulate(cfg, 7, 100)
	b := simulate(cfg, 7, 100)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Expected identical games for the same seed:\n%+v\n%+v", a, b)
	}

	if a.Turns == 0 {
		t.Fatal("Expected the greedy player to play at least one turn")
	}
	if !a.Stuck && a.Turns != 100 {
		t.Errorf("Expected the game to run to the turn limit, got %d turns", a.Turns)
	}
	if a.Merges+a.Failures != a.Turns {
		t.Errorf("Merges (%d) and failures (%d) should add up to turns (%d)", a.Merges, a.Failures, a.Turns)
	}
	if a.Level < 1 {
		t.Errorf("Expected level >= 1, got %d", a.Level)
	}
}

func TestSimulateLevelsUp(t *testing.T) {
	cfg := engine.DefaultGameConfig()
	cfg.InitialTargetScore = 20
	cfg.TargetScoreStep = 20

	stats := simulate(cfg, 3, 200)
	if len(stats.LevelTurns) == 0 {
		t.Fatalf("Expected at least one level-up with a target of 20, got %+v", stats)
	}
	if stats.Level != len(stats.LevelTurns)+1 {
		t.Errorf("Expected level %d, got %d", len(stats.LevelTurns)+1, stats.Level)
	}
}

func TestAnalyze(t *testing.T) {
	cfg := engine.DefaultGameConfig()

	summary := analyze(cfg, 5, 50, 1)
	if summary.Games != 5 {
		t.Errorf("Expected 5 games, got %d", summary.Games)
	}
	if summary.MeanTurns <= 0 || summary.MeanTurns > 50 {
		t.Errorf("Unexpected mean turns %.2f", summary.MeanTurns)
	}
	if summary.MergeRate <= 0 || summary.MergeRate > 1 {
		t.Errorf("Unexpected merge rate %.2f", summary.MergeRate)
	}

	if empty := analyze(cfg, 0, 50, 1); empty.MeanTurns != 0 {
		t.Error("Expected an empty summary for zero games")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	valid := `{"name": "Tiny", "description": "tiny board", "rows": 3, "columns": 3}`
	if err := os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(valid), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("rows: ["), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := run(&buf, dir, 3, 20, 1); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"=== Analyzing tiny.json ===", "Name: Tiny", "Grid: 3 x 3, refill: fill", "=== Analyzing broken.yaml ===", "Error loading config"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	if err := run(&buf, t.TempDir(), 1, 1, 1); err == nil {
		t.Error("Expected error for a directory without configs")
	}
}
