// Package validate checks game configuration files before a server loads
// them. For each JSON or YAML file it verifies:
//   - the file parses and passes engine.ValidateGameConfig
//   - the board size can be dealt playable boards (an equal orthogonal pair)
//     within the regeneration limit, sampled over fixed seeds
//   - the config ID is unique in the directory
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/coincraze/game/config"
	"github.com/wricardo/mcp-training/coincraze/game/engine"
)

// Samples is the number of seeded deals used for the playability check
const Samples = 200

// Result captures the outcome of validating a single file.
// Errors is empty when the file is valid; Info holds the summary lines.
type Result struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

// File validates one configuration file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	cfg, err := config.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	deal := checkDeals(cfg.Rows, cfg.Columns)
	if deal.failures > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%d/%d deals found no playable %dx%d board within %d attempts",
			deal.failures, Samples, cfg.Rows, cfg.Columns, engine.MaxRegenerateAttempts))
	}

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", cfg.Name),
			fmt.Sprintf("✓ Grid: %dx%d", cfg.Rows, cfg.Columns),
			fmt.Sprintf("✓ Target: %d (+%d per level)", cfg.InitialTargetScore, cfg.TargetScoreStep),
			fmt.Sprintf("✓ Refill: %s", cfg.RefillPolicy),
			fmt.Sprintf("✓ Playable deals: %.0f%% of random boards, %.1f attempts on average", deal.firstTry*100, deal.meanAttempts),
		)
	}
	return result
}

type dealStats struct {
	failures     int
	firstTry     float64
	meanAttempts float64
}

// checkDeals samples board generation over fixed seeds
func checkDeals(rows, columns int) dealStats {
	var stats dealStats
	firstTry, attempts := 0, 0
	for seed := uint64(1); seed <= Samples; seed++ {
		grid, n := engine.GeneratePlayableGrid(rows, columns, engine.NewSeededSource(seed))
		if !engine.IsPlayable(grid) {
			stats.failures++
		}
		if n == 1 {
			firstTry++
		}
		attempts += n
	}
	stats.firstTry = float64(firstTry) / Samples
	stats.meanAttempts = float64(attempts) / Samples
	return stats
}

// Dir validates every JSON and YAML file in dir, sorted by name. Files that
// resolve to the same config ID are reported as duplicates.
func Dir(dir string) ([]Result, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("error finding config files: %w", err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("config directory: %w", err)
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	results := make([]Result, 0, len(files))
	for _, file := range files {
		result := File(file)

		base := filepath.Base(file)
		id := strings.TrimSuffix(base, filepath.Ext(base))
		if first, ok := seen[id]; ok {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Duplicate config ID %q (also defined by %s)", id, first))
		} else {
			seen[id] = base
		}

		results = append(results, result)
	}
	return results, nil
}

// Report prints a concise report and returns whether every file is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
		allValid = false
	case allValid:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
