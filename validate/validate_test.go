package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJSON = `{
	"name": "Test Config",
	"description": "Test configuration",
	"rows": 5,
	"columns": 4,
	"initial_target_score": 1000,
	"refill_policy": "single",
	"messages": {
		"welcome": "Welcome!",
		"merge_success": "+%d",
		"level_up": "Level %d, target %d"
	}
}`

const validYAML = `name: Yaml Config
description: YAML configuration
rows: 3
columns: 3
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestFile(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		wantValid  bool
		wantSubstr string
	}{
		{"valid JSON", "test.json", validJSON, true, "✓ Refill: single"},
		{"valid YAML with defaults", "test.yaml", validYAML, true, "✓ Target: 5000 (+5000 per level)"},
		{"invalid JSON", "bad.json", `{"name": `, false, "failed to parse config"},
		{"missing description", "nodesc.json", `{"name": "x", "rows": 3, "columns": 3}`, false, "description is required"},
		{"too large", "huge.json", `{"name": "x", "description": "d", "rows": 33, "columns": 3}`, false, "rows must be between"},
		{"single cell", "one.json", `{"name": "x", "description": "d", "rows": 1, "columns": 1}`, false, "at least 2 cells"},
		{"unknown refill policy", "policy.yml", "name: x\ndescription: d\nrows: 3\ncolumns: 3\nrefill_policy: gravity\n", false, "refill_policy"},
		{"message without placeholder", "msg.json", `{"name": "x", "description": "d", "rows": 3, "columns": 3, "messages": {"merge_success": "yay"}}`, false, "merge_success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			result := File(path)
			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v: %v", tt.wantValid, result.Valid, result.Errors)
			}
			if result.File != tt.file {
				t.Errorf("Expected file %s, got %s", tt.file, result.File)
			}

			lines := append(append([]string{}, result.Errors...), result.Info...)
			if !strings.Contains(strings.Join(lines, "\n"), tt.wantSubstr) {
				t.Errorf("Expected %q in %v", tt.wantSubstr, lines)
			}
		})
	}
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
}

func TestCheckDeals(t *testing.T) {
	stats := checkDeals(6, 6)
	if stats.failures != 0 {
		t.Errorf("Expected every 6x6 deal to be playable, got %d failures", stats.failures)
	}
	if stats.meanAttempts < 1 {
		t.Errorf("Expected at least one attempt per deal, got %.2f", stats.meanAttempts)
	}
	if stats.firstTry <= 0.5 {
		t.Errorf("Expected most random 6x6 boards to be playable, got %.2f", stats.firstTry)
	}

	// Two cells pair up one time in six
	narrow := checkDeals(1, 2)
	if narrow.failures != 0 {
		t.Errorf("Expected 1x2 deals to succeed within the retry limit, got %d failures", narrow.failures)
	}
	if narrow.meanAttempts <= stats.meanAttempts {
		t.Errorf("Expected 1x2 boards to need more attempts than 6x6 (%.2f vs %.2f)", narrow.meanAttempts, stats.meanAttempts)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.json", validJSON)
	writeFile(t, dir, "beta.yaml", validYAML)
	writeFile(t, dir, "beta.json", validJSON)
	writeFile(t, dir, "notes.txt", "ignored")

	results, err := Dir(dir)
	if err != nil {
		t.Fatalf("Dir failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	byFile := make(map[string]Result)
	for _, r := range results {
		byFile[r.File] = r
	}
	if !byFile["alpha.json"].Valid || !byFile["beta.json"].Valid {
		t.Error("Expected alpha.json and beta.json to be valid")
	}
	dup := byFile["beta.yaml"]
	if dup.Valid || !strings.Contains(strings.Join(dup.Errors, " "), "Duplicate config ID") {
		t.Errorf("Expected beta.yaml to be reported as duplicate, got %+v", dup)
	}
}

func TestDir_Missing(t *testing.T) {
	if _, err := Dir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestReport(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		var buf bytes.Buffer
		ok := Report(&buf, []Result{{File: "a.json", Valid: true, Info: []string{"✓ Name: A"}}})
		if !ok {
			t.Error("Expected report to pass")
		}
		if !strings.Contains(buf.String(), "✅ All configurations are valid!") || !strings.Contains(buf.String(), "✓ Name: A") {
			t.Errorf("Unexpected report: %s", buf.String())
		}
	})

	t.Run("some invalid", func(t *testing.T) {
		var buf bytes.Buffer
		ok := Report(&buf, []Result{
			{File: "a.json", Valid: true},
			{File: "b.json", Valid: false, Errors: []string{"broken"}},
		})
		if ok {
			t.Error("Expected report to fail")
		}
		if !strings.Contains(buf.String(), "❌ broken") {
			t.Errorf("Unexpected report: %s", buf.String())
		}
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		if Report(&buf, nil) {
			t.Error("Expected an empty directory to fail")
		}
	})
}

func TestShippedConfigs(t *testing.T) {
	results, err := Dir(filepath.Join("..", "configs"))
	if err != nil {
		t.Skipf("configs directory not found: %v", err)
	}
	for _, r := range results {
		if !r.Valid {
			t.Errorf("%s is invalid: %v", r.File, r.Errors)
		}
	}
}
