// Package config provides configuration management for CoinCraze.
//
// The config package handles:
//   - Loading game configurations from JSON and YAML files
//   - Filling optional fields with defaults, then validating
//   - Default configuration selection
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Configurations live in a single directory as .json, .yaml or .yml files.
// The file name without extension is the config ID used when creating a
// session. Each configuration defines:
//   - Board dimensions (rows, columns)
//   - Level targets (initial_target_score, target_score_step)
//   - The refill policy ("fill" or "single")
//   - How long the level-up notice stays up (level_up_ttl_ms)
//   - An optional seed for replayable boards
//   - Player-facing messages
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("compact")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When no configuration in the directory is usable, the built-in classic
// 6x6 board is the default.
package config
