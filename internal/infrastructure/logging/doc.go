// Package logging provides structured logging for homesim.
//
// It wraps log/slog so every package logs the same way: key/value pairs,
// a level filter, and the default fields service and version on each entry.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("simulation started", "mode", cfg.Simulation.Mode)
//	logger.Error("recording tick", "error", err)
package logging
