// Package logger provides the leveled, structured logging used across nhdl.
//
// It wraps zerolog behind a small Logger interface so that the core packages
// only see trace/debug/info/warn/error methods and never configure output.
//
//	cfg := &config.LoggingConfig{Level: "debug"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("gallery_id", 177013)
//	log.Info("Downloading gallery")
//
// Tests use NewTestLogger to capture messages or NewNopLogger to drop them.
package logger
