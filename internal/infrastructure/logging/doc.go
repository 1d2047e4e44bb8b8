// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Components receive a *zap.Logger and name themselves, so every line carries
// the subsystem that wrote it:
//
//	logger := logging.NewDefault()
//	b := bridge.New(win, bridge.WithLogger(logger.Component("bridge")))
//
// Logs go to stderr by default so stdout stays free for command output.
package logging
