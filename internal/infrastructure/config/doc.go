// Package config provides 12-factor configuration for webbridge.
//
// Defaults come from Default. Load applies environment variables on top;
// LoadFile applies a YAML file first and environment variables last, so the
// environment always wins.
//
// Configuration Sections:
//   - Window: title, size and debug flag shared by every window kind
//   - Remote: listen address, asset directory, CORS origins, metrics, rate limit
//   - Headless: script and fetch timeouts, console capture
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg, err := config.LoadFile("webbridge.yaml")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("listening on %s\n", cfg.Remote.Addr)
//
// Environment Variables:
//   - WEBBRIDGE_TITLE, WEBBRIDGE_WIDTH, WEBBRIDGE_HEIGHT, WEBBRIDGE_DEBUG
//   - WEBBRIDGE_ADDR, WEBBRIDGE_ASSETS_DIR, WEBBRIDGE_ALLOWED_ORIGINS, WEBBRIDGE_METRICS
//   - WEBBRIDGE_RATE_LIMIT_RPS, WEBBRIDGE_RATE_LIMIT_BURST, WEBBRIDGE_RATE_LIMIT_ENABLED
//   - WEBBRIDGE_SCRIPT_TIMEOUT, WEBBRIDGE_FETCH_TIMEOUT, WEBBRIDGE_CONSOLE
//   - LOG_LEVEL, LOG_DEV
package config
