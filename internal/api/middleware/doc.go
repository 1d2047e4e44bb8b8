// Package middleware provides the gin middleware of the remote window's HTTP
// server.
//
//   - CORS: cross-origin page loads and websocket upgrades
//   - RateLimit: per-IP token bucket, idle clients are forgotten
//   - GlobalRateLimit: one token bucket for every client
package middleware
