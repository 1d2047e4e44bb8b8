package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/api/middleware"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
)

// Config defines remote window configuration
type Config struct {
	Addr           string   // listen address used by Run
	AssetsDir      string   // served under /assets/, empty disables
	AllowedOrigins []string // CORS and websocket origins, empty allows any

	RateLimit        middleware.RateLimitConfig
	RateLimitEnabled bool
	RateLimitGlobal  bool // one bucket shared by every client instead of one per IP

	MaxMessageSize int64         // largest accepted websocket message
	WriteTimeout   time.Duration // per websocket write

	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer // exposed at /metrics when set
	Logger   *zap.Logger
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Addr:             "127.0.0.1:8080",
		RateLimit:        middleware.DefaultRateLimitConfig(),
		RateLimitEnabled: true,
		MaxMessageSize:   1 << 20,
		WriteTimeout:     10 * time.Second,
	}
}
