package headless

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/infrastructure/resilience"
)

// Config defines headless window configuration
type Config struct {
	ScriptTimeout time.Duration       // per script run, 0 disables
	FetchTimeout  time.Duration       // Navigate and external scripts
	FetchBreaker  resilience.Settings // per-host circuit for http(s) fetches
	EnableConsole bool                // capture console.log/warn/error/info
	Logger        *zap.Logger
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ScriptTimeout: 5 * time.Second,
		FetchTimeout:  10 * time.Second,
		FetchBreaker:  resilience.DefaultSettings(),
		EnableConsole: true,
	}
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, info, warn, error
	Message string    // Log message
	Time    time.Time // Timestamp
}

// ErrScriptTimeout is the interrupt value of a script that ran too long
var ErrScriptTimeout = errors.New("script timeout exceeded")

// RejectionError is returned by Await when the promise rejects
type RejectionError struct {
	Code    string // code property of the rejection, if any
	Message string
	Value   any
}

// Error implements the error interface
func (e *RejectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("promise rejected (%s): %s", e.Code, e.Message)
	}
	return "promise rejected: " + e.Message
}
