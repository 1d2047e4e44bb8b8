package monitoring

import (
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
)

// Outcome labels
const (
	OutcomeOK = "ok"
	// OutcomeError is used for failures that carry no bridge error kind
	OutcomeError = "error"
)

// Outcome maps err to a metric label: "ok" for nil, the error kind for bridge
// errors and "error" otherwise
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if kind := bridgeerr.KindOf(err); kind != "" {
		return string(kind)
	}
	return OutcomeError
}
