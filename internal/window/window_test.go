package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHintString(t *testing.T) {
	tests := []struct {
		hint Hint
		want string
	}{
		{HintNone, "none"},
		{HintMin, "min"},
		{HintMax, "max"},
		{HintFixed, "fixed"},
		{Hint(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.hint.String())
	}
}
