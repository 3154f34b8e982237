package planner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w after 60s", ErrModelTimeout), "timeout"},
		{fmt.Errorf("%w: 503", ErrModelFailed), "model_error"},
		{ErrUnrecoverableParse, "parse"},
		{fmt.Errorf("%w: days: required", ErrInvalidSchema), "schema"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureKind(tt.err), "%v", tt.err)
	}
}
