package adaptor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsStayDistinct(t *testing.T) {
	tests := []struct {
		name  string
		kind  error
		check func(error) bool
	}{
		{"location", ErrLocation, IsLocation},
		{"configuration", ErrConfiguration, IsConfiguration},
		{"transport", ErrTransport, IsTransport},
		{"parse", ErrParse, IsParse},
		{"backend", ErrBackend, IsBackend},
		{"not found", ErrNotFound, IsNotFound},
		{"already closed", ErrAlreadyClosed, IsAlreadyClosed},
	}

	checks := []func(error) bool{
		IsLocation, IsConfiguration, IsTransport, IsParse, IsBackend, IsNotFound, IsAlreadyClosed,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.kind, "gridengine", "Op", "message", nil)
			matched := 0
			for _, check := range checks {
				if check(err) {
					matched++
				}
			}
			assert.True(t, tt.check(err))
			assert.Equal(t, 1, matched, "error should match exactly one category")
		})
	}
}

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrTransport, "gridengine", "NewScheduler", "cannot reach backend", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "gridengine")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorWithoutCause(t *testing.T) {
	err := NewError(ErrNotFound, "engine", "AdaptorFor", "no adaptor for scheme \"bogus\"", nil)

	assert.True(t, IsNotFound(err))
	assert.NotContains(t, err.Error(), "<nil>")
}
