package domainerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errPrincipalReadOnly = New(ErrInvalidOperation, "principal budget is read-only")

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", Validation("amount must be positive, got %s", "-1"), "validation"},
		{"invalid operation", InvalidOperation("nope"), "invalid_operation"},
		{"not found", NotFound("budget %s not found", "x"), "not_found"},
		{"wrapped sentinel", fmt.Errorf("add transaction: %w", errPrincipalReadOnly), "invalid_operation"},
		{"plain error", errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_Is(t *testing.T) {
	t.Run("should match both the package sentinel and its kind", func(t *testing.T) {
		// given
		err := fmt.Errorf("delete: %w", errPrincipalReadOnly)

		// then
		assert.ErrorIs(t, err, errPrincipalReadOnly)
		assert.ErrorIs(t, err, ErrInvalidOperation)
		assert.NotErrorIs(t, err, ErrValidation)
		assert.Equal(t, "delete: principal budget is read-only", err.Error())
	})
}
