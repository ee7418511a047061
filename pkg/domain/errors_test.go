package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidInputError(t *testing.T) {
	t.Parallel()

	t.Run("matches sentinel", func(t *testing.T) {
		t.Parallel()
		err := NewInvalidInput("principal", "must be positive")
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, "invalid input: principal must be positive", err.Error())
	})

	t.Run("matches when wrapped", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("projection: %w", NewInvalidInput("plan", "unknown"))
		assert.ErrorIs(t, err, ErrInvalidInput)

		var target *InvalidInputError
		assert.True(t, errors.As(err, &target))
		assert.Equal(t, "plan", target.Field)
	})

	t.Run("without field", func(t *testing.T) {
		t.Parallel()
		err := NewInvalidInput("", "empty request")
		assert.Equal(t, "invalid input: empty request", err.Error())
	})
}
