package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yieldvault/ledger/pkg/domain"
)

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, "test", 3, func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("update: %w", domain.ErrConcurrentModification)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("surfaces conflict when budget is exhausted", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, "test", 2, func() error {
			calls++
			return domain.ErrConcurrentModification
		})
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
		assert.Equal(t, 2, calls)
	})

	t.Run("other errors stop immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Retry(ctx, "test", 5, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := Retry(cctx, "test", 3, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
