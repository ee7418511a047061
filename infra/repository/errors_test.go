package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{"nil error returns nil", nil, nil},
		{"duplicate key maps to ErrAlreadyExists", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"record not found maps to ErrNotFound", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"joined duplicate key", errors.Join(errors.New("outer"), gorm.ErrDuplicatedKey), domain.ErrAlreadyExists},
		{"wrapped not found", fmt.Errorf("get account: %w", gorm.ErrRecordNotFound), domain.ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, result)
				return
			}
			assert.ErrorIs(t, result, tt.expected)
		})
	}

	t.Run("non-GORM error returns original", func(t *testing.T) {
		t.Parallel()
		orig := errors.New("connection reset")
		assert.Same(t, orig, MapGormErrorToDomain(orig))
	})
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	require.NoError(t, WrapError(func() error { return nil }))
	assert.ErrorIs(t, WrapError(func() error { return gorm.ErrRecordNotFound }), domain.ErrNotFound)
	assert.EqualError(t, WrapError(func() error { return errors.New("custom error") }), "custom error")
}

func TestExpectOneRow(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, expectOneRow(&gorm.DB{RowsAffected: 0}), domain.ErrConcurrentModification)
	assert.NoError(t, expectOneRow(&gorm.DB{RowsAffected: 1}))
	assert.ErrorIs(t, expectOneRow(&gorm.DB{Error: gorm.ErrRecordNotFound}), domain.ErrNotFound)
}
