package password

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cost     int
		wantCost int
	}{
		{"min cost", bcrypt.MinCost, bcrypt.MinCost},
		{"too low falls back", 1, bcrypt.DefaultCost},
		{"too high falls back", 99, bcrypt.DefaultCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewBcryptHasher(tt.cost, 0)
			assert.Equal(t, tt.wantCost, h.cost)
			assert.NotNil(t, h.sem)
		})
	}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, h.Compare(ctx, hash, "password123"))
	assert.ErrorIs(t, h.Compare(ctx, hash, "wrong-password1"), ErrMismatch)
}

func TestBcryptHasher_CompareEmptyHash(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost, 1)
	err := h.Compare(context.Background(), "", "password123")
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestBcryptHasher_CanceledContext(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the only slot so Acquire has to wait on the canceled context.
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	_, err := h.Hash(ctx, "password123")
	assert.ErrorIs(t, err, context.Canceled)
}
