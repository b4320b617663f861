package resettoken

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_backend/internal/platform/clock"
)

func TestNewGenerator_DefaultTTL(t *testing.T) {
	t.Parallel()

	g := NewGenerator(0, nil)
	assert.Equal(t, DefaultTTL, g.TTL())
	assert.NotNil(t, g.clock)
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := NewGenerator(15*time.Minute, clock.NewFake(now))

	raw, hash, exp, err := g.Generate()
	require.NoError(t, err)

	decoded, err := hex.DecodeString(raw)
	require.NoError(t, err)
	assert.Len(t, decoded, TokenBytes)

	assert.Len(t, hash, 64)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, Hash(raw), hash)
	assert.Equal(t, now.Add(15*time.Minute), exp)
}

func TestGenerator_GenerateIsRandom(t *testing.T) {
	t.Parallel()

	g := NewGenerator(time.Minute, nil)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		raw, _, _, err := g.Generate()
		require.NoError(t, err)
		_, dup := seen[raw]
		require.False(t, dup, "duplicate token generated")
		seen[raw] = struct{}{}
	}
}

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		hash string
		want bool
	}{
		{"match", "token", Hash("token"), true},
		{"mismatch", "token", Hash("other"), false},
		{"empty raw", "", Hash(""), false},
		{"empty hash", "token", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Verify(tt.raw, tt.hash))
		})
	}
}
