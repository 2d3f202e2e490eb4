package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCodeStoreSaveOverwrites(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Code{Email: "a@x", CodeHash: "h1", Attempts: 2}))
	require.NoError(t, store.Save(ctx, Code{Email: "a@x", CodeHash: "h2"}))

	code, err := store.Find(ctx, "a@x")
	require.NoError(t, err)
	assert.Equal(t, "h2", code.CodeHash)
	assert.Zero(t, code.Attempts)
}

func TestMemoryCodeStoreIncrementAttempts(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Code{Email: "a@x"}))

	for want := 1; want <= 3; want++ {
		got, err := store.IncrementAttempts(ctx, "a@x")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := store.IncrementAttempts(ctx, "missing@x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCodeStoreSweep(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, Code{Email: "old@x", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, Code{Email: "live@x", ExpiresAt: now.Add(time.Minute)}))

	require.NoError(t, store.Sweep(ctx, now))

	_, err := store.Find(ctx, "old@x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Find(ctx, "live@x")
	assert.NoError(t, err)
}

func TestMemoryRegistrationStoreSweep(t *testing.T) {
	store := NewMemoryRegistrationStore(30 * time.Minute)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, Registration{Email: "old@x", CreatedAt: now.Add(-31 * time.Minute)}))
	require.NoError(t, store.Save(ctx, Registration{Email: "fresh@x", CreatedAt: now}))

	require.NoError(t, store.Sweep(ctx, now))

	_, err := store.Find(ctx, "old@x")
	assert.ErrorIs(t, err, ErrNotFound)

	reg, err := store.Find(ctx, "fresh@x")
	require.NoError(t, err)
	assert.Equal(t, "fresh@x", reg.Email)
}

func TestMemoryRegistrationStoreDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryRegistrationStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Registration{Email: "a@x"}))
	require.NoError(t, store.Delete(ctx, "a@x"))
	require.NoError(t, store.Delete(ctx, "a@x"))

	_, err := store.Find(ctx, "a@x")
	assert.ErrorIs(t, err, ErrNotFound)
}
