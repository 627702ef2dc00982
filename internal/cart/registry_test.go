package cart_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aigov-api/internal/cart"
)

func TestRegistryScopesStoresPerUser(t *testing.T) {
	reg := cart.NewRegistry(time.Hour)
	a := reg.Open("alice")
	b := reg.Open("bob")
	require.NotSame(t, a, b)
	require.Same(t, a, reg.Open("alice"))

	a.AddItem(toolkit)
	require.False(t, b.IsInCart("1"))
	require.Equal(t, 2, reg.Len())

	require.True(t, reg.Close("alice"))
	require.False(t, reg.Close("alice"))
	require.Empty(t, reg.Open("alice").Snapshot().Lines)
}

func TestRegistrySweepEvictsIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := cart.NewRegistry(30 * time.Minute)
	reg.Now = func() time.Time { return now }

	reg.Open("idle")
	now = now.Add(20 * time.Minute)
	reg.Open("active")
	now = now.Add(15 * time.Minute)

	require.Equal(t, 1, reg.Sweep())
	require.Equal(t, 1, reg.Len())
	require.True(t, reg.Close("active"))
}

func TestRegistrySweepDisabled(t *testing.T) {
	reg := cart.NewRegistry(0)
	reg.Open("u")
	require.Zero(t, reg.Sweep())
	require.Equal(t, 1, reg.Len())
}

func TestRegistryAcquirePinsAgainstSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := cart.NewRegistry(30 * time.Minute)
	reg.Now = func() time.Time { return now }

	store, release := reg.Acquire("busy")
	now = now.Add(time.Hour)
	require.Zero(t, reg.Sweep())

	store.AddItem(toolkit)
	release()
	release()
	require.Zero(t, reg.Sweep())
	require.Same(t, store, reg.Open("busy"))
	require.True(t, reg.Open("busy").IsInCart("1"))

	now = now.Add(time.Hour)
	require.Equal(t, 1, reg.Sweep())
	require.Zero(t, reg.Len())
}
