package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSeedAndPhases(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := session.NewStore(client, "sessions:", time.Hour)

	ids, err := seed(ctx, store, 12, 3)
	require.NoError(t, err)
	require.Len(t, ids, 12)

	listed, err := store.ListByUser(ctx, userID(0))
	require.NoError(t, err)
	require.Len(t, listed, 4)

	stats := runPhase(50, 4, 1, func(r *rand.Rand) error {
		_, err := store.Get(ctx, ids[r.Intn(len(ids))])
		return err
	})
	require.Equal(t, 50, stats.ops)
	require.Zero(t, stats.failures)
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	require.Equal(t, time.Duration(1), percentile(samples, 0))
	require.Equal(t, time.Duration(5), percentile(samples, 50))
	require.Equal(t, time.Duration(10), percentile(samples, 100))
	require.Zero(t, percentile(nil, 50))

	stats := computeStats(time.Second, nil, 0)
	require.Zero(t, stats.ops)
}
