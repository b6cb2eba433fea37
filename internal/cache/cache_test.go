package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morgankhalil/venueconnect/internal/tour"
)

func TestResultCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), time.Minute, nil)
	defer c.Close()
	ctx := context.Background()

	key := Key(1, Digest(map[string]string{"optimizeFor": "balanced"}))

	_, hit := c.Get(ctx, key)
	assert.False(t, hit)

	res := &tour.Result{
		Method:   tour.MethodStandard,
		Sequence: []int64{1, 4, 2, 3},
		SuggestedDates: map[int64]tour.Day{
			4: tour.NewDay(2025, time.June, 2),
		},
		DistanceReductionPct: 44.8,
		Reasoning:            "cached ordering",
	}
	c.Set(ctx, key, res)

	got, hit := c.Get(ctx, key)
	require.True(t, hit)
	assert.Equal(t, res.Sequence, got.Sequence)
	assert.Equal(t, "2025-06-02", got.SuggestedDates[4].String())
	assert.Equal(t, res.Reasoning, got.Reasoning)
}

func TestResultCacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), time.Minute, nil)
	defer c.Close()
	ctx := context.Background()

	key := Key(2, "abc")
	c.Set(ctx, key, &tour.Result{Sequence: []int64{1}})

	mr.FastForward(2 * time.Minute)
	_, hit := c.Get(ctx, key)
	assert.False(t, hit)
}

func TestResultCacheCorruptEntryIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), time.Minute, nil)
	defer c.Close()

	key := Key(3, "abc")
	require.NoError(t, mr.Set(key, "not json"))

	_, hit := c.Get(context.Background(), key)
	assert.False(t, hit)
}

func TestResultCacheUnreachableRedisIsAMiss(t *testing.T) {
	c := New("127.0.0.1:1", time.Minute, nil)
	defer c.Close()

	ctx := context.Background()
	_, hit := c.Get(ctx, Key(1, "x"))
	assert.False(t, hit)
	// Set must not panic or block either.
	c.Set(ctx, Key(1, "x"), &tour.Result{})
}

func TestDigest(t *testing.T) {
	a := Digest(map[string]int{"p": 1})
	b := Digest(map[string]int{"p": 2})
	assert.NotEqual(t, a, b, "different options must never share a key")
	assert.Equal(t, a, Digest(map[string]int{"p": 1}))
	assert.Len(t, a, 16)
}

func TestKeyScoping(t *testing.T) {
	assert.NotEqual(t, Key(1, "d"), Key(2, "d"))
	assert.Contains(t, Key(7, "d"), "7")
}
