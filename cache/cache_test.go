package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeMemoizes(t *testing.T) {
	c := New("test", time.Minute)
	ctx := context.Background()

	var calls int32
	producer := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	for i := 0; i < 5; i++ {
		v, err := GetOrCompute(ctx, c, "k", 0, producer)
		require.NoError(t, err)
		require.Equal(t, "value", v)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := New("test", time.Minute)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	producer := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = GetOrCompute(ctx, c, "shared", 0, producer)
		}(i)
	}

	// Give the goroutines time to pile onto the flight, then let it finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, 42, results[i])
	}
}

func TestGetOrComputeDoesNotCacheFailures(t *testing.T) {
	c := New("test", time.Minute)
	ctx := context.Background()

	var calls int32
	failing := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("backend down")
	}

	_, err := GetOrCompute(ctx, c, "k", 0, failing)
	require.Error(t, err)
	_, err = GetOrCompute(ctx, c, "k", 0, failing)
	require.Error(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// A later success is stored normally.
	v, err := GetOrCompute(ctx, c, "k", 0, func(context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}

func TestGetOrComputeExpiry(t *testing.T) {
	c := New("test", 20*time.Millisecond)
	ctx := context.Background()

	var calls int32
	producer := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	_, err := GetOrCompute(ctx, c, "k", 0, producer)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = GetOrCompute(ctx, c, "k", 0, producer)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestForget(t *testing.T) {
	c := New("test", time.Minute)
	ctx := context.Background()

	var calls int32
	producer := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	_, err := GetOrCompute(ctx, c, "k", 0, producer)
	require.NoError(t, err)
	c.Forget("k")
	_, err = GetOrCompute(ctx, c, "k", 0, producer)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
