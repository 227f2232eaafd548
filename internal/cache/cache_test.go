package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFingerprintStringDeterministicAcrossParamOrder(t *testing.T) {
	a := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact", Params: map[string]any{"depth": 3, "source": "n1"}}
	b := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact", Params: map[string]any{"source": "n1", "depth": 3}}
	assert.Equal(t, a.String(), b.String())
}

func TestGetOrLoadMissThenHit(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Minute}, testLogger())
	require.NoError(t, err)

	fp := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	var loadCalls int32
	load := func() ([]byte, bool, error) {
		atomic.AddInt32(&loadCalls, 1)
		return []byte("result"), true, nil
	}

	snap, hit, err := c.GetOrLoad(context.Background(), fp, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("result"), snap)

	snap2, hit2, err := c.GetOrLoad(context.Background(), fp, load)
	require.NoError(t, err)
	assert.True(t, hit2)
	assert.Equal(t, []byte("result"), snap2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loadCalls))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGetOrLoadCoalescesConcurrentMisses(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Minute}, testLogger())
	require.NoError(t, err)

	fp := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	var loadCalls int32
	release := make(chan struct{})
	load := func() ([]byte, bool, error) {
		atomic.AddInt32(&loadCalls, 1)
		<-release
		return []byte("result"), true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.GetOrLoad(context.Background(), fp, load)
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loadCalls))
}

func TestGetOrLoadDoesNotCacheNonCacheableResult(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Minute}, testLogger())
	require.NoError(t, err)

	fp := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	var loadCalls int32
	load := func() ([]byte, bool, error) {
		atomic.AddInt32(&loadCalls, 1)
		return []byte("result"), false, nil
	}

	_, _, err = c.GetOrLoad(context.Background(), fp, load)
	require.NoError(t, err)
	_, _, err = c.GetOrLoad(context.Background(), fp, load)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&loadCalls))
}

func TestGetOrLoadPropagatesError(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Minute}, testLogger())
	require.NoError(t, err)

	fp := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	wantErr := errors.New("boom")
	_, _, err = c.GetOrLoad(context.Background(), fp, func() ([]byte, bool, error) {
		return nil, false, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Millisecond}, testLogger())
	require.NoError(t, err)

	fp := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	_, _, err = c.GetOrLoad(context.Background(), fp, func() ([]byte, bool, error) {
		return []byte("x"), true, nil
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, hit := c.Get(fp)
	assert.False(t, hit)
}

func TestBypassAlwaysReloadsAndRefreshes(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Minute}, testLogger())
	require.NoError(t, err)

	fp := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	var loadCalls int32
	load := func() ([]byte, bool, error) {
		n := atomic.AddInt32(&loadCalls, 1)
		return []byte{byte(n)}, true, nil
	}

	_, _, _ = c.GetOrLoad(context.Background(), fp, load)
	_, err = c.Bypass(context.Background(), fp, load)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&loadCalls))
	assert.Equal(t, int64(1), c.Stats().Bypasses)
}

func TestInvalidatePrefixRemovesOnlyMatchingGraph(t *testing.T) {
	c, err := New(Config{MaxEntries: 10, TTL: time.Minute}, testLogger())
	require.NoError(t, err)

	fp1 := Fingerprint{Engine: "native", Database: "db", GraphID: "g1", Operation: "impact"}
	fp2 := Fingerprint{Engine: "native", Database: "db", GraphID: "g2", Operation: "impact"}
	load := func() ([]byte, bool, error) { return []byte("x"), true, nil }

	_, _, _ = c.GetOrLoad(context.Background(), fp1, load)
	_, _, _ = c.GetOrLoad(context.Background(), fp2, load)
	require.Equal(t, int64(2), c.Stats().CachedEntries)

	c.InvalidatePrefix("native", "db", "g1")

	_, hit1 := c.Get(fp1)
	_, hit2 := c.Get(fp2)
	assert.False(t, hit1)
	assert.True(t, hit2)
}
