package cache

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	require.True(t, exists)
	assert.Equal(t, "value1", value)

	_, exists = c.Get("key2")
	assert.False(t, exists)
}

func TestCacheExpiration(t *testing.T) {
	c := New(50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	_, exists := c.Get("key1")
	require.True(t, exists, "expected key1 to exist immediately after set")

	time.Sleep(80 * time.Millisecond)

	_, exists = c.Get("key1")
	assert.False(t, exists, "expected key1 to be expired")
}

func TestGetOrComputeReturnsCachedWithinTTL(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	calls := 0
	compute := func() (any, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)
	}
	assert.Equal(t, 1, calls, "compute must run once within the TTL window")
}

func TestGetOrComputeRecomputesAfterTTL(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrCompute("k", 50*time.Millisecond, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(80 * time.Millisecond)

	v, err = c.GetOrCompute("k", 50*time.Millisecond, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "expired entry must trigger a fresh compute")
}

func TestGetOrComputeNeverCachesFailures(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	boom := errors.New("upstream down")
	calls := 0
	_, err := c.GetOrCompute("k", time.Minute, func() (any, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	v, err := c.GetOrCompute("k", time.Minute, func() (any, error) {
		calls++
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
}

func TestClear(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Clear()

	for _, key := range []string{"key1", "key2"} {
		_, exists := c.Get(key)
		assert.False(t, exists)
	}
	assert.Equal(t, int64(0), c.GetStats().TotalKeys)
}

func TestStats(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Get("key1")
	c.Get("nope")

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestFingerprintHidesToken(t *testing.T) {
	token := "BQDsecrettoken123456"
	fp := Fingerprint(token)
	assert.NotContains(t, fp, "secret")
	assert.NotEqual(t, token, fp)
	assert.Equal(t, fp, Fingerprint(token), "fingerprint must be stable")
	assert.NotEqual(t, fp, Fingerprint("other-token"))
}

func TestKeyIsCompositeAndParamSensitive(t *testing.T) {
	fp := Fingerprint("tok")
	k1 := Key("topTracks", fp, "short_term", 50)
	k2 := Key("topTracks", fp, "long_term", 50)
	k3 := Key("topArtists", fp, "short_term", 50)

	assert.True(t, strings.HasPrefix(k1, "topTracks:"+fp))
	assert.NotEqual(t, k1, k2, "different params must produce different keys")
	assert.NotEqual(t, k1, k3, "different endpoints must produce different keys")
	assert.NotContains(t, k1, "tok:")
}

func TestGetKeepsFreshValueWrittenDuringExpiredRead(t *testing.T) {
	c := New(1 * time.Minute)
	defer c.Close()

	// a Get observing the expired entry races a Set refreshing the same
	// key; the fresh value must survive the expired-entry cleanup
	for i := 0; i < 200; i++ {
		c.SetWithTTL("key", "stale", -time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Get("key")
		}()
		go func() {
			defer wg.Done()
			c.Set("key", "fresh")
		}()
		wg.Wait()

		value, exists := c.Get("key")
		require.True(t, exists, "a concurrent expired read must not evict a fresh write")
		assert.Equal(t, "fresh", value)
	}
}
