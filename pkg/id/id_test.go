package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Not parallel: interleaved New calls would reseed the monotonic entropy.
func TestNewAtSortsInIssueOrder(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewAt(at)
	}
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Len(t, ids[0], 26)
}

func TestTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 2, 10, 0, 0, 123_000_000, time.UTC)
	got, err := Time(NewAt(at))
	require.NoError(t, err)
	assert.Equal(t, at, got)

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestNewIsUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		s := New()
		assert.False(t, seen[s])
		seen[s] = true
	}
}
