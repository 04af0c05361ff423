package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownValues(t *testing.T) {
	t.Parallel()

	id, err := Hash("Example Headline")
	require.NoError(t, err)
	assert.Equal(t, "2258c096fc25eab05921a9222c6ca9cd", id)

	id, err = Hash("hello")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", id)
}

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Hash("Breaking: markets rally")
	require.NoError(t, err)

	for range 10 {
		again, err := Hash("Breaking: markets rally")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Len(t, first, 32)
}

func TestHashNoNormalization(t *testing.T) {
	t.Parallel()

	a, err := Hash("Example Headline")
	require.NoError(t, err)
	b, err := Hash("example headline")
	require.NoError(t, err)
	c, err := Hash("Example Headline ")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHashEmptyTitle(t *testing.T) {
	t.Parallel()

	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestVectorIDKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		documentID string
		want       int64
	}{
		{"2258c096fc25eab05921a9222c6ca9cd", 2474939749948058288},
		{"5d41402abc4b2a76b9719d911017c592", 6719722671305337462},
		// leading byte above 0x7f lands in the negative half of int64
		{"c0efc5a00d00365805657fcacf8a8acc", -4544196207789984168},
	}

	for _, tt := range tests {
		got, err := VectorID(tt.documentID)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "document id %s", tt.documentID)
	}
}

func TestVectorIDDeterministic(t *testing.T) {
	t.Parallel()

	id, err := Hash("Fed Raises Rates")
	require.NoError(t, err)

	first, err := VectorID(id)
	require.NoError(t, err)

	again, err := VectorID(id)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestVectorIDRejectsMalformedIDs(t *testing.T) {
	t.Parallel()

	_, err := VectorID("not-hex")
	assert.Error(t, err)

	_, err = VectorID("abcdef")
	assert.Error(t, err)
}
