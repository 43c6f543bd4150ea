package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageKey_Compare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b PageKey
		want int
	}{
		{"9", "10", -1},
		{"105", "105", 0},
		{"200", "35", 1},
		{StartKey, "1", -1},
		{"0", StartKey, 0},
		{"abc", "abd", -1},
		{"b", "10", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Compare(tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestPageKey_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", StartKey.String())
	assert.Equal(t, "105", PageKey("105").String())
	assert.True(t, PageKey("0").IsStart())
	assert.False(t, PageKey("1").IsStart())
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"CACHE_ONLY", CacheOnly, false},
		{"net-only", NetOnly, false},
		{" Net_Cache ", NetCache, false},
		{"cache_then_net", CacheThenNet, false},
		{"", CacheThenNet, false},
		{"sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategy_Text(t *testing.T) {
	t.Parallel()

	text, err := NetCache.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "NET_CACHE", string(text))

	var s Strategy
	require.NoError(t, s.UnmarshalText([]byte("cache-only")))
	assert.Equal(t, CacheOnly, s)

	assert.Error(t, s.UnmarshalText([]byte("bogus")))

	_, err = Strategy(17).MarshalText()
	assert.Error(t, err)
}

func TestPageError(t *testing.T) {
	t.Parallel()

	req := newPageRequest("40", 20, PhaseForward)
	err := newPageError(NetworkFault, req, errBoom)

	assert.Contains(t, err.Error(), "NetworkFault on FORWARD page")
	assert.Contains(t, err.Error(), "key=40")
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, IsKind(err, NetworkFault))
	assert.False(t, IsKind(err, CacheFault))
	assert.False(t, IsKind(errBoom, NetworkFault))
}
