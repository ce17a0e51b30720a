package knowledge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSongKey(t *testing.T) {
	tests := []struct {
		song, artist, want string
	}{
		{"Shape of You", "Ed Sheeran", "shape of you_ed sheeran"},
		{"Shape of You", "", "shape of you_unknown"},
		{"  Hurt ", " Johnny Cash ", "hurt_johnny cash"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SongKey(tt.song, tt.artist))
	}
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "lofi_beats", QueryKey("Lofi Beats"))
	assert.Equal(t, "shape_of_you", QueryKey("  shape of you "))
}

func TestCachePutGet(t *testing.T) {
	c := NewCache(4, nil)
	rec := &SongRecord{Title: "Hurt", Artist: "Johnny Cash", Summary: "rendered"}
	c.Put(SongKey("Hurt", "Johnny Cash"), rec)

	got := c.Get("hurt_johnny cash")
	require.NotNil(t, got)
	assert.True(t, got.Resolved())
	assert.Equal(t, "rendered", got.Summary)

	assert.Nil(t, c.Get("missing"))
}

func TestCacheLastWriterWins(t *testing.T) {
	c := NewCache(4, nil)
	c.Put("k", &SongRecord{Title: "first"})
	c.Put("k", &SongRecord{Title: "second"})
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "second", c.Get("k").Title)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(3, nil)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), &SongRecord{Title: fmt.Sprintf("t%d", i)})
	}
	// Touch k0 so k1 becomes the eviction candidate.
	require.NotNil(t, c.Get("k0"))
	c.Put("k3", &SongRecord{Title: "t3"})

	assert.Equal(t, 3, c.Len())
	assert.Nil(t, c.Get("k1"))
	assert.NotNil(t, c.Get("k0"))
	assert.NotNil(t, c.Get("k3"))
}

func TestCacheScanMostRecentFirst(t *testing.T) {
	c := NewCache(10, nil)
	c.Put("a", &SongRecord{Title: "a", Source: SourceYouTube})
	c.Put("b", &SongRecord{Title: "b", Source: SourceWebSearch})
	c.Put("c", &SongRecord{Title: "c", Source: SourceYouTube})

	played := c.Scan(func(r *SongRecord) bool { return r.Source == SourceYouTube }, 5)
	require.Len(t, played, 2)
	assert.Equal(t, "c", played[0].Title)
	assert.Equal(t, "a", played[1].Title)

	limited := c.Scan(nil, 2)
	assert.Len(t, limited, 2)
}
