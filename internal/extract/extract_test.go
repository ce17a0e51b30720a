package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piedpiper/internal/knowledge"
	"piedpiper/internal/search"
)

func TestEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"Quoted", `what about "Bohemian Rhapsody"?`, []string{"Bohemian Rhapsody"}},
		{"ByArtist", "anything by Queen", []string{"Queen"}},
		{"SongKeyword", "the song Yesterday", []string{"Yesterday"}},
		{"ShortFiltered", `play "ab" now`, nil},
		{"Empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Entities(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Entities(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseLyricsTitleRoundTrip(t *testing.T) {
	song, artist, ok := ParseLyricsTitle(`Song Title - Artist Name lyrics | LyricSite`)
	require.True(t, ok)
	assert.Equal(t, "Song Title", song)
	assert.Equal(t, "Artist Name", artist)

	_, _, ok = ParseLyricsTitle("no separator here")
	assert.False(t, ok)
}

func TestParseLyricsTitleEnDash(t *testing.T) {
	song, artist, ok := ParseLyricsTitle("Hurt – Johnny Cash Lyrics")
	require.True(t, ok)
	assert.Equal(t, "Hurt", song)
	assert.Equal(t, "Johnny Cash", artist)
}

func TestReleaseDateFirstMatchWins(t *testing.T) {
	// Text matches both the high-priority "released ..." pattern and the
	// lower-priority "came out ..." fallback; only the first may win.
	combined := "The single was released on 6 January 2017. It came out in early 2017 to acclaim."
	rec := &knowledge.SongRecord{}
	ApplyFieldPatterns(combined, rec)
	assert.Equal(t, "Released: 6 january 2017", rec.ReleaseInfo)
}

func TestApplyFieldPatternsDoesNotOverwrite(t *testing.T) {
	rec := &knowledge.SongRecord{ReleaseInfo: "Released: from panel"}
	ApplyFieldPatterns("released on 1 January 1999", rec)
	assert.Equal(t, "Released: from panel", rec.ReleaseInfo)
}

func TestApplyFieldPatternsChartGenreAlbum(t *testing.T) {
	combined := `The track peaked at number 3 on the Hot 100. A classic pop song from the album "Divide" of that year.`
	rec := &knowledge.SongRecord{}
	ApplyFieldPatterns(combined, rec)
	assert.Equal(t, "Chart peak: #3", rec.ChartPerformance)
	assert.Equal(t, "divide", rec.AlbumInfo)
	assert.NotEmpty(t, rec.Genre)
}

func TestApplyFieldPatternsStreamingStats(t *testing.T) {
	combined := "The song has amassed 3.2 billion streams worldwide since release."
	rec := &knowledge.SongRecord{}
	ApplyFieldPatterns(combined, rec)
	assert.Equal(t, "Streaming: 3.2 billion streams", rec.StreamingStats)
}

func TestApplyFieldPatternsIdempotent(t *testing.T) {
	combined := "released in 2002, peaked at number 33 on the billboard charts"
	a := &knowledge.SongRecord{}
	b := &knowledge.SongRecord{}
	ApplyFieldPatterns(combined, a)
	ApplyFieldPatterns(combined, b)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("extraction not deterministic:\n%s", diff)
	}
}

func TestApplyFieldPatternsEmptyInput(t *testing.T) {
	rec := &knowledge.SongRecord{}
	ApplyFieldPatterns("", rec)
	assert.Empty(t, rec.ReleaseInfo)
	assert.Empty(t, rec.Genre)
}

func TestMergeKnowledgeGraph(t *testing.T) {
	rec := &knowledge.SongRecord{Title: "query title", Artist: "Unknown"}
	MergeKnowledgeGraph(&search.KnowledgeGraph{
		Title:       "Hurt",
		Description: "Song by Nine Inch Nails",
		ReleaseDate: "1994",
		Album:       "The Downward Spiral",
		Genre:       "Industrial rock",
		Length:      "6:13",
		Artist:      "Nine Inch Nails",
	}, rec)

	assert.Equal(t, "Hurt", rec.Title)
	assert.Equal(t, "Nine Inch Nails", rec.Artist)
	assert.Equal(t, "Released: 1994", rec.ReleaseInfo)
	assert.Equal(t, "Duration: 6:13", rec.Duration)
}

func TestMergeKnowledgeGraphKeepsCallerArtist(t *testing.T) {
	rec := &knowledge.SongRecord{Artist: "Johnny Cash"}
	MergeKnowledgeGraph(&search.KnowledgeGraph{Artist: "Nine Inch Nails"}, rec)
	assert.Equal(t, "Johnny Cash", rec.Artist)
}

func TestFactsDedupeAndBounds(t *testing.T) {
	snippet := "Fun fact: the song was recorded in a single take at Abbey Road. " +
		"Fun fact: the song was recorded in a single take at Abbey Road. " +
		"It won a Grammy Award in 1998 for best rock performance."
	facts := Facts(snippet)
	require.NotEmpty(t, facts)
	seen := map[string]int{}
	for _, f := range facts {
		seen[f]++
		assert.Less(t, len(f), 200)
		assert.Greater(t, len(f), 20)
	}
	for f, n := range seen {
		assert.Equal(t, 1, n, "duplicate fact %q", f)
	}
}

func TestFactsSuppressesContainedFragments(t *testing.T) {
	// The sentence trips both the "did you know" indicator and the sales
	// figure indicator; only the full sentence may survive.
	snippet := "Did you know the track sold over a million copies worldwide."
	facts := Facts(snippet)
	require.Len(t, facts, 1)
	assert.Contains(t, facts[0], "Did you know")
	assert.Contains(t, facts[0], "million copies worldwide")
}

func TestTriviaFromHitsSkipsLowQualitySources(t *testing.T) {
	hits := []search.WebHit{
		{Title: "Song Lyrics | AZLyrics", Snippet: "Fun fact: this should be skipped entirely right here."},
		{Title: "Rolling Stone review", Snippet: "Did you know the track sold over a million copies worldwide."},
	}
	facts := TriviaFromHits(hits)
	require.Len(t, facts, 1)
	assert.Contains(t, facts[0], "million copies")
}

func TestApplyEnhancedFacts(t *testing.T) {
	combined := "the song won a grammy award for record of the year. it was inspired by a breakup. " +
		"platinum certified within weeks. covered by dozens of artists since."
	rec := &knowledge.SongRecord{}
	ApplyEnhancedFacts(combined, rec)
	require.NotEmpty(t, rec.InterestingFacts)
	assert.LessOrEqual(t, len(rec.AllTrivia), 20)
	// Summary keeps at most three facts.
	assert.LessOrEqual(t, countSegments(rec.InterestingFacts), SummaryFactLimit)
	assert.GreaterOrEqual(t, len(rec.AllTrivia), countSegments(rec.InterestingFacts))
}

func countSegments(joined string) int {
	if joined == "" {
		return 0
	}
	n := 1
	for i := 0; i+2 < len(joined); i++ {
		if joined[i:i+3] == " | " {
			n++
		}
	}
	return n
}

func TestCombineHitsSkipsNoise(t *testing.T) {
	hits := []search.WebHit{
		{Title: "Official YouTube video", Snippet: "skip me"},
		{Title: "Wikipedia article", Snippet: "released in 2002"},
	}
	combined := CombineHits(hits)
	assert.NotContains(t, combined, "skip me")
	assert.Contains(t, combined, "released in 2002")
}

func TestLyricsLine(t *testing.T) {
	snippet := "Lyrics to the song\n\"I hurt myself today, to see if I still feel\" official lyrics page"
	line := LyricsLine(snippet)
	assert.Contains(t, line, "hurt myself today")
	assert.Equal(t, "", LyricsLine("nothing useful"))
}

func TestLyricsLineClipsOnRuneBoundary(t *testing.T) {
	// The accented rune straddles the 100-byte cut; clipping must back up to
	// the rune start instead of emitting a broken sequence.
	long := `"` + strings.Repeat("a", 98) + `étoile filante dans la nuit"`
	line := LyricsLine("Quoted below\n" + long)
	require.NotEmpty(t, line)
	assert.True(t, utf8.ValidString(line), "clipped line must stay valid UTF-8")
	assert.NotContains(t, line, "é")
}

func TestSimilarTitles(t *testing.T) {
	snippet := `If you like it try "Thinking Out Loud" and "Photograph", or "Shape of You" again.`
	got := SimilarTitles(snippet, "Shape of You", nil)
	assert.Equal(t, []string{"Thinking Out Loud", "Photograph"}, got)
}

func TestThemes(t *testing.T) {
	text := "Critics say the song is about addiction and regret. It also deals with mortality."
	themes := Themes(text)
	require.Len(t, themes, 2)
	assert.Equal(t, "addiction and regret", themes[0])
}
