package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"piedpiper/internal/extract"
	"piedpiper/internal/knowledge"
	"piedpiper/internal/search"
)

// songInfo aggregates web knowledge about one song: several queries fan out
// concurrently, their hits merge in query order, and the extracted record is
// cached so repeat questions replay from memory without touching the network.
// The query flags decide whether lyrics and similar-song suggestions join the
// answer.
func (a *Agent) songInfo(ctx context.Context, q knowledge.SongQuery) (string, error) {
	song, artist := q.SongName, q.ArtistName
	if song == "" {
		return "Which song do you want to hear about?", nil
	}

	key := knowledge.SongKey(song, artist)
	if rec := a.cache.Get(key); rec.Resolved() {
		return "From my memory: " + rec.Summary, nil
	}

	if a.web == nil || !a.web.Available() {
		return "", fmt.Errorf("song info %q: %w", song, errWebUnavailable())
	}

	base := song
	if artist != "" {
		base += " by " + artist
	}
	queries := []string{
		base + " song information facts",
		base + " release date album chart",
		base + " songwriter producer record label",
	}

	results, err := a.fanOut(ctx, queries)
	if err != nil {
		return "", fmt.Errorf("song info %q: %w", song, err)
	}

	var (
		allHits []search.WebHit
		kg      *search.KnowledgeGraph
	)
	for _, res := range results {
		if res == nil {
			continue
		}
		allHits = append(allHits, res.Organic...)
		if kg == nil && res.KnowledgeGraph != nil {
			kg = res.KnowledgeGraph
		}
	}
	if len(allHits) == 0 && kg == nil {
		return "", fmt.Errorf("song info %q: %w", song, errNoResult)
	}

	rec := &knowledge.SongRecord{
		Title:  song,
		Artist: artist,
		Query:  base,
		Source: knowledge.SourceWebSearch,
	}
	extract.MergeKnowledgeGraph(kg, rec)

	combined := extract.CombineHits(allHits)
	extract.ApplyFieldPatterns(combined, rec)
	extract.ApplyEnhancedFacts(combined, rec)

	for _, hit := range allHits {
		if q.IncludeLyrics && rec.LyricsSnippet == "" {
			rec.LyricsSnippet = extract.LyricsLine(hit.Snippet)
		}
		if q.IncludeSimilar {
			rec.SimilarSongs = append(rec.SimilarSongs,
				extract.SimilarTitles(hit.Snippet, song, rec.SimilarSongs)...)
		}
	}
	if len(rec.SimilarSongs) > 3 {
		rec.SimilarSongs = rec.SimilarSongs[:3]
	}

	summary := renderSongSummary(rec)
	rec.Summary = summary
	rec.ResolvedAt = time.Now()
	a.cache.Put(key, rec)

	return summary, nil
}

// fanOut runs the queries concurrently and returns results indexed by query.
// Individual failures are tolerated; only a total blackout is an error.
func (a *Agent) fanOut(ctx context.Context, queries []string) ([]*search.WebResult, error) {
	results := make([]*search.WebResult, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()
			res, err := a.web.Search(sctx, q, 5)
			if err != nil {
				a.logger.Debug("fan-out query failed", zap.String("query", q), zap.Error(err))
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res != nil {
			return results, nil
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// renderSongSummary turns a record into the spoken answer. Sections with
// nothing extracted are omitted rather than padded.
func renderSongSummary(rec *knowledge.SongRecord) string {
	var b strings.Builder
	if rec.Artist != "" {
		fmt.Fprintf(&b, "Here's what I found about '%s' by %s.", rec.Title, rec.Artist)
	} else {
		fmt.Fprintf(&b, "Here's what I found about '%s'.", rec.Title)
	}

	section := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "\n%s: %s", label, value)
		}
	}
	// ReleaseInfo, Duration, ChartPerformance, and StreamingStats carry
	// their own labels.
	line := func(value string) {
		if value != "" {
			fmt.Fprintf(&b, "\n%s", value)
		}
	}
	section("About", rec.BasicInfo)
	line(rec.ReleaseInfo)
	section("Album", rec.AlbumInfo)
	section("Genre", rec.Genre)
	line(rec.Duration)
	line(rec.ChartPerformance)
	line(rec.StreamingStats)
	section("Credits", rec.Writers)
	section("Label", rec.Label)
	section("Fun facts", rec.InterestingFacts)
	section("A lyric", rec.LyricsSnippet)
	if len(rec.SimilarSongs) > 0 {
		section("You might also like", strings.Join(rec.SimilarSongs, ", "))
	}
	return b.String()
}

// triviaQueries spread the trivia fan-out across different angles on the song.
func triviaQueries(base string) []string {
	return []string{
		base + " trivia facts",
		base + " behind the scenes story",
		base + " recording process interesting",
		base + " chart records achievements",
		base + " cultural impact legacy",
	}
}

// songTrivia collects trivia from a wider fan-out and reads out up to eight
// facts. Results cache under a trivia-specific key so they never collide with
// the song-info record.
func (a *Agent) songTrivia(ctx context.Context, song, artist string) (string, error) {
	if song == "" {
		return "Which song should I dig up trivia for?", nil
	}

	key := knowledge.TriviaKey(song, artist)
	if rec := a.cache.Get(key); rec.Resolved() {
		return "From my memory: " + rec.Summary, nil
	}

	if a.web == nil || !a.web.Available() {
		return "", fmt.Errorf("trivia %q: %w", song, errWebUnavailable())
	}

	base := song
	if artist != "" {
		base += " by " + artist
	}
	results, err := a.fanOut(ctx, triviaQueries(base))
	if err != nil {
		return "", fmt.Errorf("trivia %q: %w", song, err)
	}

	seen := make(map[string]struct{})
	var facts []string
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, fact := range extract.TriviaFromHits(res.Organic) {
			lower := strings.ToLower(fact)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			facts = append(facts, fact)
		}
	}
	if len(facts) == 0 {
		return "", fmt.Errorf("trivia %q: %w", song, errNoResult)
	}
	if len(facts) > extract.TriviaRenderLimit {
		facts = facts[:extract.TriviaRenderLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trivia time for '%s':", song)
	for i, fact := range facts {
		fmt.Fprintf(&b, "\n%d. %s", i+1, fact)
	}
	summary := b.String()

	a.cache.Put(key, &knowledge.SongRecord{
		Title:      song,
		Artist:     artist,
		AllTrivia:  facts,
		Source:     knowledge.SourceTrivia,
		ResolvedAt: time.Now(),
		Summary:    summary,
	})
	return summary, nil
}
