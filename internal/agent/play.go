package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"piedpiper/internal/extract"
	"piedpiper/internal/knowledge"
	"piedpiper/internal/playback"
	"piedpiper/internal/session"
)

// playByName searches videos for the query and starts the top hit.
func (a *Agent) playByName(ctx context.Context, sess *session.Context, query string) (string, error) {
	if a.video == nil || !a.video.Available() {
		return "", fmt.Errorf("play %q: %w", query, errVideoUnavailable())
	}

	sctx, cancel := a.searchCtx(ctx)
	hits, err := a.video.Search(sctx, query, 5)
	cancel()
	if err != nil {
		return "", fmt.Errorf("play %q: %w", query, err)
	}
	if len(hits) == 0 {
		return "", fmt.Errorf("play %q: %w", query, errNoResult)
	}

	return a.startPlayback(ctx, hits[0], query)
}

// searchSongs runs a video search and presents a numbered list. Results are
// remembered on the session so a follow-up "play number N" can pick one.
func (a *Agent) searchSongs(ctx context.Context, sess *session.Context, query string) (string, error) {
	if a.video == nil || !a.video.Available() {
		return "", fmt.Errorf("search %q: %w", query, errVideoUnavailable())
	}

	sctx, cancel := a.searchCtx(ctx)
	hits, err := a.video.Search(sctx, query, a.maxResults)
	cancel()
	if err != nil {
		return "", fmt.Errorf("search %q: %w", query, err)
	}
	if len(hits) == 0 {
		return "", fmt.Errorf("search %q: %w", query, errNoResult)
	}

	sess.SetLastSearchResults(hits)

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I found for '%s':\n", query)
	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. %s", i+1, hit.Title)
		if hit.ChannelTitle != "" {
			fmt.Fprintf(&b, " — %s", hit.ChannelTitle)
		}
		b.WriteString("\n")
	}
	b.WriteString("Say 'play number 2' or 'play the first one' to pick a song.")
	return b.String(), nil
}

// playByNumber starts the n-th result of the previous search, counting from
// one. An out-of-range pick leaves the remembered list untouched so the user
// can simply try again.
func (a *Agent) playByNumber(ctx context.Context, sess *session.Context, n int) (string, error) {
	results := sess.LastSearchResults()
	if len(results) == 0 {
		return "We haven't searched for anything yet. Try 'search for' followed by what you're in the mood for.", nil
	}
	if n < 1 || n > len(results) {
		return "", &selectionError{pick: n, max: len(results)}
	}
	return a.startPlayback(ctx, results[n-1], "")
}

// playFromLyrics resolves a half-remembered lyric to a title via a quoted
// web search on lyrics sites, then plays it. Without a usable web backend it
// degrades to searching videos for the raw words.
func (a *Agent) playFromLyrics(ctx context.Context, sess *session.Context, lyrics string) (string, error) {
	song, artist := a.lookupByLyrics(ctx, lyrics)
	if song != "" {
		query := song
		if artist != "" {
			query += " " + artist
		}
		return a.playByName(ctx, sess, query)
	}
	return a.playByName(ctx, sess, lyrics)
}

// identifyLyrics names the song a lyric fragment belongs to without playing it.
func (a *Agent) identifyLyrics(ctx context.Context, lyrics string) (string, error) {
	if a.web == nil || !a.web.Available() {
		return "", fmt.Errorf("identify lyrics: %w", errWebUnavailable())
	}
	song, artist := a.lookupByLyrics(ctx, lyrics)
	if song == "" {
		return "", fmt.Errorf("identify lyrics %q: %w", lyrics, errNoResult)
	}
	if artist != "" {
		return fmt.Sprintf("That sounds like '%s' by %s.", song, artist), nil
	}
	return fmt.Sprintf("That sounds like '%s'.", song), nil
}

// lookupByLyrics searches the quoted fragment against lyrics pages and reads
// the song and artist out of result titles. Best effort: failures just yield
// empty strings.
func (a *Agent) lookupByLyrics(ctx context.Context, lyrics string) (song, artist string) {
	if a.web == nil || !a.web.Available() {
		return "", ""
	}
	sctx, cancel := a.searchCtx(ctx)
	defer cancel()

	result, err := a.web.Search(sctx, fmt.Sprintf("%q lyrics", lyrics), 5)
	if err != nil {
		a.logger.Debug("lyrics lookup failed", zap.Error(err))
		return "", ""
	}
	for _, hit := range result.Organic {
		if s, ar, ok := extract.ParseLyricsTitle(hit.Title); ok {
			return s, ar
		}
	}
	return "", ""
}

// recentlyPlayed lists the last few tracks started in this session, pulled
// from video-sourced cache records.
func (a *Agent) recentlyPlayed() string {
	recent := a.cache.Scan(func(r *knowledge.SongRecord) bool {
		return r.Source == knowledge.SourceYouTube
	}, 5)
	if len(recent) == 0 {
		return "You haven't played anything this session. Ask me to play something!"
	}

	var b strings.Builder
	b.WriteString("Here's what you've been listening to:\n")
	for i, rec := range recent {
		fmt.Fprintf(&b, "%d. %s", i+1, rec.Title)
		if rec.Channel != "" {
			fmt.Fprintf(&b, " — %s", rec.Channel)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// startPlayback emits the play command and, on success, remembers the track
// so it shows up in the listening history.
func (a *Agent) startPlayback(ctx context.Context, hit knowledge.VideoHit, query string) (string, error) {
	if a.sink != nil {
		err := a.sink.Emit(ctx, playback.Track{
			VideoID: hit.VideoID,
			Title:   hit.Title,
			Channel: hit.ChannelTitle,
		})
		if err != nil {
			return "", fmt.Errorf("start playback of %q: %w", hit.Title, err)
		}
	}

	summary := fmt.Sprintf("Played '%s'.", hit.Title)
	reply := fmt.Sprintf("Now playing '%s'.", hit.Title)
	if hit.ChannelTitle != "" {
		summary = fmt.Sprintf("Played '%s' by %s.", hit.Title, hit.ChannelTitle)
		reply = fmt.Sprintf("Now playing '%s' by %s.", hit.Title, hit.ChannelTitle)
	}

	// Keyed by the query the user asked with, so a repeated "play X" finds
	// it. Number selection has no query and falls back to the title.
	key := knowledge.QueryKey(query)
	if query == "" {
		key = knowledge.QueryKey(hit.Title)
	}
	a.cache.Put(key, &knowledge.SongRecord{
		Title:      hit.Title,
		Channel:    hit.ChannelTitle,
		VideoID:    hit.VideoID,
		Query:      query,
		YouTubeURL: hit.WatchURL(),
		Source:     knowledge.SourceYouTube,
		ResolvedAt: time.Now(),
		Summary:    summary,
	})

	return reply, nil
}
