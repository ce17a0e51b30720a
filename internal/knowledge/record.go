// Package knowledge holds the canonical music data model and the per-session
// knowledge cache that backs the retrieval loop.
package knowledge

import (
	"strings"
	"time"
)

// Source identifies where a cached record came from.
type Source string

const (
	SourceWebSearch Source = "web_search"
	SourceYouTube   Source = "youtube_api"
	SourceTrivia    Source = "trivia"
)

// SongQuery is the immutable input to a song lookup.
type SongQuery struct {
	SongName       string
	ArtistName     string
	IncludeLyrics  bool
	IncludeSimilar bool
}

// VideoHit is a single provider-supplied video search result.
type VideoHit struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"published_at"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// WatchURL returns the public watch URL for the hit.
func (v VideoHit) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// SongRecord is the canonical resolved knowledge unit for one song.
// A record with a non-empty Summary is considered resolved and short-circuits
// all future identical lookups.
type SongRecord struct {
	Title            string
	Artist           string
	BasicInfo        string
	ReleaseInfo      string
	AlbumInfo        string
	Genre            string
	Duration         string
	ChartPerformance string
	StreamingStats   string
	Certifications   string
	Writers          string
	Producers        string
	Label            string

	// InterestingFacts holds at most three facts joined with " | " for the
	// user-facing summary; AllTrivia keeps the full extracted set.
	InterestingFacts string
	AllTrivia        []string

	LyricsSnippet string
	SimilarSongs  []string

	YouTubeURL string
	SpotifyURL string

	// Playback bookkeeping for video-backed records.
	VideoID string
	Channel string
	Query   string

	Source     Source
	ResolvedAt time.Time

	// Summary is the exact rendered text spoken to the user, stored so a
	// cache hit can replay it verbatim.
	Summary string
}

// Resolved reports whether the record carries a rendered summary.
func (r *SongRecord) Resolved() bool { return r != nil && r.Summary != "" }

// SongKey derives the cache key for a song/artist pair. The artist part
// defaults to "unknown" so lookups with and without an artist stay distinct.
func SongKey(song, artist string) string {
	a := strings.TrimSpace(strings.ToLower(artist))
	if a == "" {
		a = "unknown"
	}
	return strings.TrimSpace(strings.ToLower(song)) + "_" + a
}

// QueryKey derives the cache key for a free-text query backed by a video search.
func QueryKey(query string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(query)), " ", "_")
}

// TriviaKey derives the cache key for a trivia fan-out result.
func TriviaKey(song, artist string) string {
	return "trivia_" + SongKey(song, artist)
}
