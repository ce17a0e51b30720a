package extract

import (
	"regexp"
	"strings"

	"piedpiper/internal/knowledge"
	"piedpiper/internal/search"
)

// Pattern priority order below mirrors the search-snippet phrasing observed
// in the wild: the specific wording first, looser fallbacks after.

var releaseDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`released (?:on )?([^,.\n]+(?:19|20)\d{2})`),
	regexp.MustCompile(`((?:19|20)\d{2})[^,.\n]*release`),
	regexp.MustCompile(`came out (?:in )?([^,.\n]+(?:19|20)\d{2})`),
}

var chartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:peaked at|reached) (?:number |#)?(\d+)`),
	regexp.MustCompile(`(?:billboard|chart) (?:number |#)?(\d+)`),
	regexp.MustCompile(`(\d+) (?:on the|in the) (?:billboard|charts)`),
}

var genrePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:genre|style|music): ([^,.\n]+)`),
	regexp.MustCompile(`(pop|rock|hip hop|rap|country|jazz|blues|electronic|folk|r&b|soul) (?:song|track|music)`),
}

var albumPatterns = []*regexp.Regexp{
	regexp.MustCompile(`from (?:the album|album) ["']([^"']+)["']`),
	regexp.MustCompile(`album ["']([^"']+)["']`),
	regexp.MustCompile(`appears on ([^,.\n]+(?:album|lp))`),
}

var streamingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([\d.]+\s*(?:billion|million)\s*(?:streams|plays|views))`),
	regexp.MustCompile(`streamed ([\d.]+\s*(?:billion|million)) times`),
}

// firstMatch applies the ordered pattern group and returns the first capture.
// The earliest matching pattern wins; the rest are skipped.
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if len(m) > 1 && m[1] != "" {
				return strings.TrimSpace(m[1])
			}
			return strings.TrimSpace(m[0])
		}
	}
	return ""
}

// ApplyFieldPatterns fills unset fields of rec from the combined search text.
// Fields already populated (for example from a knowledge graph panel) are
// never overwritten.
func ApplyFieldPatterns(combined string, rec *knowledge.SongRecord) {
	if combined == "" || rec == nil {
		return
	}
	lower := strings.ToLower(combined)

	if rec.ReleaseInfo == "" {
		if v := firstMatch(releaseDatePatterns, lower); v != "" {
			rec.ReleaseInfo = "Released: " + v
		}
	}
	if rec.ChartPerformance == "" {
		if v := firstMatch(chartPatterns, lower); v != "" {
			rec.ChartPerformance = "Chart peak: #" + v
		}
	}
	if rec.Genre == "" {
		rec.Genre = firstMatch(genrePatterns, lower)
	}
	if rec.AlbumInfo == "" {
		rec.AlbumInfo = firstMatch(albumPatterns, lower)
	}
	if rec.StreamingStats == "" {
		if v := firstMatch(streamingPatterns, lower); v != "" {
			rec.StreamingStats = "Streaming: " + v
		}
	}
}

// MergeKnowledgeGraph copies structured panel data into rec. Panel values
// take precedence over anything pattern extraction would later produce, but
// an artist supplied by the caller is kept.
func MergeKnowledgeGraph(kg *search.KnowledgeGraph, rec *knowledge.SongRecord) {
	if kg == nil || rec == nil {
		return
	}
	if kg.Title != "" {
		rec.Title = kg.Title
	}
	if kg.Description != "" {
		rec.BasicInfo = kg.Description
	}
	if kg.ReleaseDate != "" {
		rec.ReleaseInfo = "Released: " + kg.ReleaseDate
	}
	if kg.Album != "" {
		rec.AlbumInfo = kg.Album
	}
	if kg.Genre != "" {
		rec.Genre = kg.Genre
	}
	if d := firstNonEmpty(kg.Length, kg.Duration); d != "" {
		rec.Duration = "Duration: " + d
	}
	if rec.Artist == "" || rec.Artist == "Unknown" {
		if a := firstNonEmpty(kg.Artist, kg.By); a != "" {
			rec.Artist = a
		}
	}
}

// CombineHits flattens web hits into one text blob for pattern extraction,
// skipping results whose titles mark them as low-signal sources. At most six
// hits are considered.
func CombineHits(hits []search.WebHit) string {
	skip := []string{"youtube", "spotify", "lyrics only", "karaoke", "instrumental"}
	var b strings.Builder
	n := 0
	for _, hit := range hits {
		if n >= 6 {
			break
		}
		title := strings.ToLower(hit.Title)
		skipped := false
		for _, kw := range skip {
			if strings.Contains(title, kw) {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		b.WriteString(title)
		b.WriteString(" ")
		b.WriteString(hit.Snippet)
		b.WriteString(" ")
		n++
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
