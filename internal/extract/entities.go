// Package extract turns unstructured search text into structured song
// knowledge. Everything here is pure text-in/struct-out: no I/O, and empty or
// malformed input leaves fields unset instead of erroring.
//
// Field extraction is governed by a strict first-match-wins policy: for each
// field the patterns are ordered by priority, the earliest match is kept, and
// the remaining patterns for that field are skipped. Later patterns are
// intentionally lower-priority fallbacks, so the ordering is load-bearing.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"\n]+)"`),
	regexp.MustCompile(`'([^'\n]+)'`),
	regexp.MustCompile(`(?i)by\s+([A-Za-z0-9\s&]+)`),
	regexp.MustCompile(`(?i)from\s+([A-Za-z0-9\s&]+)`),
	regexp.MustCompile(`(?i)(?:song|track|album)\s+([A-Za-z0-9\s&]+)`),
}

// Entities extracts song/artist candidates from free text using quoted-phrase,
// "by X", "from X" and "song/track/album X" shapes. Candidates shorter than
// three characters are dropped; order of first appearance is preserved.
func Entities(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range entityPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) <= 2 {
				continue
			}
			key := strings.ToLower(candidate)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, candidate)
		}
	}
	return out
}

// lyricsTitlePattern matches the conventional `<song> - <artist> lyrics`
// shape of lyrics-site page titles.
var lyricsTitlePattern = regexp.MustCompile(`(?i)^(.*?)\s*[-–]\s*(.*?)\s*lyrics?`)

// ParseLyricsTitle splits a lyrics-site page title into song and artist.
// The second return is false when the title does not follow the shape.
func ParseLyricsTitle(title string) (song, artist string, ok bool) {
	m := lyricsTitlePattern.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// LyricsLine picks the first line of a search snippet that plausibly quotes
// actual lyrics, truncated for spoken output. Returns "" when nothing fits.
func LyricsLine(snippet string) string {
	if !strings.Contains(snippet, `"`) && !strings.Contains(strings.ToLower(snippet), "lyrics") {
		return ""
	}
	for _, line := range strings.Split(snippet, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "lyrics") || strings.HasPrefix(lower, "song") || strings.HasPrefix(lower, "artist") {
			continue
		}
		if len(line) > 100 {
			line = clipToRune(line, 100)
		}
		return line + "..."
	}
	return ""
}

// clipToRune cuts s to at most n bytes without splitting a UTF-8 sequence.
func clipToRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var quotedTitlePattern = regexp.MustCompile(`"([^"]+)"`)

// SimilarTitles pulls quoted song titles out of a snippet, excluding the
// given title and anything already collected by the caller.
func SimilarTitles(snippet, exclude string, already []string) []string {
	var out []string
	have := make(map[string]struct{}, len(already))
	for _, s := range already {
		have[strings.ToLower(s)] = struct{}{}
	}
	have[strings.ToLower(exclude)] = struct{}{}
	for _, m := range quotedTitlePattern.FindAllStringSubmatch(snippet, -1) {
		title := strings.TrimSpace(m[1])
		if len(title) <= 5 {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := have[key]; dup {
			continue
		}
		have[key] = struct{}{}
		out = append(out, title)
	}
	return out
}

var themePattern = regexp.MustCompile(`(?i)(?:is about|explores|deals with|themes? of|speaks to|reflects on)\s+([^,.\n]+)`)

// Themes extracts interpretive theme phrases from meaning-oriented snippets.
func Themes(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range themePattern.FindAllStringSubmatch(text, -1) {
		theme := strings.TrimSpace(m[1])
		if len(theme) <= 3 {
			continue
		}
		key := strings.ToLower(theme)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, theme)
	}
	return out
}
