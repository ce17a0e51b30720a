package agent

import (
	"strings"
	"unicode/utf8"

	"piedpiper/internal/extract"
	"piedpiper/internal/knowledge"
	"piedpiper/internal/session"
)

// contextSnippetLimit keeps injected context short enough not to crowd the
// model's prompt.
const contextSnippetLimit = 200

// OnUserTurnCompleted is the retrieval hook: after each user turn it mines
// the utterance for song mentions, collects any cached knowledge, and stores
// the result on the session so the next free-form model turn sees it. It
// only reads the in-memory cache, never the network, so it cannot slow a
// turn down or fail it; no knowledge means an empty string.
func (a *Agent) OnUserTurnCompleted(sess *session.Context, utterance string) string {
	entities := extract.Entities(utterance)
	if len(entities) == 0 {
		sess.SetPendingContext("")
		return ""
	}

	var snippets []string
	seen := make(map[string]struct{})
	add := func(rec *knowledge.SongRecord) {
		if !rec.Resolved() {
			return
		}
		if _, dup := seen[rec.Summary]; dup {
			return
		}
		seen[rec.Summary] = struct{}{}
		snippet := rec.Summary
		if len(snippet) > contextSnippetLimit {
			snippet = clipRunes(snippet, contextSnippetLimit) + "..."
		}
		snippets = append(snippets, snippet)
	}

	for _, entity := range entities {
		add(a.cache.Get(knowledge.SongKey(entity, "")))
		add(a.cache.Get(knowledge.QueryKey(entity)))
		// Played tracks are keyed by the query that started them; a user
		// quoting the title still deserves the match.
		for _, rec := range a.cache.Scan(func(r *knowledge.SongRecord) bool {
			return strings.EqualFold(r.Title, entity)
		}, 1) {
			add(rec)
		}
	}
	if len(snippets) == 0 {
		sess.SetPendingContext("")
		return ""
	}

	out := "Music context: " + strings.Join(snippets, "; ")
	sess.SetPendingContext(out)
	return out
}

// clipRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func clipRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
