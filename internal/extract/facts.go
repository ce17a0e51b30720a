package extract

import (
	"regexp"
	"strings"

	"piedpiper/internal/knowledge"
	"piedpiper/internal/search"
)

// SummaryFactLimit is how many facts make it into the spoken summary.
const SummaryFactLimit = 3

// TriviaRenderLimit is how many facts a dedicated trivia request reads out.
const TriviaRenderLimit = 8

// factIndicators flag sentences likely to contain an interesting fact.
// Ordered roughly by specificity; dedupe keeps first-seen order either way.
var factIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:interesting|surprising|unknown|secret|hidden|behind.*?scenes?)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:did you know|fun fact|trivia)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:inspired by|based on|written about)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:recorded|produced|mixed) (?:in|at|by)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:won|nominated|awarded|achieved)[^.!?]*(?:grammy|award|chart|record)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:first|only|last|never|always)[^.!?]*(?:song|time|artist|album)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:million|billion|thousand).*?(?:copies|streams|downloads|sales)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:cover|version|sample) (?:of|by|from)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:banned|censored|controversial)[^.!?]*[.!?]`),
	regexp.MustCompile(`(?is)(?:meaning|about|refers to)[^.!?]*[.!?]`),
}

var factPrefix = regexp.MustCompile(`(?i)^(?:interesting|surprising|fun fact)[:\s]*`)

// enhancedFactPatterns target specific fact categories (awards, firsts,
// recording details, commercial performance) in combined search text.
var enhancedFactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:won|received|awarded|nominated for) ([^,.\n]*(?:grammy|award|prize|oscar|golden globe)[^,.\n]*)`),
	regexp.MustCompile(`(?:platinum|gold|diamond) (?:certified|selling|status)`),
	regexp.MustCompile(`(?:million|billion) (?:copies sold|streams|downloads|views)`),
	regexp.MustCompile(`(?:number one|#1|chart-topping) (?:hit|single|song)`),
	regexp.MustCompile(`(?:first|only|last) (?:song|artist|band) to ([^,.\n]+)`),
	regexp.MustCompile(`(?:banned|censored|controversial) (?:because|for|due to) ([^,.\n]+)`),
	regexp.MustCompile(`(?:inspired|influenced) (?:by|from) ([^,.\n]+)`),
	regexp.MustCompile(`(?:covered by|sampled by|referenced in) ([^,.\n]+)`),
	regexp.MustCompile(`(?:recorded|produced|mixed) (?:in|at) ([^,.\n]+(?:studio|location))`),
	regexp.MustCompile(`(?:took|spent) ([^,.\n]*(?:years?|months?|weeks?|days?)) (?:to (?:write|record|produce))`),
	regexp.MustCompile(`(?:stayed|remained) (?:at|on) (?:number|#) (\d+) (?:for) ([^,.\n]*(?:weeks?|months?))`),
	regexp.MustCompile(`(?:reached|peaked at|hit) (?:number|#) (\d+) (?:in|on) ([^,.\n]*(?:chart|billboard|country))`),
	regexp.MustCompile(`(?:unusual|unique|rare|special) (?:because|for) ([^,.\n]+)`),
}

// Facts extracts interesting-fact sentences from one snippet, cleaned and
// length-bounded, preserving first-seen order without duplicates. A later
// indicator often re-matches the tail of a sentence an earlier one already
// captured in full, so fragments of kept facts are dropped too.
func Facts(snippet string) []string {
	var facts []string
	for _, p := range factIndicators {
		for _, m := range p.FindAllString(snippet, -1) {
			fact := strings.TrimSpace(factPrefix.ReplaceAllString(strings.TrimSpace(m), ""))
			if len(fact) <= 20 || len(fact) >= 200 {
				continue
			}
			if fragmentOfAny(facts, fact) {
				continue
			}
			facts = append(facts, fact)
		}
	}
	return facts
}

// fragmentOfAny reports whether candidate duplicates or is contained in an
// already-kept fact.
func fragmentOfAny(kept []string, candidate string) bool {
	for _, f := range kept {
		if strings.Contains(f, candidate) {
			return true
		}
	}
	return false
}

// TriviaFromHits runs the fact indicators over a result set, skipping
// low-quality sources by title, capped at ten facts per set.
func TriviaFromHits(hits []search.WebHit) []string {
	skipSources := []string{"lyrics", "youtube", "spotify", "apple music", "soundcloud"}
	var facts []string
	seen := make(map[string]struct{})
	for _, hit := range hits {
		title := strings.ToLower(hit.Title)
		skipped := false
		for _, src := range skipSources {
			if strings.Contains(title, src) {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		for _, fact := range Facts(hit.Snippet) {
			if _, dup := seen[fact]; dup {
				continue
			}
			seen[fact] = struct{}{}
			facts = append(facts, fact)
			if len(facts) >= 10 {
				return facts
			}
		}
	}
	return facts
}

// ApplyEnhancedFacts extracts categorized facts from combined text into rec:
// the first SummaryFactLimit joined for the summary, the full set retained
// for trivia requests.
func ApplyEnhancedFacts(combined string, rec *knowledge.SongRecord) {
	if combined == "" || rec == nil {
		return
	}
	lower := strings.ToLower(combined)

	var facts []string
	seen := make(map[string]struct{})
	for _, p := range enhancedFactPatterns {
		for _, m := range p.FindAllStringSubmatch(lower, -1) {
			var fact string
			if len(m) > 1 {
				parts := make([]string, 0, len(m)-1)
				for _, g := range m[1:] {
					if g != "" {
						parts = append(parts, g)
					}
				}
				fact = strings.Join(parts, " ")
			}
			if fact == "" {
				fact = m[0]
			}
			fact = strings.TrimSpace(fact)
			if len(fact) <= 5 {
				continue
			}
			if _, dup := seen[fact]; dup {
				continue
			}
			seen[fact] = struct{}{}
			facts = append(facts, fact)
		}
	}

	if len(facts) == 0 {
		return
	}
	joined := facts
	if len(joined) > SummaryFactLimit {
		joined = joined[:SummaryFactLimit]
	}
	rec.InterestingFacts = strings.Join(joined, " | ")
	rec.AllTrivia = facts
}
