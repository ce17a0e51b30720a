// Package router classifies free-form utterances into a closed set of
// intents using an ordered table of pattern rules.
//
// Classification is first-match-wins across intent categories, then
// first-match-wins across pattern variants within a category; parameters come
// from the capture groups of the pattern that matched. Category order is
// fixed at design time and materially changes behavior on ambiguous input
// (debate detection must precede song-info detection, numeric selection must
// precede play-by-name), so it is pinned by tests.
package router

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is a discrete user goal recognized by the router.
type Intent int

const (
	IntentNone Intent = iota
	IntentStartDebate
	IntentContinueDebate
	IntentInterpretMeaning
	IntentMusicTherapy
	IntentPredictTrends
	IntentSeasonalRecommend
	IntentLifeEventSoundtrack
	IntentLanguageSwitch
	IntentPlayFromLyrics
	IntentPlayByNumber
	IntentPlayFirst
	IntentPlayByName
	IntentSearchByQuery
	IntentIdentifyFromLyrics
	IntentRecentlyPlayed
	IntentSongTrivia
	IntentSongInfo
)

var intentNames = map[Intent]string{
	IntentNone:                "none",
	IntentStartDebate:         "start_debate",
	IntentContinueDebate:      "continue_debate",
	IntentInterpretMeaning:    "interpret_meaning",
	IntentMusicTherapy:        "music_therapy",
	IntentPredictTrends:       "predict_trends",
	IntentSeasonalRecommend:   "seasonal_recommend",
	IntentLifeEventSoundtrack: "life_event_soundtrack",
	IntentLanguageSwitch:      "language_switch",
	IntentPlayFromLyrics:      "play_from_lyrics",
	IntentPlayByNumber:        "play_by_number",
	IntentPlayFirst:           "play_first",
	IntentPlayByName:          "play_by_name",
	IntentSearchByQuery:       "search_by_query",
	IntentIdentifyFromLyrics:  "identify_from_lyrics",
	IntentRecentlyPlayed:      "recently_played",
	IntentSongTrivia:          "song_trivia",
	IntentSongInfo:            "song_info",
}

func (i Intent) String() string { return intentNames[i] }

// Params carries the values extracted from the matched pattern's capture
// groups. Only the fields relevant to the matched intent are populated.
type Params struct {
	Query     string
	Song      string
	Artist    string
	Lyrics    string
	Number    int
	Language  string
	Topic     string
	Position  string
	Feeling   string
	Situation string
	Goal      string
	Timeframe string
	Genre     string
	Season    string
	EventType string
	Tone      string
}

// Match is a successful classification.
type Match struct {
	Intent Intent
	Params Params
}

type rule struct {
	intent   Intent
	patterns []*regexp.Regexp
	// needsDebate gates rules that only make sense mid-debate.
	needsDebate bool
	extract     func(utterance string, groups []string) Params
}

var continueDebateCues = []string{
	"i think", "my argument is", "but what about", "to support my point", "i disagree because",
}

// rules is evaluated strictly in order; the first rule whose first matching
// pattern fires wins the utterance.
var rules = []rule{
	{
		intent: IntentStartDebate,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:i think|i believe|in my opinion).*(?:best|better|greatest|worst).*(?:music|song|album|artist|decade|genre)`),
			regexp.MustCompile(`(?i)(?:agree|disagree).*(?:music|song|album|artist)`),
			regexp.MustCompile(`(?i)(?:prefer|like).*(?:over|more than|better than).*(?:music|song|album|artist)`),
			regexp.MustCompile(`(?i)(?:debate|argue|discuss).*(?:music|song|album|artist)`),
		},
		extract: extractDebate,
	},
	{
		intent:      IntentContinueDebate,
		needsDebate: true,
		patterns:    nil, // keyword cues, see matchContinueDebate
		extract: func(utterance string, _ []string) Params {
			return Params{Position: strings.TrimSpace(utterance)}
		},
	},
	{
		intent: IntentInterpretMeaning,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)what (?:does|is).*(?:song|lyrics?).*(?:mean|about|represent)`),
			regexp.MustCompile(`(?i)(?:meaning|interpretation) (?:of|behind).*(?:song|lyrics?)`),
			regexp.MustCompile(`(?i)(?:song|lyrics?) (?:meaning|interpretation|analysis)`),
			regexp.MustCompile(`(?i)what (?:is|are).*(?:song|lyrics?) (?:trying to say|about)`),
		},
		extract: extractMeaning,
	},
	{
		intent: IntentMusicTherapy,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:i feel|i'm feeling|feeling).*(?:anxious|sad|angry|stressed|lonely|depressed|upset|down|overwhelmed)`),
			regexp.MustCompile(`(?i)(?:need|want).*(?:music|songs?) (?:for|to).*(?:relax|calm|feel better|cheer up|cope)`),
			regexp.MustCompile(`(?i)(?:music therapy|therapeutic music|healing music|calming music)`),
			regexp.MustCompile(`(?i)(?:bad day|rough day|difficult time|hard time|struggling)`),
		},
		extract: extractTherapy,
	},
	{
		intent: IntentPredictTrends,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:predict|forecast).*(?:music trends|future music)`),
			regexp.MustCompile(`(?i)what'?s next in music`),
			regexp.MustCompile(`(?i)upcoming music trends`),
			regexp.MustCompile(`(?i)music predictions (?:for )?(?:next year|next \d+ months)`),
			regexp.MustCompile(`(?i)what genres are trending`),
		},
		extract: extractTrends,
	},
	{
		intent: IntentSeasonalRecommend,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:seasonal|current season|weather).*(?:music|songs|playlist|recommendations)`),
			regexp.MustCompile(`(?i)music for (?:the )?(summer|winter|spring|autumn)`),
			regexp.MustCompile(`(?i)what to listen to this season`),
		},
		extract: extractSeason,
	},
	{
		intent: IntentLifeEventSoundtrack,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:create|make|suggest).*(?:soundtrack|playlist).*(?:for my|for a)`),
			regexp.MustCompile(`(?i)music for (?:my|a) (?:graduation|breakup|new job|wedding|moving)`),
			regexp.MustCompile(`(?i)what to listen to during (?:my|a|the)`),
		},
		extract: extractLifeEvent,
	},
	{
		intent: IntentLanguageSwitch,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)switch (?:to|into)\s+(\p{L}+)`),
			regexp.MustCompile(`(?i)speak (?:in\s+|to me in\s+)?(\p{L}+)$`),
			regexp.MustCompile(`(?i)talk (?:to me )?in\s+(\p{L}+)`),
			regexp.MustCompile(`(?i)change (?:the )?language to\s+(\p{L}+)`),
		},
		extract: func(_ string, groups []string) Params {
			return Params{Language: strings.ToLower(groups[1])}
		},
	},
	{
		intent: IntentPlayFromLyrics,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:play|put on)\s+(?:the\s+song\s+)?that\s+goes\s+['"]([^'"\n]+)['"]`),
			regexp.MustCompile(`(?i)(?:play|put on)\s+(?:the\s+song\s+)?that\s+goes\s+(.+)`),
		},
		extract: func(_ string, groups []string) Params {
			return Params{Lyrics: strings.TrimSpace(groups[1])}
		},
	},
	{
		intent: IntentPlayByNumber,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)play\s+(?:number\s+)?(\d+)\b`),
			regexp.MustCompile(`(?i)play\s+the\s+(\d+)(?:st|nd|rd|th)?\s+(?:one|result)`),
			regexp.MustCompile(`(?i)(?:choose|select)\s+(?:number\s+)?(\d+)\b`),
		},
		extract: func(_ string, groups []string) Params {
			n, _ := strconv.Atoi(groups[1])
			return Params{Number: n}
		},
	},
	{
		intent: IntentPlayFirst,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)play\s+(?:the\s+)?first\s+(?:one|result)`),
		},
		extract: func(string, []string) Params { return Params{Number: 1} },
	},
	{
		intent: IntentPlayByName,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)play\s+(?:the\s+song\s+)?['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)put\s+on\s+['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)listen\s+to\s+['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)start\s+playing\s+['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)i\s+want\s+to\s+hear\s+['"]?([^'"\n]+?)['"]?\s*$`),
		},
		extract: func(_ string, groups []string) Params {
			return Params{Query: strings.TrimSpace(groups[1])}
		},
	},
	{
		intent: IntentSearchByQuery,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)search\s+(?:for\s+)?['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)find\s+(?:me\s+)?['"]?([^'"\n]+?)['"]?(?:\s+(?:songs|music))?\s*$`),
			regexp.MustCompile(`(?i)look\s+up\s+['"]?([^'"\n]+?)['"]?\s*$`),
		},
		extract: func(_ string, groups []string) Params {
			return Params{Query: strings.TrimSpace(groups[1])}
		},
	},
	{
		intent: IntentIdentifyFromLyrics,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)what.*song.*goes\s*[,:]?\s*['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)which song has the lyrics\s*['"]?([^'"\n]+?)['"]?\s*$`),
			regexp.MustCompile(`(?i)identify.*lyrics\s*:?\s*['"]?([^'"\n]+?)['"]?\s*$`),
		},
		extract: func(_ string, groups []string) Params {
			return Params{Lyrics: strings.TrimSpace(groups[1])}
		},
	},
	{
		intent: IntentRecentlyPlayed,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)recently played`),
			regexp.MustCompile(`(?i)listening history`),
			regexp.MustCompile(`(?i)what (?:have|did) i (?:been listening to|listened to|played?)`),
		},
		extract: func(string, []string) Params { return Params{} },
	},
	{
		intent: IntentSongTrivia,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:trivia|fun facts?)\s+(?:about|on|for)\s+["']?([^"'\n?]+?)["']?\??\s*$`),
			regexp.MustCompile(`(?i)(?:surprise me with|give me)\s+(?:some\s+)?(?:trivia|facts)\s+(?:about|on)\s+["']?([^"'\n?]+?)["']?\??\s*$`),
		},
		extract: extractSongWithArtist,
	},
	{
		intent: IntentSongInfo,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:tell me about|what about|info on|information about)\s+["']([^"']+)["'](?:\s+by\s+(.+?))?\??\s*$`),
			regexp.MustCompile(`(?i)(?:tell me|what do you know) about (?:the )?(?:song|track)\s+(.+?)(?:\s+by\s+(.+?))?\??\s*$`),
			regexp.MustCompile(`(?i)who (?:sings|sang)\s+["']?([^"'\n?]+?)["']?\??\s*$`),
			regexp.MustCompile(`(?i)do you know (?:the )?song\s+["']?([^"'\n?]+?)["']?\??\s*$`),
			regexp.MustCompile(`(?i)have you heard\s+(?:of\s+)?["']?([^"'\n?]+?)["']?\??\s*$`),
		},
		extract: extractSongInfo,
	},
}

// Classify matches an utterance against the rule table. The second return is
// false on NoMatch, which is distinct from a matched-but-empty result: the
// caller falls through to general conversation handling.
func Classify(utterance string, hasActiveDebate bool) (Match, bool) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return Match{}, false
	}
	for _, r := range rules {
		if r.intent == IntentContinueDebate {
			if hasActiveDebate && matchContinueDebate(trimmed) {
				return Match{Intent: r.intent, Params: r.extract(trimmed, nil)}, true
			}
			continue
		}
		if r.needsDebate && !hasActiveDebate {
			continue
		}
		for _, p := range r.patterns {
			if groups := p.FindStringSubmatch(trimmed); groups != nil {
				return Match{Intent: r.intent, Params: r.extract(trimmed, groups)}, true
			}
		}
	}
	return Match{}, false
}

func matchContinueDebate(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, cue := range continueDebateCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

var (
	debateTopicPattern    = regexp.MustCompile(`(?i)(?:best|better|greatest|worst)\s+(.*?)\s+(?:music|song|album|artist|decade|genre)`)
	debatePositionPattern = regexp.MustCompile(`(?i)(?:i think|i believe|in my opinion)\s*(.*?)(?:\s+are|\s+is)?\s*(?:best|better|greatest|worst)`)
)

func extractDebate(utterance string, _ []string) Params {
	p := Params{Topic: "music", Position: strings.TrimSpace(utterance)}
	if m := debateTopicPattern.FindStringSubmatch(utterance); m != nil && strings.TrimSpace(m[1]) != "" {
		p.Topic = strings.TrimSpace(m[1])
	}
	if m := debatePositionPattern.FindStringSubmatch(utterance); m != nil && strings.TrimSpace(m[1]) != "" {
		p.Position = strings.TrimSpace(m[1])
	}
	return p
}

var (
	meaningQuotedPattern  = regexp.MustCompile(`["']([^"']+)["']`)
	meaningArtistPattern  = regexp.MustCompile(`(?i)\bby\s+([\w ]+?)(?:\s+(?:means?|about|represent|trying)\b|\?|$)`)
	meaningKeywordPattern = regexp.MustCompile(`(?i)(?:song|lyrics?|track)\s+(?:(?:of|about|called)\s+)?(.+?)(?:\s+(?:means?|about|represent|trying to say)\b|\?|$)`)
)

func extractMeaning(utterance string, _ []string) Params {
	var p Params
	if m := meaningArtistPattern.FindStringSubmatch(utterance); m != nil {
		p.Artist = strings.TrimSpace(m[1])
	}
	if m := meaningQuotedPattern.FindStringSubmatch(utterance); m != nil {
		p.Song = strings.TrimSpace(m[1])
		return p
	}
	if m := meaningKeywordPattern.FindStringSubmatch(utterance); m != nil {
		phrase := strings.TrimSpace(m[1])
		if song, artist, found := strings.Cut(phrase, " by "); found {
			p.Song = strings.TrimSpace(song)
			if p.Artist == "" {
				p.Artist = strings.TrimSpace(artist)
			}
		} else {
			p.Song = phrase
		}
	}
	return p
}

var (
	feelingPattern   = regexp.MustCompile(`(?i)(?:feel|feeling)\s+(?:a\s+bit\s+|really\s+|very\s+|so\s+|kind\s+of\s+)?(\w+)`)
	situationPattern = regexp.MustCompile(`(?i)(?:because of|due to|from)\s+(.+)`)
	goalPattern      = regexp.MustCompile(`(?i)(?:to|help me)\s+(relax|calm down|feel better|cheer up|cope|process)`)
)

func extractTherapy(utterance string, _ []string) Params {
	p := Params{Feeling: "unspecified"}
	if m := feelingPattern.FindStringSubmatch(utterance); m != nil {
		p.Feeling = strings.ToLower(m[1])
	}
	if m := situationPattern.FindStringSubmatch(utterance); m != nil {
		p.Situation = strings.TrimSpace(m[1])
	}
	if m := goalPattern.FindStringSubmatch(utterance); m != nil {
		p.Goal = strings.ToLower(m[1])
	}
	return p
}

var (
	timeframePattern   = regexp.MustCompile(`(?i)next year|next \d+ months`)
	trendGenrePattern  = regexp.MustCompile(`(?i)genres? (?:like |such as )?\s*(\w+)`)
	seasonNamePattern  = regexp.MustCompile(`(?i)(summer|winter|spring|autumn)`)
	lifeEventPattern   = regexp.MustCompile(`(?i)(graduation|breakup|new job|wedding|moving|life event)`)
	emotionalTonePatt  = regexp.MustCompile(`(?i)(?:feeling|tone)\s+(positive|negative|mixed|happy|sad|excited|calm)`)
	defaultTrendPeriod = "next_6_months"
)

func extractTrends(utterance string, _ []string) Params {
	p := Params{Timeframe: defaultTrendPeriod}
	if m := timeframePattern.FindString(utterance); m != "" {
		p.Timeframe = strings.ReplaceAll(strings.ToLower(m), " ", "_")
	}
	if m := trendGenrePattern.FindStringSubmatch(utterance); m != nil {
		if g := strings.ToLower(m[1]); g != "trending" {
			p.Genre = g
		}
	}
	return p
}

func extractSeason(utterance string, _ []string) Params {
	var p Params
	if m := seasonNamePattern.FindStringSubmatch(utterance); m != nil {
		p.Season = strings.ToLower(m[1])
	}
	return p
}

func extractLifeEvent(utterance string, _ []string) Params {
	p := Params{EventType: "unspecified"}
	if m := lifeEventPattern.FindStringSubmatch(utterance); m != nil {
		p.EventType = strings.ToLower(m[1])
	}
	if m := emotionalTonePatt.FindStringSubmatch(utterance); m != nil {
		p.Tone = strings.ToLower(m[1])
	}
	return p
}

func extractSongInfo(_ string, groups []string) Params {
	p := Params{Song: strings.TrimSpace(groups[1])}
	if len(groups) > 2 {
		p.Artist = strings.TrimSpace(strings.TrimSuffix(groups[2], "?"))
	}
	return p
}

func extractSongWithArtist(_ string, groups []string) Params {
	var p Params
	phrase := strings.TrimSpace(groups[1])
	if song, artist, found := strings.Cut(phrase, " by "); found {
		p.Song = strings.TrimSpace(song)
		p.Artist = strings.TrimSpace(artist)
	} else {
		p.Song = phrase
	}
	return p
}
