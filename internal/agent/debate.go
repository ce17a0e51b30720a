package agent

import (
	"context"
	"fmt"
	"strings"

	"piedpiper/internal/session"
)

// Debate topics the agent has prepared positions for. Anything else falls
// into the general template.
const (
	topicBestDecade          = "best_decade"
	topicAlbumsVsSingles     = "albums_vs_singles"
	topicStreamingVsPhysical = "streaming_vs_physical"
	topicGenreEvolution      = "genre_evolution"
	topicLiveVsStudio        = "live_vs_studio"
	topicGeneral             = "general"
)

var debateOpenings = map[string]string{
	topicBestDecade: "Bold claim! Every decade thinks it peaked, but innovation tells a different story. " +
		"The 60s invented the studio as an instrument, the 90s fused genres nobody thought could mix. " +
		"What makes your decade stand above those?",
	topicAlbumsVsSingles: "Interesting position! Albums are a director's cut, but singles are pure distilled craft. " +
		"A three-minute song that defines a generation is no small feat. Why does the long form win for you?",
	topicStreamingVsPhysical: "I hear this one a lot! Streaming put every record ever made in your pocket, " +
		"while vinyl makes you sit down and actually listen. Convenience versus ritual. Defend your side!",
	topicGenreEvolution: "Genres are conversations across generations. What sounds like decline is usually " +
		"just evolution you haven't warmed to yet. What's your evidence things were better before?",
	topicLiveVsStudio: "The eternal split! Studio recordings are the artist's intent, note-perfect. " +
		"Live shows are lightning in a bottle. Which imperfection do you prefer, and why?",
	topicGeneral: "Now that's a take worth debating! Music arguments are the best arguments because " +
		"nobody's ever really wrong, just passionately different. Make your case!",
}

var debateCounterpoints = map[string][]string{
	topicBestDecade: {
		"consider how much of that decade's sound was borrowed from the one before it",
		"chart numbers from that era counted very different things than they do now",
	},
	topicAlbumsVsSingles: {
		"plenty of classic albums are two great singles and forty minutes of filler",
		"the single has always been how new listeners actually discover artists",
	},
	topicStreamingVsPhysical: {
		"artists reach audiences today that physical distribution never could",
		"sound quality arguments cut both ways once you account for mastering",
	},
	topicGenreEvolution: {
		"every generation says the same thing about the music that follows theirs",
		"sampling and fusion created entire genres that purists dismissed at first",
	},
	topicLiveVsStudio: {
		"a bad room can ruin the best band, while the studio never has an off night",
		"most 'live' albums are more overdubbed than people want to believe",
	},
	topicGeneral: {
		"taste is shaped by when you first heard something, not just what it is",
		"the counterexamples are usually the songs people conveniently forget",
	},
}

var strengthWords = []string{"because", "evidence", "example", "research", "historically", "statistics"}

// classifyDebateTopic buckets a free-text topic into a prepared position.
func classifyDebateTopic(topic, position string) string {
	text := strings.ToLower(topic + " " + position)
	switch {
	case strings.Contains(text, "decade") || strings.Contains(text, "60s") ||
		strings.Contains(text, "70s") || strings.Contains(text, "80s") ||
		strings.Contains(text, "90s") || strings.Contains(text, "2000s"):
		return topicBestDecade
	case strings.Contains(text, "album") || strings.Contains(text, "single"):
		return topicAlbumsVsSingles
	case strings.Contains(text, "streaming") || strings.Contains(text, "vinyl") ||
		strings.Contains(text, "physical") || strings.Contains(text, "cd"):
		return topicStreamingVsPhysical
	case strings.Contains(text, "live") || strings.Contains(text, "concert") ||
		strings.Contains(text, "studio"):
		return topicLiveVsStudio
	case strings.Contains(text, "genre") || strings.Contains(text, "rock") ||
		strings.Contains(text, "pop") || strings.Contains(text, "rap") ||
		strings.Contains(text, "jazz"):
		return topicGenreEvolution
	default:
		return topicGeneral
	}
}

// argumentStrength scores how much supporting material an argument carries.
func argumentStrength(argument string) string {
	lower := strings.ToLower(argument)
	count := 0
	for _, w := range strengthWords {
		if strings.Contains(lower, w) {
			count++
		}
	}
	switch {
	case count >= 2:
		return "strong"
	case count == 1:
		return "moderate"
	default:
		return "weak"
	}
}

// startDebate opens a friendly argument and remembers it on the session. A
// new opinion while a debate is running restarts with the new topic.
func (a *Agent) startDebate(sess *session.Context, topic, position string) string {
	bucket := classifyDebateTopic(topic, position)
	sess.SetActiveDebate(&session.DebateState{
		Topic:        bucket,
		UserPosition: position,
		Stage:        session.StageOpening,
	})
	return debateOpenings[bucket]
}

// counterEvidence looks for fresh material to back the rebuttal with one
// quick web query. An empty return means the prepared counterpoints carry
// the turn instead.
func (a *Agent) counterEvidence(ctx context.Context, topic string) string {
	if a.web == nil || !a.web.Available() {
		return ""
	}
	sctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	query := strings.ReplaceAll(topic, "_", " ") + " music debate counterarguments"
	res, err := a.web.Search(sctx, query, 3)
	if err != nil || res == nil {
		return ""
	}
	for _, hit := range res.Organic {
		snippet := strings.TrimSpace(hit.Snippet)
		if snippet == "" {
			continue
		}
		if sentence, _, found := strings.Cut(snippet, ". "); found {
			snippet = sentence
		}
		if len(snippet) > 140 {
			continue
		}
		return strings.TrimSuffix(snippet, ".")
	}
	return ""
}

// continueDebate advances the staged exchange. The conclusion stage wraps up
// and clears the debate so normal conversation resumes.
func (a *Agent) continueDebate(ctx context.Context, sess *session.Context, argument string) string {
	d := sess.ActiveDebate()
	if d == nil {
		return "We weren't in the middle of a debate, but I'm always up for one. Tell me a music opinion!"
	}

	strength := argumentStrength(argument)
	d.EvidencePresented = append(d.EvidencePresented, argument)

	counter := a.counterEvidence(ctx, d.Topic)
	if counter == "" {
		counters := debateCounterpoints[d.Topic]
		if len(counters) == 0 {
			counters = debateCounterpoints[topicGeneral]
		}
		counter = counters[len(d.Counterarguments)%len(counters)]
	}
	d.Counterarguments = append(d.Counterarguments, counter)

	var lead string
	switch strength {
	case "strong":
		lead = "Okay, that's genuinely well argued."
	case "moderate":
		lead = "Fair point, though I'm not fully sold."
	default:
		lead = "I hear you, but that's more feeling than evidence."
	}

	switch d.Stage {
	case session.StageOpening:
		d.Stage = session.StageEvidence
		sess.SetActiveDebate(d)
		return fmt.Sprintf("%s Still, %s. What's your strongest evidence?", lead, counter)
	case session.StageEvidence:
		d.Stage = session.StageRebuttal
		sess.SetActiveDebate(d)
		return fmt.Sprintf("%s Here's my rebuttal: %s. Any final points?", lead, counter)
	default:
		sess.SetActiveDebate(nil)
		return fmt.Sprintf("%s You've defended your corner well, and honestly, great music survives every argument about it. "+
			"Let's call it a draw and listen to something.", lead)
	}
}
