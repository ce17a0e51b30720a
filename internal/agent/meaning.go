package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"piedpiper/internal/extract"
)

// meaningLayers are the lenses the interpretation walks through, in order.
var meaningLayers = []struct {
	name string
	text string
}{
	{"Surface story", "on its face the song tells a story you can follow line by line, and that literal reading is worth sitting with before digging deeper"},
	{"Emotional core", "underneath the narrative there's a feeling the melody and delivery carry even when the words don't say it outright"},
	{"Imagery", "the recurring images work like anchors; notice which pictures come back and what they stand in for"},
	{"Its moment", "songs soak up the time they were written in, and part of the meaning lives in what was happening around the artist"},
	{"What you bring", "half of any song's meaning comes from the listener; where you were when it found you changes what it says"},
	{"The universal", "strip everything else away and there's usually one human constant underneath that explains why strangers all feel it"},
}

var reflectionQuestions = []string{
	"Which line stops you every time you hear it?",
	"Does the song feel different now than when you first heard it?",
	"If you had to keep one verse and lose the rest, which would you keep?",
	"Who do you picture when you listen to it?",
}

// interpretMeaning walks a song through the interpretive layers, seeded with
// whatever analysis the web turns up. Search failure degrades to the
// layers alone rather than an error; interpretation should always answer.
func (a *Agent) interpretMeaning(ctx context.Context, song, artist string) (string, error) {
	if song == "" {
		return "Tell me which song you'd like me to interpret, like \"what does 'Imagine' mean\".", nil
	}

	label := fmt.Sprintf("'%s'", song)
	if artist != "" {
		label = fmt.Sprintf("'%s' by %s", song, artist)
	}

	query := song
	if artist != "" {
		query += " by " + artist
	}

	var themes []string
	if a.web != nil && a.web.Available() {
		sctx, cancel := a.searchCtx(ctx)
		res, err := a.web.Search(sctx, query+" song meaning analysis", 5)
		cancel()
		if err != nil {
			a.logger.Debug("meaning lookup failed", zap.String("song", song), zap.Error(err))
		} else {
			var combined strings.Builder
			for _, hit := range res.Organic {
				combined.WriteString(hit.Snippet)
				combined.WriteString("\n")
			}
			themes = extract.Themes(combined.String())
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Let's unpack %s layer by layer.", label)
	if len(themes) > 0 {
		if len(themes) > 3 {
			themes = themes[:3]
		}
		fmt.Fprintf(&b, "\nListeners and critics hear themes of %s.", strings.Join(themes, ", "))
	}
	for _, layer := range meaningLayers {
		fmt.Fprintf(&b, "\n%s: %s.", layer.name, layer.text)
	}
	b.WriteString("\nA couple of questions to sit with: ")
	b.WriteString(strings.Join(a.pick(reflectionQuestions, 2), " "))
	return b.String(), nil
}
