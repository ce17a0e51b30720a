package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"piedpiper/internal/session"
)

// Emotional energy bands drive which therapeutic arc is suggested. The iso
// principle: meet the listener where they are, then move gradually.
var (
	highEnergyFeelings = map[string]bool{
		"angry": true, "anxious": true, "stressed": true, "overwhelmed": true, "frustrated": true,
	}
	lowEnergyFeelings = map[string]bool{
		"sad": true, "depressed": true, "down": true, "lonely": true, "tired": true, "upset": true,
	}
)

type therapyPhase struct {
	name string
	text string
}

var therapyApproaches = map[string]struct {
	name   string
	phases []therapyPhase
}{
	"calming": {
		name: "Gradual Calming",
		phases: []therapyPhase{
			{"Meet the energy", "start with something intense that matches how wound up you feel, so the music meets you where you are"},
			{"Bring it down", "shift to mid-tempo tracks with steady rhythms, letting your breathing sync to the beat"},
			{"Settle", "finish with slow, warm pieces, acoustic or ambient, until the tension has somewhere to go"},
		},
	},
	"processing": {
		name: "Emotional Processing",
		phases: []therapyPhase{
			{"Sit with it", "begin with songs that name the feeling; being understood by a song is half the relief"},
			{"Turn it over", "move to reflective tracks that give the feeling some room without feeding it"},
			{"Look forward", "close with something quietly hopeful, not forced cheer, just a door left open"},
		},
	},
	"lifting": {
		name: "Mood Enhancement",
		phases: []therapyPhase{
			{"Gentle start", "ease in with mellow songs you already love; familiarity does the first lifting"},
			{"Build", "step up to brighter tempos and major keys as the energy starts to take"},
			{"Celebrate", "land on the songs that make you move, the ones you can't sit still through"},
		},
	},
}

var copingStrategies = []string{
	"try singing along, even badly; it regulates breathing better than silence does",
	"put the phone down for one full song and just listen",
	"make a three-song ritual for this feeling so next time the playlist is ready",
	"move while you listen, even just pacing; motion helps the music work",
}

// musicTherapy suggests a three-phase listening arc for the reported feeling
// and remembers the mood on the session.
func (a *Agent) musicTherapy(sess *session.Context, feeling, situation, goal string) string {
	approachKey := "lifting"
	switch {
	case goal == "process":
		approachKey = "processing"
	case highEnergyFeelings[feeling]:
		approachKey = "calming"
	case lowEnergyFeelings[feeling]:
		approachKey = "processing"
	}
	approach := therapyApproaches[approachKey]

	energy := 5
	switch {
	case highEnergyFeelings[feeling]:
		energy = 8
	case lowEnergyFeelings[feeling]:
		energy = 3
	}
	sess.RecordMood(session.MoodSnapshot{
		Mood:        feeling,
		EnergyLevel: energy,
		Situation:   situation,
		ObservedAt:  time.Now(),
	})

	var b strings.Builder
	if feeling != "" && feeling != "unspecified" {
		fmt.Fprintf(&b, "Sorry you're feeling %s.", feeling)
		if situation != "" {
			fmt.Fprintf(&b, " %s is a lot to carry.", capitalize(situation))
		}
	} else {
		b.WriteString("Let's put music to work on that.")
	}
	fmt.Fprintf(&b, " I'd suggest a %s arc:", approach.name)
	for i, phase := range approach.phases {
		fmt.Fprintf(&b, "\n%d. %s: %s.", i+1, phase.name, phase.text)
	}
	b.WriteString("\nWhile you listen: ")
	b.WriteString(strings.Join(a.pick(copingStrategies, 2), " Also, "))
	return b.String()
}

var trendPredictions = map[string][]string{
	"next_6_months": {
		"shorter songs built for replay value keep winning",
		"regional scenes keep crossing over, with Afrobeats and Latin pop leading",
		"more artists releasing live and stripped versions alongside singles",
	},
	"next_year": {
		"genre labels blur further as playlists replace formats",
		"AI-assisted production becomes a credit, not a secret",
		"catalog rediscovery cycles speed up; expect another decades-old number one",
	},
}

// predictTrends reads the tea leaves for a timeframe, optionally angled at a
// genre. Predictions are editorial, not data, and say so.
func (a *Agent) predictTrends(timeframe, genre string) string {
	preds, ok := trendPredictions[timeframe]
	if !ok {
		preds = trendPredictions["next_6_months"]
		timeframe = "next_6_months"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "My crystal ball for the %s:", strings.ReplaceAll(timeframe, "_", " "))
	for i, p := range preds {
		fmt.Fprintf(&b, "\n%d. %s.", i+1, p)
	}
	if genre != "" {
		fmt.Fprintf(&b, "\nFor %s specifically, expect cross-pollination with whatever's topping the streaming charts.", genre)
	}
	b.WriteString("\nTake it with a grain of salt; music loves proving predictions wrong.")
	return b.String()
}

type seasonProfile struct {
	genres   []string
	moods    []string
	classics []string
	insight  string
}

var seasonProfiles = map[string]seasonProfile{
	"spring": {
		genres:   []string{"indie pop", "folk", "soul"},
		moods:    []string{"fresh", "hopeful", "light"},
		classics: []string{"Here Comes the Sun", "Blackbird"},
		insight:  "Spring listening trends toward renewal; brighter keys and acoustic textures",
	},
	"summer": {
		genres:   []string{"pop", "reggaeton", "surf rock"},
		moods:    []string{"carefree", "energetic", "social"},
		classics: []string{"Summertime", "California Gurls"},
		insight:  "Summer is the season of the hook; songs built for open windows",
	},
	"autumn": {
		genres:   []string{"indie folk", "alt rock", "jazz"},
		moods:    []string{"reflective", "cozy", "nostalgic"},
		classics: []string{"Autumn Leaves", "Harvest Moon"},
		insight:  "Autumn pulls listening inward; lyrics start mattering more than tempo",
	},
	"winter": {
		genres:   []string{"ambient", "classical", "slowcore"},
		moods:    []string{"quiet", "intimate", "warm"},
		classics: []string{"River", "Winter Song"},
		insight:  "Winter rewards patience; longer songs and softer dynamics",
	},
}

// seasonFromMonth maps the calendar to a northern-hemisphere season.
func seasonFromMonth(m time.Month) string {
	switch m {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "autumn"
	default:
		return "winter"
	}
}

// seasonalRecommend suggests music for a season, defaulting to the current
// one. A configured recommender adds fresh picks; its failures only cost the
// extra line.
func (a *Agent) seasonalRecommend(ctx context.Context, season string) string {
	if _, ok := seasonProfiles[season]; !ok {
		season = seasonFromMonth(time.Now().Month())
	}
	p := seasonProfiles[season]

	var b strings.Builder
	fmt.Fprintf(&b, "For %s I'd lean into %s.", season, strings.Join(p.genres, ", "))
	fmt.Fprintf(&b, "\nMoods that fit: %s.", strings.Join(p.moods, ", "))
	fmt.Fprintf(&b, "\nSeasonal classics: %s.", strings.Join(p.classics, " and "))
	fmt.Fprintf(&b, "\n%s.", p.insight)

	if a.rec != nil && a.rec.Available() {
		rctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if picks, err := a.rec.Recommend(rctx, p.genres[0], 3); err == nil && len(picks) > 0 {
			fmt.Fprintf(&b, "\nFresh picks: %s.", strings.Join(picks, ", "))
		}
	}
	return b.String()
}

type eventPhase struct {
	name string
	text string
}

var lifeEventPhases = map[string][]eventPhase{
	"graduation": {
		{"Looking back", "songs that soundtrack the years you're closing out"},
		{"The moment", "big, triumphant tracks for the day itself"},
		{"What's next", "forward-looking anthems for the blank page ahead"},
	},
	"breakup": {
		{"Feel it", "sad songs first; skipping this phase never works"},
		{"Anger and anthems", "the righteous, louder chapter"},
		{"Yours again", "songs about being whole on your own"},
	},
	"new job": {
		{"Nerves", "calm, confident tracks for the night before"},
		{"Game face", "your walk-in-the-door song matters, pick it deliberately"},
		{"Settling in", "focus-friendly music for the first weeks"},
	},
	"wedding": {
		{"The build-up", "songs from the story of the two of you"},
		{"The day", "the first-dance shortlist and the floor-fillers"},
		{"After", "quieter songs for the life that starts next"},
	},
	"moving": {
		{"Boxes", "upbeat, task-friendly music for the packing grind"},
		{"The drive", "a proper road-trip sequence for the journey itself"},
		{"New walls", "songs to make the unfamiliar place start feeling like yours"},
	},
}

var personalTouches = []string{
	"add one song that only makes sense to you; every soundtrack needs a private track",
	"close the playlist with the song you'd want to remember this chapter by",
	"borrow one song from someone who matters to this moment",
	"leave one slot empty for the song this chapter hasn't given you yet",
}

// lifeEventSoundtrack builds a phased soundtrack for a life moment and logs
// the event on the session.
func (a *Agent) lifeEventSoundtrack(sess *session.Context, eventType, tone string) string {
	phases, ok := lifeEventPhases[eventType]
	if !ok {
		return "I can score graduations, breakups, new jobs, weddings, and moves. Which chapter are you in?"
	}

	sess.RecordLifeEvent(session.LifeEvent{
		EventType:     eventType,
		EmotionalTone: tone,
		OccurredAt:    time.Now(),
	})

	var b strings.Builder
	fmt.Fprintf(&b, "A soundtrack for your %s, in three acts:", eventType)
	for i, phase := range phases {
		fmt.Fprintf(&b, "\n%d. %s: %s.", i+1, phase.name, phase.text)
	}
	if tone != "" {
		fmt.Fprintf(&b, "\nSince you're feeling %s about it, weight the playlist that way.", tone)
	}
	b.WriteString("\nOne more thing: ")
	b.WriteString(strings.Join(a.pick(personalTouches, 2), " And "))
	return b.String()
}

// capitalize upper-cases the first rune of s, leaving multibyte runes intact.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
