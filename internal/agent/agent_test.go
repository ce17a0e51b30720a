package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"piedpiper/internal/knowledge"
	"piedpiper/internal/search"
	"piedpiper/internal/session"
	"piedpiper/internal/trace"
)

func TestMain(m *testing.M) {
	// The genai import pulls in opencensus, whose stats worker runs for the
	// life of the process.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func threeHits() []knowledge.VideoHit {
	return []knowledge.VideoHit{
		{VideoID: "vid1", Title: "Lofi Beats to Study To", ChannelTitle: "ChillHop"},
		{VideoID: "vid2", Title: "Lofi Hip Hop Radio", ChannelTitle: "Lofi Girl"},
		{VideoID: "vid3", Title: "Rainy Night Lofi", ChannelTitle: "Dreamscape"},
	}
}

func newTestAgent(opts Options) *Agent {
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	if opts.SearchTimeout == 0 {
		opts.SearchTimeout = time.Second
	}
	return New(opts)
}

func TestPlayUnavailableWithoutBackend(t *testing.T) {
	voice := &fakeVoice{}
	a := newTestAgent(Options{Video: &fakeVideo{available: false}, Voice: voice})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "play shape of you")
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, classifyErr(err))
	assert.Equal(t, apology(KindUnavailable), reply)
	require.Len(t, voice.lines, 1, "the apology is still spoken")
	assert.Equal(t, reply, voice.lines[0])
}

func TestPlayByNameStartsTopHit(t *testing.T) {
	sink := &fakeSink{}
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  sink,
	})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "play lofi beats")
	require.NoError(t, err)
	assert.Contains(t, reply, "Now playing 'Lofi Beats to Study To' by ChillHop")
	require.Len(t, sink.tracks, 1)
	assert.Equal(t, "vid1", sink.tracks[0].VideoID)
}

func TestPlayByNameCachesUnderQueryKey(t *testing.T) {
	cache := knowledge.NewCache(knowledge.DefaultMaxEntries, zap.NewNop())
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  &fakeSink{},
		Cache: cache,
	})
	sess := session.New(session.English)
	ctx := context.Background()

	_, err := a.HandleUtterance(ctx, sess, "play lofi beats")
	require.NoError(t, err)

	// A repeated "play lofi beats" style lookup keys on the asked query, not
	// on whatever title the top hit happened to carry.
	rec := cache.Get(knowledge.QueryKey("lofi beats"))
	require.True(t, rec.Resolved())
	assert.Equal(t, "Lofi Beats to Study To", rec.Title)

	// Number selection carries no query; the played title keys it instead.
	_, err = a.HandleUtterance(ctx, sess, "search for lofi beats")
	require.NoError(t, err)
	_, err = a.HandleUtterance(ctx, sess, "play number 2")
	require.NoError(t, err)
	assert.True(t, cache.Get(knowledge.QueryKey("Lofi Hip Hop Radio")).Resolved())
}

func TestSearchThenPlayByNumber(t *testing.T) {
	sink := &fakeSink{}
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  sink,
	})
	sess := session.New(session.English)
	ctx := context.Background()

	reply, err := a.HandleUtterance(ctx, sess, "search for lofi beats")
	require.NoError(t, err)
	assert.Contains(t, reply, "1. Lofi Beats to Study To — ChillHop")
	assert.Contains(t, reply, "3. Rainy Night Lofi — Dreamscape")
	assert.Contains(t, reply, "play number 2")
	require.Len(t, sess.LastSearchResults(), 3)

	reply, err = a.HandleUtterance(ctx, sess, "play number 2")
	require.NoError(t, err)
	assert.Contains(t, reply, "Now playing 'Lofi Hip Hop Radio' by Lofi Girl")
	require.Len(t, sink.tracks, 1)
	assert.Equal(t, "vid2", sink.tracks[0].VideoID)
}

func TestPlayByNumberOutOfRangeKeepsResults(t *testing.T) {
	sink := &fakeSink{}
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  sink,
	})
	sess := session.New(session.English)
	ctx := context.Background()

	_, err := a.HandleUtterance(ctx, sess, "search for lofi beats")
	require.NoError(t, err)

	reply, err := a.HandleUtterance(ctx, sess, "play number 7")
	require.Error(t, err)
	assert.Equal(t, KindInvalidSelection, classifyErr(err))
	assert.Contains(t, reply, "between 1 and 3", "the correction restates the valid range")
	assert.Empty(t, sink.tracks, "nothing plays on a bad pick")
	assert.Len(t, sess.LastSearchResults(), 3, "the list survives for a retry")

	reply, err = a.HandleUtterance(ctx, sess, "play number 2")
	require.NoError(t, err)
	assert.Contains(t, reply, "Lofi Hip Hop Radio")
}

func TestPlayFirstWithoutSearch(t *testing.T) {
	a := newTestAgent(Options{Video: &fakeVideo{available: true, hits: threeHits()}})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "play the first one")
	require.NoError(t, err)
	assert.Contains(t, reply, "haven't searched")
}

func TestRecentlyPlayedListsHistory(t *testing.T) {
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  &fakeSink{},
	})
	sess := session.New(session.English)
	ctx := context.Background()

	reply, err := a.HandleUtterance(ctx, sess, "what have i been listening to")
	require.NoError(t, err)
	assert.Contains(t, reply, "haven't played anything")

	_, err = a.HandleUtterance(ctx, sess, "play lofi beats")
	require.NoError(t, err)

	reply, err = a.HandleUtterance(ctx, sess, "what have i been listening to")
	require.NoError(t, err)
	assert.Contains(t, reply, "Lofi Beats to Study To")
}

func TestSwitchLanguageFlow(t *testing.T) {
	speech := &fakeSpeech{}
	a := newTestAgent(Options{Speech: speech})
	sess := session.New(session.English)
	ctx := context.Background()

	reply, err := a.HandleUtterance(ctx, sess, "switch to french")
	require.NoError(t, err)
	assert.Equal(t, session.French.Greeting(), reply)
	assert.Equal(t, []string{"fr"}, speech.stt)
	assert.Equal(t, []string{"fr"}, speech.tts)
	assert.Equal(t, session.French, sess.Language())

	reply, err = a.HandleUtterance(ctx, sess, "switch to french")
	require.NoError(t, err)
	assert.Contains(t, reply, "already speaking French")
	assert.Len(t, speech.stt, 1, "no duplicate retargeting")

	reply, err = a.HandleUtterance(ctx, sess, "switch to klingon")
	require.NoError(t, err)
	assert.Contains(t, reply, "don't speak klingon")
	assert.Contains(t, reply, "Hindi")
}

func infoWebResult() *search.WebResult {
	return &search.WebResult{
		Organic: []search.WebHit{
			{
				Title:   "Shape of You - song facts",
				Snippet: "Shape of You was released on 6 January 2017 and peaked at number 1 on the Billboard Hot 100. It is a pop song from the album 'Divide'.",
				Link:    "https://example.com/facts",
			},
			{
				Title:   "Shape of You review",
				Snippet: `Fun fact: the song was originally written for another artist. Similar hits include "Castle on the Hill" and "Galway Girl".`,
				Link:    "https://example.com/review",
			},
		},
		KnowledgeGraph: &search.KnowledgeGraph{
			Title:       "Shape of You",
			Description: "Song by Ed Sheeran",
			ReleaseDate: "January 6, 2017",
			Album:       "Divide",
			Genre:       "Pop",
			Length:      "3:53",
		},
	}
}

func TestSongInfoAggregatesAndCaches(t *testing.T) {
	web := &fakeWeb{available: true, result: infoWebResult()}
	a := newTestAgent(Options{Web: web})
	sess := session.New(session.English)
	ctx := context.Background()

	reply, err := a.HandleUtterance(ctx, sess, `tell me about "Shape of You" by Ed Sheeran`)
	require.NoError(t, err)
	assert.Contains(t, reply, "Here's what I found about 'Shape of You' by Ed Sheeran")
	assert.Contains(t, reply, "Song by Ed Sheeran")
	assert.Contains(t, reply, "Released: January 6, 2017")
	assert.Contains(t, reply, "Album: Divide")
	assert.Contains(t, reply, "Genre: Pop")
	assert.Contains(t, reply, "Duration: 3:53")

	calls := web.callCount()
	assert.Equal(t, 3, calls, "three aggregation queries fan out")

	// Second ask replays from the cache without touching the network.
	cached, err := a.HandleUtterance(ctx, sess, `tell me about "Shape of You" by Ed Sheeran`)
	require.NoError(t, err)
	assert.Equal(t, "From my memory: "+reply, cached)
	assert.Equal(t, calls, web.callCount())
}

func TestSongInfoUnavailableWithoutWeb(t *testing.T) {
	a := newTestAgent(Options{Web: &fakeWeb{available: false}})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, `tell me about "Shape of You" by Ed Sheeran`)
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, classifyErr(err))
	assert.Equal(t, apology(KindUnavailable), reply)
}

func TestSongInfoQueryFlagsGateExtras(t *testing.T) {
	ctx := context.Background()

	bare := newTestAgent(Options{Web: &fakeWeb{available: true, result: infoWebResult()}})
	reply, err := bare.songInfo(ctx, knowledge.SongQuery{
		SongName:   "Shape of You",
		ArtistName: "Ed Sheeran",
	})
	require.NoError(t, err)
	assert.NotContains(t, reply, "You might also like")
	assert.NotContains(t, reply, "A lyric")

	full := newTestAgent(Options{Web: &fakeWeb{available: true, result: infoWebResult()}})
	reply, err = full.songInfo(ctx, knowledge.SongQuery{
		SongName:       "Shape of You",
		ArtistName:     "Ed Sheeran",
		IncludeLyrics:  true,
		IncludeSimilar: true,
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "You might also like: Castle on the Hill, Galway Girl")
}

func TestSongTriviaCachesUnderOwnKey(t *testing.T) {
	web := &fakeWeb{available: true, result: &search.WebResult{
		Organic: []search.WebHit{
			{
				Title:   "Thriller facts",
				Snippet: "Interesting: the song features a spoken-word section by Vincent Price. The album was recorded in just eight weeks during 1982 sessions.",
			},
		},
	}}
	a := newTestAgent(Options{Web: web})
	sess := session.New(session.English)
	ctx := context.Background()

	reply, err := a.HandleUtterance(ctx, sess, "trivia about thriller by michael jackson")
	require.NoError(t, err)
	assert.Contains(t, reply, "Trivia time for 'thriller'")
	assert.Equal(t, 5, web.callCount(), "five trivia queries fan out")

	infoRec := a.Cache().Get(knowledge.SongKey("thriller", "michael jackson"))
	assert.False(t, infoRec.Resolved(), "trivia never pollutes the song-info slot")
	triviaRec := a.Cache().Get(knowledge.TriviaKey("thriller", "michael jackson"))
	require.True(t, triviaRec.Resolved())
	assert.NotEmpty(t, triviaRec.AllTrivia)
}

func TestDebateLifecycle(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)
	ctx := context.Background()

	reply, err := a.HandleUtterance(ctx, sess, "i prefer vinyl over streaming music")
	require.NoError(t, err)
	assert.Contains(t, reply, "Streaming")
	require.NotNil(t, sess.ActiveDebate())
	assert.Equal(t, session.StageOpening, sess.ActiveDebate().Stage)

	reply, err = a.HandleUtterance(ctx, sess, "but what about the sound quality, there's research behind it")
	require.NoError(t, err)
	assert.Contains(t, reply, "evidence")
	require.NotNil(t, sess.ActiveDebate())
	assert.Equal(t, session.StageEvidence, sess.ActiveDebate().Stage)

	_, err = a.HandleUtterance(ctx, sess, "to support my point, collectors keep records for decades")
	require.NoError(t, err)
	assert.Equal(t, session.StageRebuttal, sess.ActiveDebate().Stage)

	reply, err = a.HandleUtterance(ctx, sess, "i disagree because the ritual matters")
	require.NoError(t, err)
	assert.Contains(t, reply, "draw")
	assert.Nil(t, sess.ActiveDebate(), "conclusion clears the debate")

	// With no active debate the cue no longer routes to a debate turn.
	reply, err = a.HandleUtterance(ctx, sess, "but what about the artwork")
	require.NoError(t, err)
	assert.NotContains(t, reply, "rebuttal")
}

func TestTherapyRecordsMood(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "i'm feeling really anxious because of work")
	require.NoError(t, err)
	assert.Contains(t, reply, "Gradual Calming")
	assert.Contains(t, reply, "1. Meet the energy")

	moods := sess.MoodHistory()
	require.Len(t, moods, 1)
	assert.Equal(t, "anxious", moods[0].Mood)
	assert.Equal(t, 8, moods[0].EnergyLevel)
}

func TestTherapyCapitalizesMultibyteSituation(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "i'm feeling stressed because of école deadlines")
	require.NoError(t, err)
	assert.Contains(t, reply, "École deadlines is a lot to carry.")
}

func TestLifeEventSoundtrack(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "make me a playlist for my graduation")
	require.NoError(t, err)
	assert.Contains(t, reply, "soundtrack for your graduation")
	assert.Contains(t, reply, "three acts")

	events := sess.LifeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "graduation", events[0].EventType)
}

func TestSeasonalRecommendAddsFreshPicks(t *testing.T) {
	a := newTestAgent(Options{
		Recommender: &fakeRecommender{available: true, picks: []string{"Night Drive", "Cold Light"}},
	})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "music for the winter")
	require.NoError(t, err)
	assert.Contains(t, reply, "For winter")
	assert.Contains(t, reply, "Fresh picks: Night Drive, Cold Light.")
}

func TestSeasonalRecommendWorksWithoutRecommender(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "music for the summer")
	require.NoError(t, err)
	assert.Contains(t, reply, "For summer")
	assert.NotContains(t, reply, "Fresh picks")
}

func TestDebateRebuttalUsesWebEvidence(t *testing.T) {
	web := &fakeWeb{available: true, result: &search.WebResult{Organic: []search.WebHit{
		{Title: "Format wars", Snippet: "Vinyl revenue is a fraction of what streaming pays out. More detail follows."},
	}}}
	a := newTestAgent(Options{Web: web})
	sess := session.New(session.English)
	ctx := context.Background()

	_, err := a.HandleUtterance(ctx, sess, "i prefer vinyl over streaming music")
	require.NoError(t, err)

	reply, err := a.HandleUtterance(ctx, sess, "but what about the sound quality")
	require.NoError(t, err)
	assert.Contains(t, reply, "Vinyl revenue is a fraction of what streaming pays out")

	d := sess.ActiveDebate()
	require.NotNil(t, d)
	require.Len(t, d.Counterarguments, 1)
}

func TestMeaningWorksWithoutWeb(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, `what does the song "Imagine" mean`)
	require.NoError(t, err)
	assert.Contains(t, reply, "'Imagine'")
	assert.Contains(t, reply, "Surface story")
	assert.Contains(t, reply, "questions to sit with")
}

func TestDeterministicWithSameSeed(t *testing.T) {
	run := func() string {
		a := newTestAgent(Options{Seed: 42})
		sess := session.New(session.English)
		reply, err := a.HandleUtterance(context.Background(), sess, "i need some music to help me relax")
		require.NoError(t, err)
		return reply
	}
	assert.Equal(t, run(), run())
}

func TestFallbackWithoutLLM(t *testing.T) {
	a := newTestAgent(Options{})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "how is the weather today")
	require.NoError(t, err)
	assert.Contains(t, reply, "music")
}

func TestFallbackUsesLLM(t *testing.T) {
	llmClient := &fakeLLM{reply: "Rain or shine, there's a song for it."}
	a := newTestAgent(Options{LLM: llmClient})
	sess := session.New(session.English)

	reply, err := a.HandleUtterance(context.Background(), sess, "how is the weather today")
	require.NoError(t, err)
	assert.Equal(t, "Rain or shine, there's a song for it.", reply)
	require.Len(t, llmClient.prompts, 1)
}

func TestRetrievalHookFindsPlayedSongs(t *testing.T) {
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  &fakeSink{},
	})
	sess := session.New(session.English)
	ctx := context.Background()

	assert.Empty(t, a.OnUserTurnCompleted(sess, `what did you think of "Lofi Beats to Study To"`))

	_, err := a.HandleUtterance(ctx, sess, "play lofi beats")
	require.NoError(t, err)

	got := a.OnUserTurnCompleted(sess, `what did you think of "Lofi Beats to Study To"`)
	assert.True(t, strings.HasPrefix(got, "Music context: "), got)
	assert.Contains(t, got, "Lofi Beats to Study To")
}

func TestFallbackReceivesRetrievalContext(t *testing.T) {
	llmClient := &fakeLLM{reply: "A great study companion."}
	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  &fakeSink{},
		LLM:   llmClient,
	})
	sess := session.New(session.English)
	ctx := context.Background()

	_, err := a.HandleUtterance(ctx, sess, "play lofi beats")
	require.NoError(t, err)
	a.OnUserTurnCompleted(sess, `what did you think of "Lofi Beats to Study To"`)

	_, err = a.HandleUtterance(ctx, sess, "how was your day")
	require.NoError(t, err)
	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "Music context: ")
	assert.Contains(t, llmClient.prompts[0], "Lofi Beats to Study To")
	assert.True(t, strings.HasSuffix(llmClient.prompts[0], "how was your day"), llmClient.prompts[0])

	// The stored context is one-shot; the next free-form turn starts clean.
	_, err = a.HandleUtterance(ctx, sess, "tell me a joke")
	require.NoError(t, err)
	require.Len(t, llmClient.prompts, 2)
	assert.NotContains(t, llmClient.prompts[1], "Music context: ")
}

func TestHandleUtteranceRecordsTrace(t *testing.T) {
	store, err := trace.NewStore(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer store.Close()

	a := newTestAgent(Options{
		Video: &fakeVideo{available: true, hits: threeHits()},
		Sink:  &fakeSink{},
		Trace: store,
	})
	sess := session.New(session.English)
	ctx := context.Background()

	_, err = a.HandleUtterance(ctx, sess, "search for lofi beats")
	require.NoError(t, err)
	_, _ = a.HandleUtterance(ctx, sess, "play number 9")

	turns, err := store.RecentTurns(ctx, sess.ID, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "play_by_number", turns[0].Intent)
	assert.Equal(t, string(KindInvalidSelection), turns[0].ErrorKind)
	assert.Equal(t, "search_by_query", turns[1].Intent)
	assert.Equal(t, "", turns[1].ErrorKind)
}
