// Package agent ties the intent router, search backends, knowledge cache,
// and playback surface into one conversational music assistant.
package agent

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"piedpiper/internal/knowledge"
	"piedpiper/internal/llm"
	"piedpiper/internal/playback"
	"piedpiper/internal/router"
	"piedpiper/internal/search"
	"piedpiper/internal/session"
	"piedpiper/internal/trace"
)

// WebSearcher is the text search backend.
type WebSearcher interface {
	Available() bool
	Search(ctx context.Context, query string, count int) (*search.WebResult, error)
}

// VideoSearcher is the music video search backend.
type VideoSearcher interface {
	Available() bool
	Search(ctx context.Context, query string, maxResults int) ([]knowledge.VideoHit, error)
}

// Voice speaks a reply to the user. Implementations may print, synthesize,
// or drop the text; HandleUtterance also returns it.
type Voice interface {
	Say(ctx context.Context, text string) error
}

// SpeechConfigurator retargets recognition and synthesis when the
// conversation language changes. Both directions must switch together.
type SpeechConfigurator interface {
	UpdateSTTLanguage(lang string) error
	UpdateTTSLanguage(lang string) error
}

// Recommender supplies fresh track picks seeded by genre. It is optional;
// seasonal suggestions work from the curated tables without one.
type Recommender interface {
	Available() bool
	Recommend(ctx context.Context, seedGenre string, limit int) ([]string, error)
}

// Options wires an Agent. Nil collaborators degrade the matching capability
// instead of crashing: no video searcher means play requests apologize, no
// LLM means unrouted utterances get a canned reply.
type Options struct {
	Web    WebSearcher
	Video  VideoSearcher
	Voice  Voice
	Sink   playback.Sink
	Speech SpeechConfigurator
	LLM    llm.Client
	Cache  *knowledge.Cache
	Trace  *trace.Store
	Logger *zap.Logger

	// Recommender seeds extra picks in seasonal suggestions when present.
	Recommender Recommender

	// MaxResults caps the numbered search list shown to the user.
	MaxResults int
	// SearchTimeout bounds each backend call.
	SearchTimeout time.Duration
	// Seed fixes the random source; zero seeds from the clock.
	Seed int64
}

// Agent handles one utterance at a time per session.
type Agent struct {
	web    WebSearcher
	video  VideoSearcher
	voice  Voice
	sink   playback.Sink
	speech SpeechConfigurator
	llm    llm.Client
	cache  *knowledge.Cache
	trace  *trace.Store
	logger *zap.Logger
	rec    Recommender

	maxResults int
	timeout    time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds an agent from Options, filling defaults.
func New(opts Options) *Agent {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cache == nil {
		opts.Cache = knowledge.NewCache(knowledge.DefaultMaxEntries, opts.Logger)
	}
	if opts.MaxResults <= 0 || opts.MaxResults > search.MaxVideoResults {
		opts.MaxResults = search.MaxVideoResults
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = search.DefaultTimeout
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Agent{
		web:        opts.Web,
		video:      opts.Video,
		voice:      opts.Voice,
		sink:       opts.Sink,
		speech:     opts.Speech,
		llm:        opts.LLM,
		cache:      opts.Cache,
		trace:      opts.Trace,
		logger:     opts.Logger,
		rec:        opts.Recommender,
		maxResults: opts.MaxResults,
		timeout:    opts.SearchTimeout,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Cache exposes the session knowledge cache, mainly for the retrieval hook.
func (a *Agent) Cache() *knowledge.Cache { return a.cache }

// Greet returns the localized session greeting.
func (a *Agent) Greet(sess *session.Context) string {
	return sess.Language().Greeting()
}

// HandleUtterance routes one utterance, runs its handler, speaks the reply,
// and records the turn. The reply is always returned, even on failure.
func (a *Agent) HandleUtterance(ctx context.Context, sess *session.Context, utterance string) (string, error) {
	start := time.Now()

	match, routed := router.Classify(utterance, sess.ActiveDebate() != nil)

	var (
		reply  string
		err    error
		intent = "fallback"
	)
	if routed {
		intent = match.Intent.String()
		reply, err = a.dispatch(ctx, sess, match)
	} else {
		reply = a.fallback(ctx, sess, utterance)
	}

	kind := classifyErr(err)
	if err != nil {
		a.logger.Warn("handler failed",
			zap.String("intent", intent),
			zap.String("kind", string(kind)),
			zap.Error(err))
		reply = apologyFor(err)
	}
	if !routed {
		kind = KindNoMatch
	}

	a.speak(ctx, reply)
	a.record(ctx, trace.Turn{
		SessionID:  sess.ID,
		Utterance:  utterance,
		Intent:     intent,
		Response:   reply,
		ErrorKind:  string(kind),
		DurationMS: time.Since(start).Milliseconds(),
	})
	return reply, err
}

func (a *Agent) dispatch(ctx context.Context, sess *session.Context, m router.Match) (string, error) {
	p := m.Params
	switch m.Intent {
	case router.IntentStartDebate:
		return a.startDebate(sess, p.Topic, p.Position), nil
	case router.IntentContinueDebate:
		return a.continueDebate(ctx, sess, p.Position), nil
	case router.IntentInterpretMeaning:
		return a.interpretMeaning(ctx, p.Song, p.Artist)
	case router.IntentMusicTherapy:
		return a.musicTherapy(sess, p.Feeling, p.Situation, p.Goal), nil
	case router.IntentPredictTrends:
		return a.predictTrends(p.Timeframe, p.Genre), nil
	case router.IntentSeasonalRecommend:
		return a.seasonalRecommend(ctx, p.Season), nil
	case router.IntentLifeEventSoundtrack:
		return a.lifeEventSoundtrack(sess, p.EventType, p.Tone), nil
	case router.IntentLanguageSwitch:
		return a.switchLanguage(sess, p.Language)
	case router.IntentPlayFromLyrics:
		return a.playFromLyrics(ctx, sess, p.Lyrics)
	case router.IntentPlayByNumber:
		return a.playByNumber(ctx, sess, p.Number)
	case router.IntentPlayFirst:
		return a.playByNumber(ctx, sess, 1)
	case router.IntentPlayByName:
		return a.playByName(ctx, sess, p.Query)
	case router.IntentSearchByQuery:
		return a.searchSongs(ctx, sess, p.Query)
	case router.IntentIdentifyFromLyrics:
		return a.identifyLyrics(ctx, p.Lyrics)
	case router.IntentRecentlyPlayed:
		return a.recentlyPlayed(), nil
	case router.IntentSongTrivia:
		return a.songTrivia(ctx, p.Song, p.Artist)
	case router.IntentSongInfo:
		return a.songInfo(ctx, knowledge.SongQuery{
			SongName:       p.Song,
			ArtistName:     p.Artist,
			IncludeLyrics:  true,
			IncludeSimilar: true,
		})
	default:
		return a.fallback(ctx, sess, ""), nil
	}
}

// fallback answers utterances no rule recognized. Knowledge the retrieval
// hook stored after the previous turn rides ahead of the utterance.
func (a *Agent) fallback(ctx context.Context, sess *session.Context, utterance string) string {
	if a.llm == nil || utterance == "" {
		return "I'm all about music. Ask me to play something, search for songs, or tell you about a track."
	}
	prompt := utterance
	if extra := sess.ConsumePendingContext(); extra != "" {
		prompt = extra + "\n\n" + utterance
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	reply, err := a.llm.Complete(cctx, prompt)
	if err != nil {
		a.logger.Warn("llm fallback failed", zap.Error(err))
		return "I'm all about music. Ask me to play something, search for songs, or tell you about a track."
	}
	return reply
}

func (a *Agent) speak(ctx context.Context, text string) {
	if a.voice == nil || text == "" {
		return
	}
	if err := a.voice.Say(ctx, text); err != nil {
		a.logger.Warn("voice output failed", zap.Error(err))
	}
}

func (a *Agent) record(ctx context.Context, turn trace.Turn) {
	if a.trace == nil {
		return
	}
	if err := a.trace.Record(ctx, turn); err != nil {
		a.logger.Warn("trace record failed", zap.Error(err))
	}
}

// searchCtx bounds one backend call.
func (a *Agent) searchCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

// pick returns n distinct items drawn from candidates in random order.
func (a *Agent) pick(candidates []string, n int) []string {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	idx := a.rng.Perm(len(candidates))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, candidates[i])
	}
	return out
}
