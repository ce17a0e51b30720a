package agent

import (
	"context"
	"sync"

	"piedpiper/internal/knowledge"
	"piedpiper/internal/playback"
	"piedpiper/internal/search"
)

// fakeVideo scripts the video search backend.
type fakeVideo struct {
	mu        sync.Mutex
	available bool
	hits      []knowledge.VideoHit
	err       error
	queries   []string
}

func (f *fakeVideo) Available() bool { return f.available }

func (f *fakeVideo) Search(_ context.Context, query string, maxResults int) ([]knowledge.VideoHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if maxResults < len(f.hits) {
		return f.hits[:maxResults], nil
	}
	return f.hits, nil
}

// fakeWeb scripts the web search backend. Safe for the concurrent fan-out.
type fakeWeb struct {
	mu        sync.Mutex
	available bool
	result    *search.WebResult
	err       error
	queries   []string
}

func (f *fakeWeb) Available() bool { return f.available }

func (f *fakeWeb) Search(_ context.Context, query string, count int) (*search.WebResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeWeb) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeRecommender serves canned picks.
type fakeRecommender struct {
	available bool
	picks     []string
	err       error
}

func (f *fakeRecommender) Available() bool { return f.available }

func (f *fakeRecommender) Recommend(_ context.Context, _ string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.picks) > limit {
		return f.picks[:limit], nil
	}
	return f.picks, nil
}

// fakeVoice records everything spoken.
type fakeVoice struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeVoice) Say(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, text)
	return nil
}

// fakeSink records emitted play commands.
type fakeSink struct {
	mu     sync.Mutex
	tracks []playback.Track
	err    error
}

func (f *fakeSink) Emit(_ context.Context, track playback.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tracks = append(f.tracks, track)
	return nil
}

// fakeSpeech records language retargeting calls.
type fakeSpeech struct {
	stt []string
	tts []string
	err error
}

func (f *fakeSpeech) UpdateSTTLanguage(lang string) error {
	if f.err != nil {
		return f.err
	}
	f.stt = append(f.stt, lang)
	return nil
}

func (f *fakeSpeech) UpdateTTSLanguage(lang string) error {
	if f.err != nil {
		return f.err
	}
	f.tts = append(f.tts, lang)
	return nil
}

// fakeLLM returns a scripted completion.
type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
