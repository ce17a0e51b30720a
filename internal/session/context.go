// Package session holds per-conversation mutable state. A Context is created
// at session start, passed explicitly into every handler call, and discarded
// at session end; nothing here survives a process restart.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"piedpiper/internal/knowledge"
)

// DebateStage is the finite progression of an active music debate.
type DebateStage string

const (
	StageOpening    DebateStage = "opening"
	StageEvidence   DebateStage = "evidence"
	StageRebuttal   DebateStage = "rebuttal"
	StageConclusion DebateStage = "conclusion"
)

// DebateState tracks one in-progress music debate. The conclusion stage
// clears the active debate as a side effect of the closing remark.
type DebateState struct {
	Topic             string
	UserPosition      string
	EvidencePresented []string
	Counterarguments  []string
	Stage             DebateStage
}

// MoodSnapshot records one observed user mood during a therapy interaction.
type MoodSnapshot struct {
	Mood        string
	EnergyLevel int // 1-10
	Situation   string
	ObservedAt  time.Time
}

// LifeEvent records a user-reported life event a soundtrack was built for.
type LifeEvent struct {
	EventType     string
	Description   string
	EmotionalTone string
	OccurredAt    time.Time
}

// Context is the per-conversation state bag. A single handler mutates it per
// turn; the mutex only guards against a future barge-in design, where
// staleness rather than corruption is the accepted risk.
type Context struct {
	mu sync.Mutex

	ID        string
	StartedAt time.Time

	currentLanguage   Language
	lastSearchResults []knowledge.VideoHit
	moodHistory       []MoodSnapshot
	activeDebate      *DebateState
	lifeEvents        []LifeEvent
	pendingContext    string
}

// New creates a fresh session context speaking the given language.
func New(lang Language) *Context {
	if !Supported(lang) {
		lang = English
	}
	return &Context{
		ID:              uuid.NewString(),
		StartedAt:       time.Now(),
		currentLanguage: lang,
	}
}

// Language returns the current conversation language.
func (c *Context) Language() Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLanguage
}

// SetLanguage records a completed language switch.
func (c *Context) SetLanguage(lang Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentLanguage = lang
}

// LastSearchResults returns the most recent search result set. Index 0 is
// the result the user knows as "number 1".
func (c *Context) LastSearchResults() []knowledge.VideoHit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSearchResults
}

// SetLastSearchResults replaces the result set wholesale.
func (c *Context) SetLastSearchResults(hits []knowledge.VideoHit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSearchResults = hits
}

// ActiveDebate returns the in-progress debate, or nil.
func (c *Context) ActiveDebate() *DebateState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeDebate
}

// SetActiveDebate installs or clears (nil) the active debate.
func (c *Context) SetActiveDebate(d *DebateState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeDebate = d
}

// SetPendingContext stores retrieved knowledge to prepend to the next
// free-form model turn. Each turn replaces the previous context.
func (c *Context) SetPendingContext(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingContext = s
}

// ConsumePendingContext returns the stored context and clears it, so stale
// knowledge never leaks into a later turn.
func (c *Context) ConsumePendingContext() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.pendingContext
	c.pendingContext = ""
	return s
}

// RecordMood appends a mood snapshot to the session history.
func (c *Context) RecordMood(m MoodSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moodHistory = append(c.moodHistory, m)
}

// MoodHistory returns the ordered mood snapshots observed so far.
func (c *Context) MoodHistory() []MoodSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MoodSnapshot, len(c.moodHistory))
	copy(out, c.moodHistory)
	return out
}

// RecordLifeEvent appends to the session's append-only life event list.
func (c *Context) RecordLifeEvent(e LifeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lifeEvents = append(c.lifeEvents, e)
}

// LifeEvents returns the recorded life events in order.
func (c *Context) LifeEvents() []LifeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LifeEvent, len(c.lifeEvents))
	copy(out, c.lifeEvents)
	return out
}
