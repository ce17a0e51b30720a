package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// BrowserSink opens each track in a local Chrome tab. One browser is launched
// lazily on the first Emit and reused after; the previous tab is closed so
// songs do not play over each other.
type BrowserSink struct {
	mu       sync.Mutex
	browser  *rod.Browser
	page     *rod.Page
	headless bool
	logger   *zap.Logger
}

func NewBrowserSink(headless bool, logger *zap.Logger) *BrowserSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserSink{headless: headless, logger: logger}
}

func (s *BrowserSink) ensureStarted(ctx context.Context) error {
	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return nil
		}
		s.logger.Warn("stale browser connection, relaunching")
		_ = s.browser.Close()
		s.browser = nil
		s.page = nil
	}

	controlURL, err := launcher.New().Headless(s.headless).Launch()
	if err != nil {
		return fmt.Errorf("playback: launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("playback: connect to chrome: %w", err)
	}
	s.browser = browser
	return nil
}

func (s *BrowserSink) Emit(ctx context.Context, track Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(ctx); err != nil {
		return err
	}

	url := "https://www.youtube.com/watch?v=" + track.VideoID
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("playback: open page: %w", err)
	}
	if s.page != nil {
		_ = s.page.Close()
	}
	s.page = page
	s.logger.Info("opened video in browser",
		zap.String("video_id", track.VideoID),
		zap.String("title", track.Title))
	return nil
}

// Close shuts the browser down. Safe to call without a prior Emit.
func (s *BrowserSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		err := s.browser.Close()
		s.browser = nil
		return err
	}
	return nil
}
