package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"piedpiper/internal/agent"
	"piedpiper/internal/config"
	"piedpiper/internal/knowledge"
	"piedpiper/internal/llm"
	"piedpiper/internal/playback"
	"piedpiper/internal/search"
	"piedpiper/internal/session"
	"piedpiper/internal/trace"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// consoleVoice renders replies to the terminal through glamour so the
// numbered lists and sections read well.
type consoleVoice struct {
	renderer *glamour.TermRenderer
}

func newConsoleVoice() *consoleVoice {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	return &consoleVoice{renderer: renderer}
}

func (v *consoleVoice) Say(_ context.Context, text string) error {
	if v.renderer != nil {
		if out, err := v.renderer.Render(text); err == nil {
			fmt.Print(agentStyle.Render("piper") + out)
			return nil
		}
	}
	fmt.Println(agentStyle.Render("piper ") + text)
	return nil
}

// logSpeech stands in for a realtime speech pipeline: language switches are
// logged instead of retargeting recognizer and synthesizer models.
type logSpeech struct {
	logger *zap.Logger
}

func (s *logSpeech) UpdateSTTLanguage(lang string) error {
	s.logger.Info("recognition language updated", zap.String("language", lang))
	return nil
}

func (s *logSpeech) UpdateTTSLanguage(lang string) error {
	s.logger.Info("synthesis language updated", zap.String("language", lang))
	return nil
}

func buildSink(cfg *config.Config, logger *zap.Logger) playback.Sink {
	if cfg.Playback.Mode == "browser" {
		return playback.NewBrowserSink(cfg.Playback.Headless, logger)
	}
	return playback.NewLogSink(logger)
}

func runChat(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	web := search.NewWebClient(search.WebConfig{
		APIKey:   cfg.Search.WebAPIKey,
		Endpoint: cfg.Search.WebEndpoint,
		Timeout:  cfg.SearchTimeout(),
	}, logger)
	video := search.NewVideoClient(search.VideoConfig{
		APIKey:   cfg.Search.VideoAPIKey,
		Endpoint: cfg.Search.VideoEndpoint,
		Timeout:  cfg.SearchTimeout(),
	}, logger)

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logger.Warn("llm disabled", zap.Error(err))
		} else {
			llmClient = client
		}
	}

	var store *trace.Store
	if cfg.Trace.Enabled {
		s, err := trace.NewStore(cfg.Trace.DatabasePath)
		if err != nil {
			logger.Warn("trace disabled", zap.Error(err))
		} else {
			store = s
			defer store.Close()
		}
	}

	sink := buildSink(cfg, logger)
	if closer, ok := sink.(*playback.BrowserSink); ok {
		defer closer.Close()
	}

	a := agent.New(agent.Options{
		Web:           web,
		Video:         video,
		Voice:         newConsoleVoice(),
		Sink:          sink,
		Speech:        &logSpeech{logger: logger},
		LLM:           llmClient,
		Cache:         knowledge.NewCache(cfg.Cache.MaxEntries, logger),
		Trace:         store,
		Logger:        logger,
		MaxResults:    cfg.Search.MaxResults,
		SearchTimeout: cfg.SearchTimeout(),
	})

	lang, ok := session.ParseLanguage(cfg.Session.DefaultLanguage)
	if !ok {
		lang = session.English
	}
	sess := session.New(lang)

	// Rotated credentials apply on the next turn without a restart.
	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		web.SetAPIKey(next.Search.WebAPIKey)
		video.SetAPIKey(next.Search.VideoAPIKey)
	}, logger)
	if err == nil {
		if startErr := watcher.Start(ctx); startErr == nil {
			defer watcher.Stop()
		}
	}

	fmt.Println(dimStyle.Render("Pied Piper " + version + " — type 'exit' to quit"))
	fmt.Println(agentStyle.Render("piper ") + a.Greet(sess))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you "))
		if ctx.Err() != nil {
			return nil
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println(dimStyle.Render("Keep listening!"))
			return nil
		}

		if _, err := a.HandleUtterance(ctx, sess, input); err != nil {
			logger.Debug("turn failed", zap.Error(err))
		}
		if extra := a.OnUserTurnCompleted(sess, input); extra != "" {
			logger.Debug("retrieval context", zap.String("context", extra))
		}
	}
}
