// Package playback delivers play commands to whatever surface the agent is
// attached to: a structured log, a realtime data channel, or a local browser
// tab opened on the video.
package playback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Track identifies the video to start.
type Track struct {
	VideoID string
	Title   string
	Channel string
}

// Sink starts playback of a track. Emit must not block on user interaction;
// long operations honor ctx.
type Sink interface {
	Emit(ctx context.Context, track Track) error
}

// DataChannel publishes raw payloads to connected clients. Reliable delivery
// retries until acked.
type DataChannel interface {
	Publish(ctx context.Context, payload []byte, reliable bool) error
}

// LogSink records play commands without side effects. It backs tests and the
// terminal REPL, where the numbered list and the spoken confirmation are the
// whole experience.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, track Track) error {
	s.logger.Info("play command",
		zap.String("video_id", track.VideoID),
		zap.String("title", track.Title),
		zap.String("channel", track.Channel))
	return nil
}

// playMessage is the wire form pushed over the data channel. Clients key off
// the type field.
type playMessage struct {
	Type      string `json:"type"`
	CommandID string `json:"commandId"`
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Channel   string `json:"channel,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// DataChannelSink forwards play commands to room participants as reliable
// JSON messages.
type DataChannelSink struct {
	channel DataChannel
	logger  *zap.Logger
}

func NewDataChannelSink(channel DataChannel, logger *zap.Logger) *DataChannelSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataChannelSink{channel: channel, logger: logger}
}

func (s *DataChannelSink) Emit(ctx context.Context, track Track) error {
	msg := playMessage{
		Type:      "play_song",
		CommandID: uuid.NewString(),
		VideoID:   track.VideoID,
		Title:     track.Title,
		Channel:   track.Channel,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("playback: encode command: %w", err)
	}
	if err := s.channel.Publish(ctx, payload, true); err != nil {
		return fmt.Errorf("playback: publish command: %w", err)
	}
	s.logger.Debug("published play command",
		zap.String("command_id", msg.CommandID),
		zap.String("video_id", track.VideoID))
	return nil
}
