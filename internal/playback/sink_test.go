package playback

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingChannel struct {
	payloads [][]byte
	reliable []bool
	err      error
}

func (c *capturingChannel) Publish(_ context.Context, payload []byte, reliable bool) error {
	if c.err != nil {
		return c.err
	}
	c.payloads = append(c.payloads, payload)
	c.reliable = append(c.reliable, reliable)
	return nil
}

func TestDataChannelSinkPublishesPlayCommand(t *testing.T) {
	channel := &capturingChannel{}
	sink := NewDataChannelSink(channel, nil)

	err := sink.Emit(context.Background(), Track{
		VideoID: "dQw4w9WgXcQ",
		Title:   "Never Gonna Give You Up",
		Channel: "Rick Astley",
	})
	require.NoError(t, err)
	require.Len(t, channel.payloads, 1)
	assert.True(t, channel.reliable[0], "play commands require reliable delivery")

	var msg map[string]any
	require.NoError(t, json.Unmarshal(channel.payloads[0], &msg))
	assert.Equal(t, "play_song", msg["type"])
	assert.Equal(t, "dQw4w9WgXcQ", msg["videoId"])
	assert.Equal(t, "Never Gonna Give You Up", msg["title"])
	assert.NotEmpty(t, msg["commandId"])
	assert.NotZero(t, msg["timestamp"])
}

func TestLogSinkNeverFails(t *testing.T) {
	sink := NewLogSink(nil)
	assert.NoError(t, sink.Emit(context.Background(), Track{VideoID: "abc123"}))
}
