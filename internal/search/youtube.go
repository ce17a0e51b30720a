package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"piedpiper/internal/knowledge"
)

const defaultVideoEndpoint = "https://www.googleapis.com/youtube/v3/search"

// musicCategoryID restricts video search to the provider's music category.
const musicCategoryID = "10"

// MaxVideoResults caps any one video search result set.
const MaxVideoResults = 10

// VideoConfig configures the video search client.
type VideoConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// VideoClient issues single-attempt video queries against the video provider.
type VideoClient struct {
	mu     sync.RWMutex
	cfg    VideoConfig
	http   *http.Client
	logger *zap.Logger
}

// NewVideoClient creates a video search client; a missing API key makes the
// client report unavailable.
func NewVideoClient(cfg VideoConfig, logger *zap.Logger) *VideoClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultVideoEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// SetAPIKey swaps the provider credential, typically after a config reload.
func (c *VideoClient) SetAPIKey(key string) {
	c.mu.Lock()
	c.cfg.APIKey = key
	c.mu.Unlock()
}

func (c *VideoClient) apiKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.APIKey
}

// Available reports whether the provider credential is configured.
func (c *VideoClient) Available() bool { return c.apiKey() != "" }

type videoSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search runs one video query, returning at most maxResults hits in provider
// relevance order. maxResults is clamped to MaxVideoResults.
func (c *VideoClient) Search(ctx context.Context, query string, maxResults int) ([]knowledge.VideoHit, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	if maxResults <= 0 || maxResults > MaxVideoResults {
		maxResults = MaxVideoResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("order", "relevance")
	params.Set("videoCategoryId", musicCategoryID)
	params.Set("key", c.apiKey())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &BackendError{Provider: "video", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &BackendError{Provider: "video", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &BackendError{Provider: "video", Status: resp.StatusCode}
	}

	var payload videoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &BackendError{Provider: "video", Err: fmt.Errorf("decode response: %w", err)}
	}

	hits := make([]knowledge.VideoHit, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		hits = append(hits, knowledge.VideoHit{
			VideoID:      item.ID.VideoID,
			Title:        stripMarkup(item.Snippet.Title),
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			PublishedAt:  item.Snippet.PublishedAt,
			ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
		})
	}

	c.logger.Debug("video search completed", zap.String("query", query), zap.Int("hits", len(hits)))
	return hits, nil
}
