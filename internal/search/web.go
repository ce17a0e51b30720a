// Package search adapts the external web and video search providers behind
// narrow, credential-gated clients. No interpretation of results happens
// here; extraction lives in internal/extract.
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
)

const defaultWebEndpoint = "https://serpapi.com/search.json"

// DefaultTimeout bounds every outbound search call. Exceeding it is treated
// as a BackendError, never as a fatal condition for the conversation turn.
const DefaultTimeout = 5 * time.Second

// WebHit is one organic web search result.
type WebHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// KnowledgeGraph carries the structured panel a web search sometimes returns
// alongside organic results.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReleaseDate string `json:"release_date"`
	Album       string `json:"album"`
	Genre       string `json:"genre"`
	Length      string `json:"length"`
	Duration    string `json:"duration"`
	Artist      string `json:"artist"`
	By          string `json:"by"`
}

// WebResult is the raw output of one web query.
type WebResult struct {
	Organic        []WebHit        `json:"organic_results"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph"`
}

// WebConfig configures the web search client.
type WebConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// WebClient issues single-attempt web queries against the search provider.
// The credential may be swapped at runtime; everything else is immutable.
type WebClient struct {
	mu     sync.RWMutex
	cfg    WebConfig
	http   *http.Client
	logger *zap.Logger
}

// NewWebClient creates a web search client. A missing API key is legal; the
// client then reports unavailable and every call fails with ErrUnavailable.
func NewWebClient(cfg WebConfig, logger *zap.Logger) *WebClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultWebEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Available reports whether the provider credential is configured.
func (c *WebClient) Available() bool { return c.apiKey() != "" }

// SetAPIKey swaps the provider credential, typically on config reload.
func (c *WebClient) SetAPIKey(key string) {
	c.mu.Lock()
	c.cfg.APIKey = key
	c.mu.Unlock()
}

func (c *WebClient) apiKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.APIKey
}

// Search runs one web query and returns the raw structured result. A single
// attempt is made; callers issuing multiple queries treat each independently.
func (c *WebClient) Search(ctx context.Context, query string, count int) (*WebResult, error) {
	key := c.apiKey()
	if key == "" {
		return nil, ErrUnavailable
	}
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(count))
	params.Set("api_key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &BackendError{Provider: "web", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &BackendError{Provider: "web", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &BackendError{Provider: "web", Status: resp.StatusCode}
	}

	var result WebResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &BackendError{Provider: "web", Err: fmt.Errorf("decode response: %w", err)}
	}

	for i := range result.Organic {
		result.Organic[i].Title = stripMarkup(result.Organic[i].Title)
		result.Organic[i].Snippet = stripMarkup(result.Organic[i].Snippet)
	}

	c.logger.Debug("web search completed",
		zap.String("query", query),
		zap.Int("hits", len(result.Organic)),
		zap.Bool("knowledge_graph", result.KnowledgeGraph != nil))
	return &result, nil
}
