package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
	"github.com/calldeck-team/calldeck/pkg/config"
)

// Client talks to the upstream voice-call API, authenticated via a
// pre-shared key header.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a voice API client from explicit configuration
func NewClient(cfg *config.VoiceConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// TranscriptResult carries the joined transcript text. OK is false when the
// text is a sentinel (fetch failed or the call had no messages); downstream
// enrichment must be skipped in that case.
type TranscriptResult struct {
	Text string
	OK   bool
}

type messagesResponse struct {
	Results []struct {
		Text string `json:"text"`
	} `json:"results"`
}

// FetchTranscript retrieves the ordered message list for a call and joins
// the message texts with newlines. It never returns an error: every failure
// mode collapses to a documented sentinel.
func (c *Client) FetchTranscript(ctx context.Context, callID string) TranscriptResult {
	endpoint := fmt.Sprintf("%s/calls/%s/messages", c.baseURL, callID)

	var resp *http.Response
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-API-Key", c.apiKey)

		r, err := c.client.Do(req)
		if err != nil {
			// Transport errors are retried; HTTP status errors are not.
			return err
		}
		resp = r
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(fetch, bo); err != nil {
		return TranscriptResult{Text: entities.TranscriptFetchError}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TranscriptResult{Text: entities.TranscriptFetchError}
	}

	var body messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return TranscriptResult{Text: entities.TranscriptFetchError}
	}
	if len(body.Results) == 0 {
		return TranscriptResult{Text: entities.TranscriptUnavailable}
	}

	texts := make([]string, 0, len(body.Results))
	for _, m := range body.Results {
		texts = append(texts, m.Text)
	}
	return TranscriptResult{Text: strings.Join(texts, "\n"), OK: true}
}

// FetchRecording requests the call's audio recording, passing the caller's
// Range header through for byte-range playback. The caller owns the
// response body.
func (c *Client) FetchRecording(ctx context.Context, callID, rangeHeader string) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/calls/%s/recording", c.baseURL, callID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	return c.client.Do(req)
}
