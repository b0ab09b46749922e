package adapt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ErrNoCandidates signals that the generative API call produced no usable
// text: non-2xx status, malformed body, or an empty candidate list all
// collapse into it. Callers fall back to the static adaptation result.
var ErrNoCandidates = errors.New("no candidates in model response")

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// Client calls the generative-language API. The pipeline treats it as an
// opaque text-in/text-out service.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	stats      *Stats
}

func NewClient(apiKey, model, endpoint string, stats *Stats) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		stats: stats,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one prompt and returns the model's raw text. The call is
// the longest suspension of an adaptation cycle and is cancellable via ctx.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: prompt}}},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return "", fmt.Errorf("generative api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generative api status %d: %s: %w", resp.StatusCode, truncate(string(respBody), 200), ErrNoCandidates)
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", ErrNoCandidates)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("generative api error %d: %s: %w", apiResp.Error.Code, apiResp.Error.Message, ErrNoCandidates)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoCandidates
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

// Stats returns a snapshot of recent call latencies.
func (c *Client) Stats() StatsSnapshot {
	if c.stats == nil {
		return StatsSnapshot{}
	}
	return c.stats.Snapshot()
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock removes a surrounding markdown code fence, optionally
// tagged "json", plus outer whitespace.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
