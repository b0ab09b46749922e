// Package prefs reads user preferences from the external profile store.
// The pipeline only reads; writes are owned by the auth/profile component.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Feature flag names understood by the pipeline.
const (
	FeatureTextSimplify = "text_simplify"
	FeatureStyleAdjust  = "style_adjust"
	FeatureLayoutAdjust = "layout_adjust"
)

// Preferences is one user's adaptation configuration.
type Preferences struct {
	UserID    string          `json:"user_id"`
	Neurotype string          `json:"neurotype"`
	Features  map[string]bool `json:"features"`
}

// Enabled reports whether a feature flag is on. Unset flags default to on:
// the store only records explicit opt-outs.
func (p Preferences) Enabled(feature string) bool {
	if p.Features == nil {
		return true
	}
	v, ok := p.Features[feature]
	if !ok {
		return true
	}
	return v
}

// Defaults is what an unknown user gets.
func Defaults(userID string) Preferences {
	return Preferences{UserID: userID, Neurotype: "adhd"}
}

// Client communicates with the preference store HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Get fetches a user's preferences. A missing user resolves to defaults
// rather than an error.
func (c *Client) Get(ctx context.Context, userID string) (Preferences, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prefs/"+userID, nil)
	if err != nil {
		return Defaults(userID), fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Defaults(userID), fmt.Errorf("get preferences: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Defaults(userID), nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Defaults(userID), fmt.Errorf("get preferences %s: status %d: %s", userID, resp.StatusCode, string(respBody))
	}

	var prefs Preferences
	if err := json.NewDecoder(resp.Body).Decode(&prefs); err != nil {
		return Defaults(userID), fmt.Errorf("decode preferences: %w", err)
	}
	if prefs.UserID == "" {
		prefs.UserID = userID
	}
	if prefs.Neurotype == "" {
		prefs.Neurotype = Defaults(userID).Neurotype
	}
	return prefs, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
