package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Trigger is the JSON body sent to the match-alert endpoint.
type Trigger struct {
	Source      string    `json:"source"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Response is what the notification endpoint answered.
type Response struct {
	Status int
	Body   json.RawMessage // nil when the endpoint returned no JSON
}

// Relay forwards cron triggers to the match-alert notification endpoint.
type Relay struct {
	url   string
	token string
	http  *http.Client
}

// NewRelay creates a Relay posting to url with token as bearer credential.
func NewRelay(url, token string) *Relay {
	return &Relay{url: url, token: token, http: &http.Client{Timeout: 30 * time.Second}}
}

// Trigger POSTs a trigger to the endpoint. Returns an error if the request
// fails or the endpoint responds with a non-2xx status.
func (r *Relay) Trigger(ctx context.Context, source string) (*Response, error) {
	if r.url == "" {
		return nil, fmt.Errorf("notify: no notification url configured")
	}
	body, err := json.Marshal(Trigger{Source: source, TriggeredAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, err
	}
	if json.Valid(raw) {
		out.Body = raw
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, fmt.Errorf("notify: unexpected status %d from %s", resp.StatusCode, r.url)
	}
	return out, nil
}
