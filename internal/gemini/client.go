// Package gemini provides a minimal client for the Gemini generateContent
// REST endpoint. The wire contract is fixed: a JSON body of nested
// contents/parts/text, an API key passed as a query-string parameter, and
// the reply text at candidates[0].content.parts[0].text.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the hosted generateContent URL used when none is
// configured.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"

// Generator is the narrow capability the services layer depends on. Both the
// classification and the conversational paths go through a single text-in,
// text-out call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the Gemini REST API over HTTP.
//
// The embedded http.Client carries an explicit timeout so a hung upstream
// cannot stall the triage pipeline indefinitely.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient builds a client for the given endpoint and API key. A zero
// timeout defaults to 20 seconds.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// request/response shapes for the generateContent wire format.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate posts prompt to the model and returns the first candidate's text.
// Any transport failure, non-2xx status, or missing response path is returned
// as an error; callers decide how to absorb it (the triage and chat services
// both substitute safe defaults).
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", fmt.Errorf("gemini client is nil")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini client misconfigured: missing API key")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	u := c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response missing candidates[0].content.parts[0].text")
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("gemini response missing candidates[0].content.parts[0].text")
	}
	return text, nil
}
