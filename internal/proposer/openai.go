package proposer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zulandar/roundhouse/internal/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAI proposes assignments via the chat-completions API. Calls can take
// minutes for large batches, so the client timeout is configured long and
// the context carries the real deadline.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI returns an OpenAI proposer. timeout bounds a single call.
func NewOpenAI(apiKey, model string, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("proposer: openai api key is not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Proposer.
func (o *OpenAI) Name() string { return "openai/" + o.model }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Propose implements Proposer. A malformed or invalid model response is an
// error for this ticket only; callers treat it as "no proposal".
func (o *OpenAI) Propose(ctx context.Context, ticket models.Ticket, snap Snapshot) (*Proposal, error) {
	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: renderPrompt(ticket, snap)},
		},
		Temperature:    0.5,
		ResponseFormat: &formatSpec{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("proposer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("proposer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proposer: call openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("proposer: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proposer: openai returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("proposer: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("proposer: openai error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("proposer: empty response for ticket %d", ticket.ID)
	}

	var out struct {
		AssignedTo string `json:"assigned_to"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("proposer: unparsable assignment for ticket %d: %w", ticket.ID, err)
	}

	out.AssignedTo = strings.TrimSpace(out.AssignedTo)
	if !snap.Has(out.AssignedTo) {
		return nil, fmt.Errorf("proposer: ticket %d: model proposed unknown developer %q", ticket.ID, out.AssignedTo)
	}
	if out.Reason == "" {
		out.Reason = "No reason provided"
	}

	return &Proposal{TicketID: ticket.ID, AssignedTo: out.AssignedTo, Reason: out.Reason}, nil
}

// SetBaseURL overrides the API endpoint, for tests and proxies.
func (o *OpenAI) SetBaseURL(url string) { o.baseURL = strings.TrimRight(url, "/") }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
