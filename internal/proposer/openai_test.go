package proposer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/roundhouse/internal/models"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o, err := NewOpenAI("test-key", "gpt-4o-mini", time.Second)
	if err != nil {
		t.Fatalf("new openai: %v", err)
	}
	o.SetBaseURL(srv.URL)
	return o
}

func chatReply(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestOpenAI_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAI("", "gpt-4o-mini", time.Second); err == nil {
		t.Fatal("want error for empty api key")
	}
}

func TestOpenAI_Propose(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(chatReply(`{"assigned_to": "Alice", "reason": "strongest React match"}`)))
	})

	snap := Snapshot{Developers: []Developer{{Name: "Alice", Skills: "React", Capacity: 20}}}
	ticket := models.Ticket{ID: 7, Title: "Build login form", StoryPoints: 3, RequiredSkill: "React"}

	prop, err := o.Propose(context.Background(), ticket, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if prop.AssignedTo != "Alice" || prop.Reason != "strongest React match" {
		t.Errorf("proposal = %+v", prop)
	}
	if prop.TicketID != 7 {
		t.Errorf("ticket id = %d, want 7", prop.TicketID)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "Build login form") {
		t.Error("user prompt does not mention the ticket title")
	}
	if !strings.Contains(gotReq.Messages[1].Content, "Alice") {
		t.Error("user prompt does not mention the roster")
	}
}

func TestOpenAI_DefaultReason(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply(`{"assigned_to": "Alice"}`)))
	})

	snap := Snapshot{Developers: []Developer{{Name: "Alice"}}}
	prop, err := o.Propose(context.Background(), models.Ticket{ID: 1}, snap)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if prop.Reason != "No reason provided" {
		t.Errorf("reason = %q", prop.Reason)
	}
}

func TestOpenAI_UnknownDeveloperRejected(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply(`{"assigned_to": "Mallory", "reason": "made up"}`)))
	})

	snap := Snapshot{Developers: []Developer{{Name: "Alice"}}}
	_, err := o.Propose(context.Background(), models.Ticket{ID: 1}, snap)
	if err == nil || !strings.Contains(err.Error(), "Mallory") {
		t.Fatalf("err = %v, want unknown-developer error", err)
	}
}

func TestOpenAI_MalformedContent(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply("Alice should take this one.")))
	})

	snap := Snapshot{Developers: []Developer{{Name: "Alice"}}}
	_, err := o.Propose(context.Background(), models.Ticket{ID: 1}, snap)
	if err == nil {
		t.Fatal("want error for non-JSON content")
	}
}

func TestOpenAI_APIError(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit"}}`))
	})

	snap := Snapshot{Developers: []Developer{{Name: "Alice"}}}
	_, err := o.Propose(context.Background(), models.Ticket{ID: 1}, snap)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status error", err)
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	snap := Snapshot{Developers: []Developer{{Name: "Alice"}}}
	_, err := o.Propose(context.Background(), models.Ticket{ID: 1}, snap)
	if err == nil {
		t.Fatal("want error for empty choices")
	}
}
