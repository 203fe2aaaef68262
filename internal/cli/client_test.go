package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessageRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions/s-1/messages" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["message"] != "I feel fine" {
			t.Fatalf("unexpected message: %q", payload["message"])
		}
		json.NewEncoder(w).Encode(Reply{SessionID: "s-1", Content: "Good to hear.", Mood: "calm", MoodDisplay: "😊 Calm"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	reply, err := client.SendMessage(context.Background(), "s-1", "I feel fine")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if reply.Content != "Good to hear." || reply.Mood != "calm" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestServerErrorBodySurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetSession(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error from 404 response")
	}
	if err.Error() != "session not found" {
		t.Fatalf("expected server error message, got %q", err)
	}
}
