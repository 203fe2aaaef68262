package mood

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
)

func setupRouter() (*chi.Mux, *session.Service) {
	store := session.NewService()
	companionSvc := companion.NewService(store, nil, nil, config.AIConfig{})
	handler := New(store, companionSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func postMood(r *chi.Mux, sessionID, mood string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"mood": mood})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/mood", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestLogMoodBareLabel(t *testing.T) {
	r, store := setupRouter()
	created, _ := store.Create(context.Background())

	resp := postMood(r, created.ID, "sad")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["label"] != "sad" {
		t.Fatalf("expected sad label, got %v", entry["label"])
	}
	if entry["source"] != "manual" {
		t.Fatalf("expected manual source, got %v", entry["source"])
	}
}

func TestLogMoodEmojiDisplayForm(t *testing.T) {
	r, store := setupRouter()
	created, _ := store.Create(context.Background())

	resp := postMood(r, created.ID, "😄 Happy")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["label"] != "happy" {
		t.Fatalf("expected happy label, got %v", entry["label"])
	}
	if entry["display"] != "😄 Happy" {
		t.Fatalf("expected display form, got %v", entry["display"])
	}
}

func TestLogMoodUnknownLabel(t *testing.T) {
	r, store := setupRouter()
	created, _ := store.Create(context.Background())

	resp := postMood(r, created.ID, "ecstatic")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestLogMoodUnknownSession(t *testing.T) {
	r, _ := setupRouter()

	resp := postMood(r, "missing", "happy")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestMoodHistoryAndSummary(t *testing.T) {
	r, store := setupRouter()
	created, _ := store.Create(context.Background())

	for _, label := range []string{"happy", "sad", "happy"} {
		if resp := postMood(r, created.ID, label); resp.Code != http.StatusCreated {
			t.Fatalf("seed log %q failed with %d", label, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID+"/mood/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 history, got %d", rec.Code)
	}
	var history struct {
		Entries []map[string]interface{} `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history.Entries))
	}

	sreq := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID+"/mood/summary", nil)
	srec := httptest.NewRecorder()
	r.ServeHTTP(srec, sreq)
	if srec.Code != http.StatusOK {
		t.Fatalf("expected 200 summary, got %d", srec.Code)
	}
	var summary struct {
		Total  int            `json:"total"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(srec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 3 {
		t.Fatalf("expected total 3, got %d", summary.Total)
	}
	if summary.Counts["happy"] != 2 || summary.Counts["sad"] != 1 {
		t.Fatalf("unexpected counts: %v", summary.Counts)
	}
}
