package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/model/mood"
	"github.com/havenlabs/haven/backend/internal/service/ai"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
)

type fakeProvider struct {
	reply  string
	chunks []string
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(context.Context, ai.PromptInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Stream(context.Context, ai.PromptInput) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}

	reader, writer := schema.Pipe[*schema.Message](len(f.chunks) + 1)
	go func() {
		defer writer.Close()
		for _, chunk := range f.chunks {
			writer.Send(schema.AssistantMessage(chunk, nil), nil)
		}
	}()
	return reader, nil
}

func setup(provider ai.Provider, streaming bool) (*Handler, *session.Service, string) {
	store := session.NewService()
	created, _ := store.Create(context.Background())
	companionSvc := companion.NewService(store, nil, provider, config.AIConfig{Timeout: 5, StreamResponse: streaming})
	return New(companionSvc), store, created.ID
}

func decodeFrames(t *testing.T, body string) []StreamResponse {
	t.Helper()
	var frames []StreamResponse
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		payload := strings.TrimPrefix(block, "data: ")
		var frame StreamResponse
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			t.Fatalf("decode frame %q: %v", payload, err)
		}
		frames = append(frames, frame)
	}
	return frames
}

func TestHandleStreamEmitsChunksAndDone(t *testing.T) {
	handler, store, sessionID := setup(&fakeProvider{chunks: []string{"Take ", "a breath."}}, true)

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, sessionID, "I feel okay I guess"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	frames := decodeFrames(t, rec.Body.String())
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d: %+v", len(frames), frames)
	}
	if frames[0].Event != "start" {
		t.Fatalf("expected start frame, got %q", frames[0].Event)
	}
	if frames[1].Event != "message" || frames[1].Content != "Take " {
		t.Fatalf("unexpected first chunk: %+v", frames[1])
	}
	if frames[2].Event != "message" || frames[2].Content != "a breath." {
		t.Fatalf("unexpected second chunk: %+v", frames[2])
	}
	done := frames[3]
	if done.Event != "done" || !done.Finished {
		t.Fatalf("unexpected final frame: %+v", done)
	}
	if done.Content != "Take a breath." {
		t.Fatalf("expected merged content, got %q", done.Content)
	}
	if done.Mood != mood.Calm || done.MoodDisplay != "😊 Calm" {
		t.Fatalf("expected calm mood in done frame, got %+v", done)
	}

	turns, err := store.Transcript(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected committed turn pair, got %d", len(turns))
	}
}

func TestHandleStreamBackendFailure(t *testing.T) {
	handler, store, sessionID := setup(&fakeProvider{err: errors.New("connection reset")}, true)

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, sessionID, "hello"); err == nil {
		t.Fatal("expected error from failed stream")
	}

	frames := decodeFrames(t, rec.Body.String())
	last := frames[len(frames)-1]
	if last.Event != "error" {
		t.Fatalf("expected error frame, got %+v", last)
	}
	if !strings.Contains(last.Error, "could not respond") {
		t.Fatalf("expected displayable message, got %q", last.Error)
	}

	turns, err := store.Transcript(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("failed stream must not commit turns, got %d", len(turns))
	}
}

func TestHandleStreamFallbackWithoutStreaming(t *testing.T) {
	handler, _, sessionID := setup(&fakeProvider{reply: "One whole reply."}, false)

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, sessionID, "hi there"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	frames := decodeFrames(t, rec.Body.String())
	if len(frames) != 3 {
		t.Fatalf("expected start/message/done, got %d frames", len(frames))
	}
	if frames[1].Event != "message" || frames[1].Content != "One whole reply." {
		t.Fatalf("unexpected message frame: %+v", frames[1])
	}
	if frames[2].Event != "done" || frames[2].Content != "One whole reply." {
		t.Fatalf("unexpected done frame: %+v", frames[2])
	}
}

func TestHandleStreamUnknownSession(t *testing.T) {
	handler, _, _ := setup(&fakeProvider{reply: "x"}, true)

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, "missing", "hello"); err == nil {
		t.Fatal("expected error for unknown session")
	}

	frames := decodeFrames(t, rec.Body.String())
	last := frames[len(frames)-1]
	if last.Event != "error" || last.Error != "session not found" {
		t.Fatalf("unexpected error frame: %+v", last)
	}
}
