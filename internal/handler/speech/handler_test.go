package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	speechmodel "github.com/havenlabs/haven/backend/internal/model/speech"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	speechsvc "github.com/havenlabs/haven/backend/internal/service/speech"
)

type fakeSpeechService struct {
	text        string
	err         error
	gotSession  string
	gotFormat   string
	gotLanguage string
}

func (f *fakeSpeechService) TranscribeAudio(_ context.Context, req *speechmodel.TranscriptionRequest) (*speechmodel.TranscriptionResult, error) {
	f.gotSession = req.SessionID
	f.gotFormat = req.Format
	f.gotLanguage = req.Language
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.TranscriptionResult{SessionID: req.SessionID, Text: f.text}, nil
}

func (f *fakeSpeechService) TranscribeBuffer(_ context.Context, sessionID string, _ []byte, format, language string) (*speechmodel.TranscriptionResult, error) {
	f.gotSession = sessionID
	f.gotFormat = format
	f.gotLanguage = language
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.TranscriptionResult{SessionID: sessionID, Text: f.text}, nil
}

func (f *fakeSpeechService) Enabled() bool { return true }

type fakeCompanion struct {
	reply   companion.Reply
	err     error
	gotText string
	calls   int
}

func (f *fakeCompanion) Respond(_ context.Context, sessionID, userText string) (companion.Reply, error) {
	f.calls++
	f.gotText = userText
	if f.err != nil {
		return companion.Reply{}, f.err
	}
	reply := f.reply
	reply.SessionID = sessionID
	return reply, nil
}

func audioForm(t *testing.T, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("CreateFormFile err: %v", err)
	}
	if _, err := part.Write([]byte("audio-bytes")); err != nil {
		t.Fatalf("write audio err: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field err: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close err: %v", err)
	}
	return body, writer.FormDataContentType()
}

func setupSpeechRouter(fakeSvc *fakeSpeechService, fakeComp *fakeCompanion) *chi.Mux {
	store := session.NewService()
	var comp Companion
	if fakeComp != nil {
		comp = fakeComp
	}
	handler := New(fakeSvc, comp, store)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestTranscribeEndpoint(t *testing.T) {
	fakeSvc := &fakeSpeechService{text: "I feel okay"}
	r := setupSpeechRouter(fakeSvc, &fakeCompanion{})

	body, contentType := audioForm(t, "sample.wav", map[string]string{"sessionId": "s-17", "language": "en"})
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if fakeSvc.gotSession != "s-17" {
		t.Fatalf("expected form session id, got %q", fakeSvc.gotSession)
	}
	if fakeSvc.gotLanguage != "en" {
		t.Fatalf("expected language propagated, got %q", fakeSvc.gotLanguage)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result["text"] != "I feel okay" {
		t.Fatalf("unexpected transcript: %v", result["text"])
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	r := setupSpeechRouter(&fakeSpeechService{}, &fakeCompanion{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("sessionId", "s")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTranscribeNoSpeechMessage(t *testing.T) {
	r := setupSpeechRouter(&fakeSpeechService{err: speechsvc.ErrNoSpeech}, &fakeCompanion{})

	body, contentType := audioForm(t, "sample.wav", nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), msgNoSpeech) {
		t.Fatalf("expected fixed no-speech message, got %s", rr.Body.String())
	}
}

func TestTranscribeServiceUnavailableMessage(t *testing.T) {
	r := setupSpeechRouter(&fakeSpeechService{err: speechsvc.ErrServiceUnavailable}, &fakeCompanion{})

	body, contentType := audioForm(t, "sample.wav", nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), msgSpeechUnavailable) {
		t.Fatalf("expected fixed unavailable message, got %s", rr.Body.String())
	}
}

func TestVoiceEndpointRoundTrip(t *testing.T) {
	fakeSvc := &fakeSpeechService{text: "I had a rough day"}
	fakeComp := &fakeCompanion{reply: companion.Reply{Content: "That sounds hard.", Mood: "sad", MoodDisplay: "😟 Sad"}}
	r := setupSpeechRouter(fakeSvc, fakeComp)

	body, contentType := audioForm(t, "voice.mp3", nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/sessions/s-9/voice", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if fakeSvc.gotSession != "s-9" {
		t.Fatalf("expected url session id, got %q", fakeSvc.gotSession)
	}
	if fakeSvc.gotFormat != "mp3" {
		t.Fatalf("expected inferred mp3 format, got %q", fakeSvc.gotFormat)
	}
	if fakeComp.gotText != "I had a rough day" {
		t.Fatalf("companion got wrong text: %q", fakeComp.gotText)
	}

	var payload struct {
		Transcript string          `json:"transcript"`
		Reply      companion.Reply `json:"reply"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Transcript != "I had a rough day" {
		t.Fatalf("unexpected transcript: %q", payload.Transcript)
	}
	if payload.Reply.Content != "That sounds hard." {
		t.Fatalf("unexpected reply: %+v", payload.Reply)
	}
}

func TestVoiceEndpointNoSpeechSkipsChat(t *testing.T) {
	fakeComp := &fakeCompanion{}
	r := setupSpeechRouter(&fakeSpeechService{err: speechsvc.ErrNoSpeech}, fakeComp)

	body, contentType := audioForm(t, "voice.wav", nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/sessions/s-9/voice", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if fakeComp.calls != 0 {
		t.Fatal("unrecognized speech must not reach the chat flow")
	}
}

func TestWebSocketFallbackWhenUnavailable(t *testing.T) {
	handler := New(&fakeSpeechService{}, nil, nil)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/speech/ws/abc", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 status, got %d", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := setupSpeechRouter(&fakeSpeechService{}, &fakeCompanion{})

	req := httptest.NewRequest(http.MethodGet, "/speech/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var health map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["transcriber"] != true {
		t.Fatalf("expected transcriber true, got %v", health["transcriber"])
	}
}
