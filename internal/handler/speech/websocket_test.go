package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	speechsvc "github.com/havenlabs/haven/backend/internal/service/speech"
)

func TestAbsorbBuffersChunks(t *testing.T) {
	state := newConnectionState("session")

	if state.absorb(AudioMessage{AudioData: []byte("one-"), Format: "webm", ChunkIndex: 0}) {
		t.Fatal("non-final chunk must not trigger transcription")
	}
	if state.absorb(AudioMessage{AudioData: []byte("two-"), Language: "en", ChunkIndex: 1}) {
		t.Fatal("non-final chunk must not trigger transcription")
	}
	if !state.absorb(AudioMessage{AudioData: []byte("three"), IsFinal: true, ChunkIndex: 2}) {
		t.Fatal("final chunk must trigger transcription")
	}

	if got := state.buffer.String(); got != "one-two-three" {
		t.Fatalf("expected buffered chunks, got %q", got)
	}
	if state.audioFormat != "webm" {
		t.Fatalf("expected latched format webm, got %q", state.audioFormat)
	}
	if state.language != "en" {
		t.Fatalf("expected latched language en, got %q", state.language)
	}
}

type wsFrame struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId"`
	Data      map[string]interface{} `json:"data"`
}

func dialVoiceSocket(t *testing.T, fakeSvc *fakeSpeechService, fakeComp *fakeCompanion) (*websocket.Conn, string) {
	t.Helper()

	store := session.NewService()
	sess, err := store.Create(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	handler := NewWebSocketHandler(fakeSvc, fakeComp, store)
	r := chi.NewRouter()
	handler.RegisterWebSocketRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn, sess.ID
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func dataType(frame wsFrame) string {
	value, _ := frame.Data["type"].(string)
	return value
}

func TestWebSocketTextRoundTrip(t *testing.T) {
	fakeComp := &fakeCompanion{reply: companion.Reply{Content: "Take a slow breath.", Mood: "stressed", MoodDisplay: "😔 Stressed"}}
	conn, sessionID := dialVoiceSocket(t, &fakeSpeechService{}, fakeComp)

	connected := readFrame(t, conn)
	if dataType(connected) != "connected" {
		t.Fatalf("expected connected frame first, got %+v", connected)
	}
	if connected.Data["transcriber"] != true {
		t.Fatalf("expected transcriber flag, got %v", connected.Data["transcriber"])
	}

	payload := `{"type":"text","sessionId":"` + sessionID + `","data":{"text":"I am overwhelmed"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write text message: %v", err)
	}

	transcript := readFrame(t, conn)
	if dataType(transcript) != "transcript" || transcript.Data["text"] != "I am overwhelmed" {
		t.Fatalf("expected transcript echo, got %+v", transcript)
	}

	moodFrame := readFrame(t, conn)
	if dataType(moodFrame) != "mood" || moodFrame.Data["mood"] != "stressed" {
		t.Fatalf("expected mood frame, got %+v", moodFrame)
	}

	replyFrame := readFrame(t, conn)
	if dataType(replyFrame) != "reply" || replyFrame.Data["text"] != "Take a slow breath." {
		t.Fatalf("expected reply frame, got %+v", replyFrame)
	}
	if replyFrame.Data["isFinal"] != true {
		t.Fatalf("expected final reply, got %+v", replyFrame)
	}

	if fakeComp.gotText != "I am overwhelmed" {
		t.Fatalf("companion got wrong text: %q", fakeComp.gotText)
	}
}

func TestWebSocketAudioRoundTrip(t *testing.T) {
	fakeSvc := &fakeSpeechService{text: "I feel calm now"}
	fakeComp := &fakeCompanion{reply: companion.Reply{Content: "Glad to hear it.", Mood: "calm", MoodDisplay: "😊 Calm"}}
	conn, _ := dialVoiceSocket(t, fakeSvc, fakeComp)

	readFrame(t, conn)

	first := `{"type":"audio","data":{"audioData":"` + "YWJj" + `","format":"wav"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(first)); err != nil {
		t.Fatalf("write first chunk: %v", err)
	}
	final := `{"type":"audio","data":{"audioData":"` + "ZGVm" + `","isFinal":true}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(final)); err != nil {
		t.Fatalf("write final chunk: %v", err)
	}

	transcript := readFrame(t, conn)
	if dataType(transcript) != "transcript" || transcript.Data["text"] != "I feel calm now" {
		t.Fatalf("expected transcript frame, got %+v", transcript)
	}
	if fakeSvc.gotFormat != "wav" {
		t.Fatalf("expected latched wav format, got %q", fakeSvc.gotFormat)
	}

	moodFrame := readFrame(t, conn)
	if dataType(moodFrame) != "mood" {
		t.Fatalf("expected mood frame, got %+v", moodFrame)
	}
	replyFrame := readFrame(t, conn)
	if dataType(replyFrame) != "reply" || replyFrame.Data["text"] != "Glad to hear it." {
		t.Fatalf("expected reply frame, got %+v", replyFrame)
	}
}

func TestWebSocketNoSpeechSendsFixedMessage(t *testing.T) {
	fakeComp := &fakeCompanion{}
	conn, _ := dialVoiceSocket(t, &fakeSpeechService{err: speechsvc.ErrNoSpeech}, fakeComp)

	readFrame(t, conn)

	payload := `{"type":"audio","data":{"audioData":"YWJj","isFinal":true}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	errorFrame := readFrame(t, conn)
	if errorFrame.Type != "error" {
		t.Fatalf("expected error frame, got %+v", errorFrame)
	}
	message, _ := errorFrame.Data["message"].(string)
	if message != msgNoSpeech {
		t.Fatalf("expected fixed no-speech message, got %q", message)
	}
	if fakeComp.calls != 0 {
		t.Fatal("unrecognized speech must not reach the chat flow")
	}
}

func TestWebSocketSessionMismatchRejected(t *testing.T) {
	conn, _ := dialVoiceSocket(t, &fakeSpeechService{}, &fakeCompanion{})

	readFrame(t, conn)

	payload := `{"type":"text","sessionId":"someone-else","data":{"text":"hi"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write mismatched message: %v", err)
	}

	errorFrame := readFrame(t, conn)
	if errorFrame.Type != "error" {
		t.Fatalf("expected error frame, got %+v", errorFrame)
	}
	if message, _ := errorFrame.Data["message"].(string); !strings.Contains(message, "mismatch") {
		t.Fatalf("expected session mismatch error, got %q", message)
	}
}

func TestWebSocketUnknownSessionRejected(t *testing.T) {
	handler := NewWebSocketHandler(&fakeSpeechService{}, &fakeCompanion{}, session.NewService())
	r := chi.NewRouter()
	handler.RegisterWebSocketRoutes(r)

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/ghost"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected handshake failure for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}
