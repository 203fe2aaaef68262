package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	speechsvc "github.com/havenlabs/haven/backend/internal/service/speech"
)

// WebSocketHandler WebSocket语音对话处理器
type WebSocketHandler struct {
	speechSvc    SpeechService
	companionSvc Companion
	store        *session.Service
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(speechSvc SpeechService, companionSvc Companion, store *session.Service) *WebSocketHandler {
	return &WebSocketHandler{
		speechSvc:    speechSvc,
		companionSvc: companionSvc,
		store:        store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AudioMessage 音频消息
type AudioMessage struct {
	AudioData  []byte `json:"audioData"`
	Format     string `json:"format"`
	Language   string `json:"language"`
	IsFinal    bool   `json:"isFinal"`
	ChunkIndex int    `json:"chunkIndex"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// ConfigMessage 配置消息
type ConfigMessage struct {
	Language string `json:"language"`
	Format   string `json:"format"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connectionState 单条连接的音频缓冲与参数
type connectionState struct {
	sessionID   string
	language    string
	audioFormat string
	buffer      bytes.Buffer
}

func newConnectionState(sessionID string) *connectionState {
	return &connectionState{
		sessionID: sessionID,
	}
}

// absorb 追加一个音频分片并锁存参数,返回是否应触发转写
func (s *connectionState) absorb(audio AudioMessage) bool {
	if len(audio.AudioData) > 0 {
		s.buffer.Write(audio.AudioData)
	}
	if audio.Format != "" {
		s.audioFormat = audio.Format
	}
	if audio.Language != "" {
		s.language = audio.Language
	}
	return audio.IsFinal
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.store.Get(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	state := newConnectionState(sessionID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new voice connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]interface{}{
		"type":        "connected",
		"transcriber": h.speechSvc.Enabled(),
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, state, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "audio":
		h.handleAudioMessage(ctx, conn, state, msg.Data)
	case "text":
		h.handleTextMessage(ctx, conn, state, msg.Data)
	case "config":
		h.handleConfigMessage(conn, state, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

// handleAudioMessage 缓冲音频分片,最后一片到达后触发转写
func (h *WebSocketHandler) handleAudioMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var audio AudioMessage
	if err := json.Unmarshal(raw, &audio); err != nil {
		h.sendError(conn, "invalid audio payload")
		return
	}

	if state.absorb(audio) {
		h.processBufferedAudio(ctx, conn, state)
	}
}

// processBufferedAudio 转写缓冲的完整音频段并进入对话
func (h *WebSocketHandler) processBufferedAudio(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	audioBytes := state.buffer.Bytes()
	state.buffer.Reset()

	if len(audioBytes) == 0 {
		return
	}

	format := state.audioFormat
	if format == "" {
		format = "wav"
	}

	log.Printf("[websocket] processing audio session=%s format=%s bytes=%d", state.sessionID, format, len(audioBytes))

	result, err := h.speechSvc.TranscribeBuffer(ctx, state.sessionID, audioBytes, format, state.language)
	if err != nil {
		// 未识别与服务不可用都不产生对话轮次,只回固定提示
		switch {
		case errors.Is(err, speechsvc.ErrNoSpeech):
			h.sendError(conn, msgNoSpeech)
		case errors.Is(err, speechsvc.ErrServiceUnavailable):
			log.Printf("[websocket] transcription unavailable session=%s: %v", state.sessionID, err)
			h.sendError(conn, msgSpeechUnavailable)
		default:
			log.Printf("[websocket] ASR failed session=%s: %v", state.sessionID, err)
			h.sendError(conn, "speech recognition failed")
		}
		return
	}

	h.respondToText(ctx, conn, state, result.Text)
}

// handleTextMessage 纯文本输入走同一条对话链路
func (h *WebSocketHandler) handleTextMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(conn, "invalid text payload")
		return
	}
	if text.Text == "" {
		return
	}

	h.respondToText(ctx, conn, state, text.Text)
}

// respondToText 一轮对话:回显转写文本,生成回复并附带情绪
func (h *WebSocketHandler) respondToText(ctx context.Context, conn *websocket.Conn, state *connectionState, userText string) {
	h.sendInfo(conn, state.sessionID, map[string]interface{}{
		"type": "transcript",
		"text": userText,
	})

	reply, err := h.companionSvc.Respond(ctx, state.sessionID, userText)
	if err != nil {
		switch {
		case errors.Is(err, companion.ErrBackendUnavailable):
			h.sendError(conn, "chat backend is not configured")
		case errors.Is(err, companion.ErrBackendFailure):
			h.sendError(conn, "The companion could not respond right now. Your message was not saved, please try again.")
		default:
			log.Printf("[websocket] respond failed session=%s: %v", state.sessionID, err)
			h.sendError(conn, "failed to generate a reply")
		}
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]interface{}{
		"type":        "mood",
		"mood":        reply.Mood,
		"moodDisplay": reply.MoodDisplay,
	})

	h.sendInfo(conn, state.sessionID, map[string]interface{}{
		"type":    "reply",
		"text":    reply.Content,
		"isFinal": true,
	})
}

func (h *WebSocketHandler) handleConfigMessage(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(conn, "invalid config payload")
		return
	}

	if cfg.Language != "" {
		state.language = cfg.Language
	}
	if cfg.Format != "" {
		state.audioFormat = cfg.Format
	}

	h.sendInfo(conn, state.sessionID, map[string]interface{}{
		"type":     "config",
		"language": state.language,
		"format":   state.audioFormat,
	})
}

func (h *WebSocketHandler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]interface{}) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
