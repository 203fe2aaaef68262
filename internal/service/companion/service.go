package companion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/havenlabs/haven/backend/internal/analysis/sentiment"
	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/model/chat"
	"github.com/havenlabs/haven/backend/internal/model/mood"
	"github.com/havenlabs/haven/backend/internal/service/ai"
	"github.com/havenlabs/haven/backend/internal/service/session"
)

var (
	// ErrBackendUnavailable indicates that no chat backend is configured.
	ErrBackendUnavailable = errors.New("chat backend unavailable")
	// ErrBackendFailure indicates that the chat backend call failed. The
	// transcript is left untouched so a retry starts clean.
	ErrBackendFailure = errors.New("chat backend request failed")
	// ErrInvalidMood indicates a manual mood log with an unknown label.
	ErrInvalidMood = errors.New("unknown mood label")
)

// Reply is the outcome of one successful respond flow.
type Reply struct {
	SessionID   string     `json:"sessionId"`
	Content     string     `json:"content"`
	Mood        mood.Label `json:"mood"`
	MoodDisplay string     `json:"moodDisplay"`
}

// Service orchestrates one user action at a time per session: it classifies
// the input, updates mood state, assembles the backend prompt from the whole
// transcript and commits the resulting turn pair.
type Service struct {
	store      *session.Service
	classifier *sentiment.Classifier
	provider   ai.Provider
	timeout    time.Duration
	streaming  bool
}

// NewService wires the orchestrator. provider may be nil when no backend is
// configured; conversational calls then fail with ErrBackendUnavailable
// while mood logging and reset keep working.
func NewService(store *session.Service, classifier *sentiment.Classifier, provider ai.Provider, cfg config.AIConfig) *Service {
	if classifier == nil {
		classifier = sentiment.NewClassifier(nil)
	}
	return &Service{
		store:      store,
		classifier: classifier,
		provider:   provider,
		timeout:    time.Duration(cfg.Timeout) * time.Second,
		streaming:  cfg.StreamResponse,
	}
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.streaming && s.provider != nil
}

// Respond runs the full flow for one user message: classify, record the
// inferred mood, update the current-mood cell, call the backend with the
// entire transcript plus the augmented message, then append the user and
// assistant turns as one atomic pair. A backend failure appends nothing;
// the mood recording from the classification step stands.
func (s *Service) Respond(ctx context.Context, sessionID, userText string) (Reply, error) {
	release := s.store.Lock(sessionID)
	defer release()

	label, err := s.observeMood(ctx, sessionID, userText)
	if err != nil {
		return Reply{}, err
	}

	input, augmented, err := s.buildPrompt(ctx, sessionID, label, userText)
	if err != nil {
		return Reply{}, err
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	answer, err := s.provider.Generate(callCtx, input)
	if err != nil {
		log.Printf("[companion] backend failure session=%s: %v", sessionID, err)
		return Reply{}, fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}

	return s.commitTurns(ctx, sessionID, label, augmented, answer)
}

// RespondStream behaves like Respond but forwards assistant chunks through
// emit as they arrive. The turn pair is committed only after the full reply
// has streamed; a failed or abandoned stream leaves the transcript untouched.
func (s *Service) RespondStream(ctx context.Context, sessionID, userText string, emit func(chunk string) error) (Reply, error) {
	release := s.store.Lock(sessionID)
	defer release()

	label, err := s.observeMood(ctx, sessionID, userText)
	if err != nil {
		return Reply{}, err
	}

	input, augmented, err := s.buildPrompt(ctx, sessionID, label, userText)
	if err != nil {
		return Reply{}, err
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	stream, err := s.provider.Stream(callCtx, input)
	if err != nil {
		log.Printf("[companion] backend stream failure session=%s: %v", sessionID, err)
		return Reply{}, fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 16)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[companion] backend stream interrupted session=%s: %v", sessionID, recvErr)
			return Reply{}, fmt.Errorf("%w: %v", ErrBackendFailure, recvErr)
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" && emit != nil {
			if emitErr := emit(chunk.Content); emitErr != nil {
				return Reply{}, fmt.Errorf("emit chunk: %w", emitErr)
			}
		}
	}

	if len(chunks) == 0 {
		return Reply{}, fmt.Errorf("%w: empty stream", ErrBackendFailure)
	}
	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return Reply{}, fmt.Errorf("merge stream chunks: %w", err)
	}
	if strings.TrimSpace(merged.Content) == "" {
		return Reply{}, fmt.Errorf("%w: empty reply", ErrBackendFailure)
	}

	return s.commitTurns(ctx, sessionID, label, augmented, merged.Content)
}

// Affirmation generates a single-turn affirmation for the session's current
// mood. Nothing is appended to the transcript or the mood log.
func (s *Service) Affirmation(ctx context.Context, sessionID string) (string, error) {
	return s.auxiliary(ctx, sessionID, ai.AffirmationPrompt)
}

// MeditationGuide generates a single-turn guided meditation script for the
// session's current mood. Nothing is appended to the transcript or the mood
// log.
func (s *Service) MeditationGuide(ctx context.Context, sessionID string) (string, error) {
	return s.auxiliary(ctx, sessionID, ai.MeditationPrompt)
}

// LogMood records a user-selected mood. The current-mood cell holds the last
// computed label, so a manual log never touches it.
func (s *Service) LogMood(ctx context.Context, sessionID, rawLabel string) (mood.Entry, error) {
	label, ok := mood.ParseLabel(rawLabel)
	if !ok {
		return mood.Entry{}, fmt.Errorf("%w: %q", ErrInvalidMood, rawLabel)
	}

	release := s.store.Lock(sessionID)
	defer release()

	return s.store.RecordMood(ctx, sessionID, label, mood.SourceManual, 0)
}

// Reset wipes the transcript and the mood log in one action.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	release := s.store.Lock(sessionID)
	defer release()

	return s.store.Reset(ctx, sessionID)
}

// observeMood classifies the input and records the observation. A scorer
// failure never blocks the turn: the text counts as neutral polarity, which
// lands in the calm band.
func (s *Service) observeMood(ctx context.Context, sessionID, userText string) (mood.Label, error) {
	if _, err := s.store.Get(ctx, sessionID); err != nil {
		return "", err
	}

	label, polarity, err := s.classifier.Classify(userText)
	if err != nil {
		log.Printf("[companion] classification failed session=%s, falling back to neutral: %v", sessionID, err)
		polarity = 0
		label = sentiment.ClassifyPolarity(polarity)
	}

	if _, err := s.store.RecordMood(ctx, sessionID, label, mood.SourceInferred, polarity); err != nil {
		return "", err
	}
	if err := s.store.SetCurrentMood(ctx, sessionID, label); err != nil {
		return "", err
	}
	return label, nil
}

func (s *Service) buildPrompt(ctx context.Context, sessionID string, label mood.Label, userText string) (ai.PromptInput, string, error) {
	if s.provider == nil {
		return ai.PromptInput{}, "", ErrBackendUnavailable
	}

	transcript, err := s.store.Transcript(ctx, sessionID)
	if err != nil {
		return ai.PromptInput{}, "", err
	}

	augmented := ai.AugmentedUserMessage(label, userText)
	input := ai.PromptInput{
		System:  ai.SystemPrompt,
		History: ai.HistoryMessages(transcript),
		Query:   augmented,
	}
	return input, augmented, nil
}

func (s *Service) commitTurns(ctx context.Context, sessionID string, label mood.Label, augmented, answer string) (Reply, error) {
	_, err := s.store.AppendTurns(ctx,
		chat.Turn{SessionID: sessionID, Role: chat.RoleUser, Content: augmented, Mood: label},
		chat.Turn{SessionID: sessionID, Role: chat.RoleAssistant, Content: answer},
	)
	if err != nil {
		return Reply{}, err
	}

	log.Printf("[companion] reply generated session=%s mood=%s length=%d", sessionID, label, len(answer))
	return Reply{
		SessionID:   sessionID,
		Content:     answer,
		Mood:        label,
		MoodDisplay: label.Display(),
	}, nil
}

func (s *Service) auxiliary(ctx context.Context, sessionID string, buildPrompt func(mood.Label) string) (string, error) {
	release := s.store.Lock(sessionID)
	defer release()

	current, err := s.store.CurrentMood(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s.provider == nil {
		return "", ErrBackendUnavailable
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	text, err := s.provider.Generate(callCtx, ai.PromptInput{
		System: ai.SystemPrompt,
		Query:  buildPrompt(current),
	})
	if err != nil {
		log.Printf("[companion] auxiliary generation failed session=%s: %v", sessionID, err)
		return "", fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	return text, nil
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
