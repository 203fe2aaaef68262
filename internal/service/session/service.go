package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/havenlabs/haven/backend/internal/model/chat"
	"github.com/havenlabs/haven/backend/internal/model/mood"
)

var ErrSessionNotFound = errors.New("session not found")

// startingMood is the current-mood cell value of a fresh or reset session.
// Polarity zero falls into the calm band, so calm doubles as the neutral state.
const startingMood = mood.Calm

// Service owns all per-session conversational state: the transcript, the
// mood log and the current-mood cell. Nothing is persisted beyond process
// memory; a session lives for one interactive run.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	turns    map[string][]chat.Turn
	moods    map[string][]mood.Entry
	locks    map[string]*sync.Mutex
}

// NewService bootstraps the in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		turns:    make(map[string][]chat.Turn),
		moods:    make(map[string][]mood.Entry),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Create provisions an anonymous session with the starting mood.
func (s *Service) Create(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:          uuid.NewString(),
		CurrentMood: startingMood,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]chat.Turn, 0, 16)
	s.moods[session.ID] = make([]mood.Entry, 0, 8)
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a session by identifier.
func (s *Service) Get(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// AppendTurn appends a single turn to the session transcript.
func (s *Service) AppendTurn(ctx context.Context, turn chat.Turn) (chat.Turn, error) {
	stored, err := s.AppendTurns(ctx, turn)
	if err != nil {
		return chat.Turn{}, err
	}
	return stored[0], nil
}

// AppendTurns appends turns in order as one step: either every turn is
// stored or none is. The orchestrator relies on this to commit a user and
// assistant turn pair atomically after a successful backend call.
func (s *Service) AppendTurns(_ context.Context, turns ...chat.Turn) ([]chat.Turn, error) {
	if len(turns) == 0 {
		return nil, nil
	}
	sessionID := turns[0].SessionID
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	for _, turn := range turns {
		if turn.SessionID != sessionID {
			return nil, errors.New("turns span multiple sessions")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}

	stored := make([]chat.Turn, 0, len(turns))
	for _, turn := range turns {
		turn.ID = uuid.NewString()
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = time.Now().UTC()
		}
		s.turns[sessionID] = append(s.turns[sessionID], turn)
		stored = append(stored, turn)
	}
	return stored, nil
}

// Transcript returns stored turns for the session in insertion order.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// RecordMood appends an immutable mood observation to the session log.
func (s *Service) RecordMood(_ context.Context, sessionID string, label mood.Label, source mood.Source, polarity float64) (mood.Entry, error) {
	entry := mood.Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Label:     label,
		Display:   label.Display(),
		Source:    source,
		Polarity:  polarity,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return mood.Entry{}, ErrSessionNotFound
	}
	s.moods[sessionID] = append(s.moods[sessionID], entry)
	return entry, nil
}

// MoodHistory returns mood entries for the session in insertion order.
func (s *Service) MoodHistory(_ context.Context, sessionID string) ([]mood.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.moods[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]mood.Entry, len(entries))
	copy(copied, entries)
	return copied, nil
}

// MoodSummary aggregates the mood log into per-label counts for the chart.
// Every label is present in the counts, zero or not, so rendering order is
// stable on the client.
func (s *Service) MoodSummary(_ context.Context, sessionID string) (mood.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.moods[sessionID]
	if !ok {
		return mood.Summary{}, ErrSessionNotFound
	}

	counts := make(map[mood.Label]int, 4)
	for _, label := range mood.All() {
		counts[label] = 0
	}
	for _, entry := range entries {
		counts[entry.Label]++
	}
	return mood.Summary{
		Total:   len(entries),
		Counts:  counts,
		Current: s.sessions[sessionID].CurrentMood,
	}, nil
}

// SetCurrentMood updates the session's current-mood cell.
func (s *Service) SetCurrentMood(_ context.Context, sessionID string, label mood.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.CurrentMood = label
	s.sessions[sessionID] = session
	return nil
}

// CurrentMood reads the session's current-mood cell.
func (s *Service) CurrentMood(_ context.Context, sessionID string) (mood.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return session.CurrentMood, nil
}

// Reset wipes the transcript and the mood log and restores the starting
// mood. Irreversible; never fails on a live session.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.turns[sessionID] = s.turns[sessionID][:0]
	s.moods[sessionID] = s.moods[sessionID][:0]
	session.CurrentMood = startingMood
	s.sessions[sessionID] = session
	return nil
}

// Lock acquires the per-session serialization lock, creating it on first
// use, and returns the release func. Orchestration brackets every
// state-mutating flow with it so exactly one operation per session is in
// flight; distinct sessions never contend.
func (s *Service) Lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
