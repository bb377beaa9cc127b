package services

import (
	"context"
	"sync"
	"time"

	"raffle/internal/models"
	"raffle/internal/parser"

	"github.com/google/logger"
)

// Session is one browser's raffle: its participant registry, draw engine
// and draw settings. All presentation commands go through it.
type Session struct {
	mu          sync.Mutex
	registry    *Registry
	engine      *DrawEngine
	history     HistoryStore
	hub         *Hub
	eventName   string
	winnerCount int
	showRanking bool
}

// SessionView is what the presentation layer renders.
type SessionView struct {
	Participants []models.ParticipantRecord `json:"participants"`
	EventName    string                     `json:"eventName"`
	WinnerCount  int                        `json:"winnerCount"`
	ShowRanking  bool                       `json:"showRanking"`
	Locked       bool                       `json:"locked"`
	Draw         models.DrawState           `json:"draw"`
}

// NewSession creates an idle session. Engine options are applied after the
// session installs its own observer, so tests may replace it.
func NewSession(history HistoryStore, opts ...EngineOption) *Session {
	s := &Session{
		registry:    NewRegistry(),
		history:     history,
		hub:         NewHub(),
		winnerCount: 1,
	}
	opts = append([]EngineOption{WithObserver(s.hub.Publish)}, opts...)
	s.engine = NewDrawEngine(history, opts...)
	return s
}

// Hub returns the session's draw event hub.
func (s *Session) Hub() *Hub {
	return s.hub
}

// ParseAndAdd parses pasted text and merges the result.
func (s *Session) ParseAndAdd(text string) ([]models.Participant, error) {
	parsed := parser.Parse(text)
	if len(parsed) == 0 {
		return nil, ErrParseEmptyResult
	}
	return s.AddParticipants(parsed)
}

// AddHandles adds every @handle in text, each under its own handle as the
// display name. It accepts the handle list built from scraped profile links.
func (s *Session) AddHandles(text string) ([]models.Participant, error) {
	parsed := parser.ParseHandles(text)
	if len(parsed) == 0 {
		return nil, ErrParseEmptyResult
	}
	return s.AddParticipants(parsed)
}

// AddParticipants merges parsed participants, skipping handles already present.
func (s *Session) AddParticipants(parsed []models.Participant) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.IsMutationLocked() {
		return nil, ErrMutationLocked
	}
	if len(parsed) == 0 {
		return nil, ErrParseEmptyResult
	}
	added := s.registry.Merge(parsed)
	if len(added) == 0 {
		return nil, ErrDuplicateParticipant
	}
	s.engine.ParticipantsAdded()
	logger.Infof("added %d participants (%d total)", len(added), s.registry.Len())
	return added, nil
}

// AddManualParticipant adds a single handle typed by the user. The display
// name defaults to the handle.
func (s *Session) AddManualParticipant(handle string) (models.Participant, error) {
	handle = parser.NormalizeHandle(handle)
	if !parser.ValidHandle(handle) {
		return models.Participant{}, ErrInvalidHandle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.IsMutationLocked() {
		return models.Participant{}, ErrMutationLocked
	}
	p := models.NewParticipant(handle, "")
	if err := s.registry.Add(p); err != nil {
		return models.Participant{}, err
	}
	s.engine.ParticipantsAdded()
	return p, nil
}

// RemoveParticipant removes a handle. Removing the last participant
// returns the engine to idle.
func (s *Session) RemoveParticipant(handle string) error {
	handle = parser.NormalizeHandle(handle)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.IsMutationLocked() {
		return ErrMutationLocked
	}
	if err := s.registry.Remove(handle); err != nil {
		return err
	}
	if s.registry.Len() == 0 {
		s.engine.Reset()
	}
	return nil
}

// SetWinnerCount stores the requested number of winners. It is checked
// against the registry when a draw starts.
func (s *Session) SetWinnerCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.IsMutationLocked() {
		return ErrMutationLocked
	}
	s.winnerCount = n
	return nil
}

// SetEventName names the next draw.
func (s *Session) SetEventName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.IsMutationLocked() {
		return ErrMutationLocked
	}
	s.eventName = name
	return nil
}

// SetShowRanking toggles numbered ranks in the winner display.
func (s *Session) SetShowRanking(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.IsMutationLocked() {
		return ErrMutationLocked
	}
	s.showRanking = on
	return nil
}

// StartDraw snapshots the registry and starts a draw with the current settings.
func (s *Session) StartDraw() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Start(s.request(), s.registry.Snapshot())
}

// Redraw reruns a finished draw over the registry with the current settings.
func (s *Session) Redraw() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Redraw(s.request(), s.registry.Snapshot())
}

// Reset cancels any draw and clears the registry.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
	s.registry.Clear()
}

// View returns the current registry, settings and draw state.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw := s.engine.State()
	return SessionView{
		Participants: models.Records(s.registry.Snapshot()),
		EventName:    s.eventName,
		WinnerCount:  s.winnerCount,
		ShowRanking:  s.showRanking,
		Locked:       draw.Phase == models.PhaseDrawing,
		Draw:         draw,
	}
}

// SharePosts builds announcement posts for a finished draw.
func (s *Session) SharePosts(maxLen int) ([]string, error) {
	state := s.engine.State()
	if state.Phase != models.PhaseFinished {
		return nil, ErrInvalidTransition
	}
	handles := make([]string, 0, len(state.Winners))
	for _, w := range state.Winners {
		handles = append(handles, w.Handle)
	}
	return BuildSharePosts(state.EventName, state.Participants, handles, maxLen), nil
}

// History returns the stored draws for this session, most recent first.
func (s *Session) History(ctx context.Context) ([]models.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx)
}

// HistoryStore returns the store this session writes to.
func (s *Session) HistoryStore() HistoryStore {
	return s.history
}

func (s *Session) request() DrawRequest {
	return DrawRequest{
		EventName:   s.eventName,
		WinnerCount: s.winnerCount,
		ShowRanking: s.showRanking,
	}
}

// drawing reports whether the session must not be evicted.
func (s *Session) drawing() bool {
	return s.engine.Phase() == models.PhaseDrawing
}

// close cancels timers and disconnects observers.
func (s *Session) close() {
	s.engine.Reset()
	s.hub.Close()
}

type sessionEntry struct {
	session      *Session
	lastActivity time.Time
}
