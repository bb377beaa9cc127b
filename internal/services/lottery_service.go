package services

import (
	"sync"
	"time"

	"github.com/google/logger"
)

// HistoryFactory returns the history store for a tenant.
type HistoryFactory func(tenantID string) HistoryStore

// LotteryService manages one raffle session per tenant.
type LotteryService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry // Key: tenantID
	history  HistoryFactory
	opts     []EngineOption
	now      func() time.Time
}

// NewLotteryService creates and initializes a new LotteryService. history
// may be nil, in which case draws are not persisted.
func NewLotteryService(history HistoryFactory, opts ...EngineOption) *LotteryService {
	return &LotteryService{
		sessions: make(map[string]*sessionEntry),
		history:  history,
		opts:     opts,
		now:      time.Now,
	}
}

// Session returns the session for a tenant, creating one if it doesn't exist.
func (s *LotteryService) Session(tenantID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.sessions[tenantID]
	if !exists {
		var store HistoryStore
		if s.history != nil {
			store = s.history(tenantID)
		}
		entry = &sessionEntry{session: NewSession(store, s.opts...)}
		s.sessions[tenantID] = entry
		logger.Infof("Created session for tenant: %s", tenantID)
	}
	entry.lastActivity = s.now()
	return entry.session
}

// Len returns the number of live sessions.
func (s *LotteryService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanUpInactiveSessions removes sessions idle for longer than maxIdle.
// A session with a draw in flight is kept.
func (s *LotteryService) CleanUpInactiveSessions(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tenantID, entry := range s.sessions {
		if s.now().Sub(entry.lastActivity) <= maxIdle || entry.session.drawing() {
			continue
		}
		entry.session.close()
		delete(s.sessions, tenantID)
		removed++
		logger.Infof("Evicted inactive session for tenant: %s", tenantID)
	}
	return removed
}

// ClearSession cancels any draw and removes all data associated with a tenant.
func (s *LotteryService) ClearSession(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[tenantID]; ok {
		entry.session.close()
		delete(s.sessions, tenantID)
	}
	logger.Infof("Cleared session for tenant: %s", tenantID)
}

// Close clears every session.
func (s *LotteryService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tenantID, entry := range s.sessions {
		entry.session.close()
		delete(s.sessions, tenantID)
	}
}
