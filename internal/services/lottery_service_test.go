package services

import (
	"testing"
	"time"

	"raffle/internal/models"
)

func TestLotteryService_Sessions(t *testing.T) {
	const testTenantID = "test-tenant"
	stores := map[string]*memHistory{}
	sched := newManualScheduler()
	service := NewLotteryService(func(tenantID string) HistoryStore {
		stores[tenantID] = &memHistory{}
		return stores[tenantID]
	}, WithScheduler(sched))

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return clock }

	t.Run("Test same tenant gets same session", func(t *testing.T) {
		first := service.Session(testTenantID)
		second := service.Session(testTenantID)
		if first != second {
			t.Fatal("Expected the same session for the same tenant")
		}
		if service.Len() != 1 {
			t.Fatalf("Expected 1 session, but got %d", service.Len())
		}
	})

	t.Run("Test tenants are isolated", func(t *testing.T) {
		const otherTenantID = "other-tenant"
		if _, err := service.Session(testTenantID).AddManualParticipant("alice"); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if n := service.Session(otherTenantID).registry.Len(); n != 0 {
			t.Fatalf("Expected other tenant to have no participants, but got %d", n)
		}
	})

	t.Run("Test draw is written to the tenant's history", func(t *testing.T) {
		session := service.Session(testTenantID)
		if _, err := session.AddManualParticipant("bob"); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if err := session.StartDraw(); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		sched.Advance(fullDraw(1))
		if session.engine.Phase() != models.PhaseFinished {
			t.Fatalf("Expected finished, but got %s", session.engine.Phase())
		}
		if stores[testTenantID].Len() != 1 {
			t.Errorf("Expected 1 history entry, but got %d", stores[testTenantID].Len())
		}
		if stores["other-tenant"].Len() != 0 {
			t.Errorf("Expected other tenant history to be empty")
		}
	})

	t.Run("Test cleanup keeps sessions that are drawing", func(t *testing.T) {
		drawing := service.Session("drawing-tenant")
		if _, err := drawing.AddManualParticipant("carol"); err != nil {
			t.Fatal(err)
		}
		if err := drawing.StartDraw(); err != nil {
			t.Fatal(err)
		}

		clock = clock.Add(2 * time.Hour)
		removed := service.CleanUpInactiveSessions(time.Hour)
		if removed != 2 {
			t.Fatalf("Expected 2 sessions to be evicted, but got %d", removed)
		}
		if service.Len() != 1 {
			t.Fatalf("Expected only the drawing session to survive, but got %d", service.Len())
		}
		if service.Session("drawing-tenant") != drawing {
			t.Fatal("Expected the drawing session to be kept")
		}
	})

	t.Run("Test clearing a session cancels its draw", func(t *testing.T) {
		drawing := service.Session("drawing-tenant")
		service.ClearSession("drawing-tenant")
		if drawing.engine.Phase() != models.PhaseIdle {
			t.Fatalf("Expected cleared session to be idle, but got %s", drawing.engine.Phase())
		}
		sched.Advance(time.Minute)
		if stores["drawing-tenant"].Len() != 0 {
			t.Fatal("Expected cleared draw not to be persisted")
		}
		if service.Len() != 0 {
			t.Fatalf("Expected no sessions, but got %d", service.Len())
		}
	})
}
