package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"raffle/internal/models"

	"github.com/google/logger"
)

// HistoryStore receives one entry per completed draw.
type HistoryStore interface {
	Append(ctx context.Context, entry models.HistoryEntry) (string, error)
	List(ctx context.Context) ([]models.HistoryEntry, error)
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// RandSource supplies uniform integers in [0, n).
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Observer is called with every state change, in order, without the engine
// lock held. It may read engine state. It must not call back into the
// Session that owns the engine.
type Observer func(models.DrawEvent)

// Timings is the pacing of a draw.
type Timings struct {
	Acceleration       time.Duration
	Tick               time.Duration
	AccelerationFactor float64
	Reveal             time.Duration
	Grace              time.Duration
}

// DefaultTimings: 4s acceleration on a 100ms tick reaching intensity 25,
// one winner per second, then a 2s pause before finishing.
func DefaultTimings() Timings {
	return Timings{
		Acceleration:       4000 * time.Millisecond,
		Tick:               100 * time.Millisecond,
		AccelerationFactor: 6,
		Reveal:             1000 * time.Millisecond,
		Grace:              2000 * time.Millisecond,
	}
}

// Ticks is the number of acceleration ticks in a draw.
func (t Timings) Ticks() int {
	if t.Tick <= 0 {
		return 0
	}
	return int(t.Acceleration / t.Tick)
}

// DrawRequest holds the settings captured when a draw starts.
type DrawRequest struct {
	EventName   string
	WinnerCount int
	ShowRanking bool
}

// drawRun is the state of one in-flight draw. Exactly one timer is live at
// a time; callbacks from a run that is no longer current are ignored.
type drawRun struct {
	gen      uint64
	req      DrawRequest
	snapshot []models.Participant
	selected []models.Participant
	ticks    int
	revealed int
	timer    Timer
}

// DrawEngine is the idle → floating → drawing → finished state machine.
// It never reads the live registry: Start receives a snapshot.
type DrawEngine struct {
	mu sync.Mutex

	// queue holds events not yet delivered; dispatching is set while one
	// goroutine drains it.
	queue       []models.DrawEvent
	dispatching bool

	store       HistoryStore
	sched       Scheduler
	rng         RandSource
	timings     Timings
	observer    Observer
	saveTimeout time.Duration

	phase     models.Phase
	winners   []models.Participant
	intensity float64
	last      DrawRequest
	total     int
	historyID string
	gen       uint64
	run       *drawRun
}

// EngineOption configures a DrawEngine.
type EngineOption func(*DrawEngine)

// WithScheduler replaces the wall-clock timer source.
func WithScheduler(s Scheduler) EngineOption {
	return func(e *DrawEngine) { e.sched = s }
}

// WithRand replaces the random source used to pick winners.
func WithRand(r RandSource) EngineOption {
	return func(e *DrawEngine) { e.rng = r }
}

// WithTimings replaces the draw pacing. A non-positive Tick keeps the default.
func WithTimings(t Timings) EngineOption {
	return func(e *DrawEngine) { e.timings = t }
}

// WithObserver sets the function that receives draw events.
func WithObserver(o Observer) EngineOption {
	return func(e *DrawEngine) { e.observer = o }
}

// NewDrawEngine creates an engine in the idle phase. store may be nil, in
// which case finished draws are not persisted.
func NewDrawEngine(store HistoryStore, opts ...EngineOption) *DrawEngine {
	e := &DrawEngine{
		store:       store,
		sched:       RealScheduler(),
		rng:         globalRand{},
		timings:     DefaultTimings(),
		saveTimeout: 5 * time.Second,
		phase:       models.PhaseIdle,
		intensity:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timings.Tick <= 0 {
		e.timings.Tick = DefaultTimings().Tick
	}
	return e
}

// State returns a copy of the current draw state.
func (e *DrawEngine) State() models.DrawState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.DrawState{
		Phase:            e.phase,
		Winners:          cloneParticipants(e.winners),
		Intensity:        e.intensity,
		RequestedWinners: e.last.WinnerCount,
		Participants:     e.total,
		EventName:        e.last.EventName,
		ShowRanking:      e.last.ShowRanking,
		HistoryID:        e.historyID,
	}
}

// Phase returns the current phase.
func (e *DrawEngine) Phase() models.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// IsMutationLocked reports whether the participant set must stay frozen.
func (e *DrawEngine) IsMutationLocked() bool {
	return e.Phase() == models.PhaseDrawing
}

// ParticipantsAdded moves an idle engine to floating.
func (e *DrawEngine) ParticipantsAdded() {
	e.mu.Lock()
	var events []models.DrawEvent
	if e.phase == models.PhaseIdle {
		e.phase = models.PhaseFloating
		events = append(events, e.phaseEvent())
	}
	e.unlockAndEmit(events)
}

// Start begins a draw over snapshot. On error the state is unchanged.
func (e *DrawEngine) Start(req DrawRequest, snapshot []models.Participant) error {
	e.mu.Lock()
	events, err := e.startLocked(req, snapshot)
	e.unlockAndEmit(events)
	return err
}

// Redraw restarts a finished draw with req, the settings as they are now.
// The engine passes through floating; if the request fails the guard it
// stays there.
func (e *DrawEngine) Redraw(req DrawRequest, snapshot []models.Participant) error {
	e.mu.Lock()
	if e.phase == models.PhaseDrawing {
		e.mu.Unlock()
		return ErrDrawInProgress
	}
	if e.phase != models.PhaseFinished {
		e.mu.Unlock()
		return ErrInvalidTransition
	}
	e.phase = models.PhaseFloating
	e.winners = nil
	e.intensity = 1
	e.historyID = ""
	events := []models.DrawEvent{e.phaseEvent()}
	more, err := e.startLocked(req, snapshot)
	e.unlockAndEmit(append(events, more...))
	return err
}

// Reset cancels any in-flight draw and returns to idle. A cancelled draw
// never reaches the history store.
func (e *DrawEngine) Reset() {
	e.mu.Lock()
	if e.run != nil {
		e.run.timer.Stop()
		logger.Infof("draw %d cancelled by reset", e.run.gen)
		e.run = nil
	}
	e.gen++
	e.phase = models.PhaseIdle
	e.winners = nil
	e.intensity = 1
	e.total = 0
	e.historyID = ""
	e.unlockAndEmit([]models.DrawEvent{{Type: models.EventReset, Phase: e.phase}})
}

func (e *DrawEngine) startLocked(req DrawRequest, snapshot []models.Participant) ([]models.DrawEvent, error) {
	if e.phase == models.PhaseDrawing {
		return nil, ErrDrawInProgress
	}
	if err := validateRequest(req, len(snapshot)); err != nil {
		return nil, err
	}
	if e.phase != models.PhaseFloating {
		return nil, ErrInvalidTransition
	}

	e.gen++
	run := &drawRun{
		gen:      e.gen,
		req:      req,
		snapshot: cloneParticipants(snapshot),
	}
	e.run = run
	e.last = req
	e.total = len(snapshot)
	e.phase = models.PhaseDrawing
	e.winners = nil
	e.intensity = 1
	e.historyID = ""
	run.timer = e.sched.AfterFunc(e.timings.Tick, func() { e.accelerate(run) })

	logger.Infof("draw %d started: %d winners from %d participants", run.gen, req.WinnerCount, len(snapshot))
	return []models.DrawEvent{e.phaseEvent()}, nil
}

func validateRequest(req DrawRequest, participants int) error {
	if participants == 0 {
		return &ValidationError{Reason: ReasonEmptyRegistry, Requested: req.WinnerCount}
	}
	if req.WinnerCount < 1 {
		return &ValidationError{Reason: ReasonInvalidWinnerCount, Requested: req.WinnerCount, Participants: participants}
	}
	if req.WinnerCount > participants {
		return &ValidationError{Reason: ReasonWinnerCountExceedsParticipants, Requested: req.WinnerCount, Participants: participants}
	}
	return nil
}

func (e *DrawEngine) accelerate(run *drawRun) {
	e.mu.Lock()
	if e.run != run {
		e.mu.Unlock()
		return
	}

	run.ticks++
	elapsed := time.Duration(run.ticks) * e.timings.Tick
	e.intensity = 1 + elapsed.Seconds()*e.timings.AccelerationFactor
	events := []models.DrawEvent{{Type: models.EventTick, Phase: e.phase, Intensity: e.intensity}}

	if run.ticks < e.timings.Ticks() {
		run.timer = e.sched.AfterFunc(e.timings.Tick, func() { e.accelerate(run) })
	} else {
		run.selected = shuffle(run.snapshot, e.rng)[:run.req.WinnerCount]
		run.timer = e.sched.AfterFunc(e.timings.Reveal, func() { e.reveal(run) })
	}
	e.unlockAndEmit(events)
}

func (e *DrawEngine) reveal(run *drawRun) {
	e.mu.Lock()
	if e.run != run {
		e.mu.Unlock()
		return
	}

	winner := run.selected[run.revealed]
	run.revealed++
	e.winners = append(e.winners, winner)
	events := []models.DrawEvent{{
		Type:      models.EventReveal,
		Phase:     e.phase,
		Intensity: e.intensity,
		Winner:    &winner,
		Rank:      run.revealed,
	}}

	if run.revealed < len(run.selected) {
		run.timer = e.sched.AfterFunc(e.timings.Reveal, func() { e.reveal(run) })
	} else {
		run.timer = e.sched.AfterFunc(e.timings.Grace, func() { e.finish(run) })
	}
	e.unlockAndEmit(events)
}

func (e *DrawEngine) finish(run *drawRun) {
	e.mu.Lock()
	if e.run != run {
		e.mu.Unlock()
		return
	}

	e.historyID = e.save(run)
	e.run = nil
	e.phase = models.PhaseFinished
	logger.Infof("draw %d finished with %d winners", run.gen, len(e.winners))

	e.unlockAndEmit([]models.DrawEvent{{
		Type:      models.EventFinished,
		Phase:     e.phase,
		Intensity: e.intensity,
		Winners:   cloneParticipants(e.winners),
		HistoryID: e.historyID,
	}})
}

// save appends the finished draw to the history store. A failed write is
// logged and does not block the transition to finished.
func (e *DrawEngine) save(run *drawRun) string {
	if e.store == nil {
		return ""
	}
	eventName := run.req.EventName
	if eventName == "" {
		eventName = models.DefaultEventName
	}
	entry := models.HistoryEntry{
		Date:              e.sched.Now().UTC().Format(time.RFC3339Nano),
		EventName:         eventName,
		TotalParticipants: len(run.snapshot),
		Participants:      models.Records(run.snapshot),
		Winners:           models.Records(run.selected),
		ShowRanking:       run.req.ShowRanking,
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()
	id, err := e.store.Append(ctx, entry)
	if err != nil {
		logger.Errorf("draw %d: persistence write failure: %v", run.gen, err)
		return ""
	}
	return id
}

func (e *DrawEngine) phaseEvent() models.DrawEvent {
	return models.DrawEvent{Type: models.EventPhase, Phase: e.phase, Intensity: e.intensity}
}

// unlockAndEmit queues events under e.mu, releases it and delivers them.
// Events are queued in transition order and only one goroutine drains the
// queue at a time, so delivery stays ordered while the observer runs with no
// engine lock held. If another goroutine is already draining, it delivers
// these events too and this call returns at once.
func (e *DrawEngine) unlockAndEmit(events []models.DrawEvent) {
	if e.observer == nil || len(events) == 0 {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, events...)
	if e.dispatching {
		e.mu.Unlock()
		return
	}
	e.dispatching = true
	for len(e.queue) > 0 {
		batch := e.queue
		e.queue = nil
		e.mu.Unlock()
		for _, ev := range batch {
			e.observer(ev)
		}
		e.mu.Lock()
	}
	e.dispatching = false
	e.mu.Unlock()
}

// shuffle returns a uniformly permuted copy of ps (Fisher–Yates).
func shuffle(ps []models.Participant, rng RandSource) []models.Participant {
	out := cloneParticipants(ps)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func cloneParticipants(ps []models.Participant) []models.Participant {
	if ps == nil {
		return nil
	}
	out := make([]models.Participant, len(ps))
	copy(out, ps)
	return out
}
