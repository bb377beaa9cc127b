package models

const (
	profileURLPrefix = "https://x.com/"
	avatarURLPrefix  = "https://unavatar.io/x/"
)

// Participant represents one account entered into the raffle.
// Handle is the unique key (no leading @, case-sensitive); DisplayName is
// the label shown on the card and falls back to the handle.
type Participant struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

// NewParticipant builds a participant, defaulting the display name to the handle.
func NewParticipant(handle, displayName string) Participant {
	if displayName == "" {
		displayName = handle
	}
	return Participant{Handle: handle, DisplayName: displayName}
}

// ProfileURL is derived from the handle.
func (p Participant) ProfileURL() string {
	return profileURLPrefix + p.Handle
}

// AvatarURL is derived from the handle.
func (p Participant) AvatarURL() string {
	return avatarURLPrefix + p.Handle
}

// Record returns the serialized form used in history entries and API responses.
func (p Participant) Record() ParticipantRecord {
	return ParticipantRecord{
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		ProfileURL:  p.ProfileURL(),
		AvatarURL:   p.AvatarURL(),
	}
}

// ParticipantRecord is a participant with its derived URLs expanded.
type ParticipantRecord struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	ProfileURL  string `json:"profileUrl"`
	AvatarURL   string `json:"avatarUrl"`
}

// Records converts a participant slice to its serialized form.
func Records(ps []Participant) []ParticipantRecord {
	out := make([]ParticipantRecord, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Record())
	}
	return out
}

// Phase is one state of the draw state machine.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFloating Phase = "floating"
	PhaseDrawing  Phase = "drawing"
	PhaseFinished Phase = "finished"
)

// DrawState is a point-in-time copy of the draw engine's state.
// Winners is ordered by rank: the first element was revealed first.
type DrawState struct {
	Phase            Phase         `json:"phase"`
	Winners          []Participant `json:"winners"`
	Intensity        float64       `json:"intensity"`
	RequestedWinners int           `json:"requestedWinners"`
	Participants     int           `json:"participants"`
	EventName        string        `json:"eventName"`
	ShowRanking      bool          `json:"showRanking"`
	HistoryID        string        `json:"historyId,omitempty"`
}

// DrawEventType names what changed in a DrawEvent.
type DrawEventType string

const (
	EventPhase    DrawEventType = "phase"
	EventTick     DrawEventType = "tick"
	EventReveal   DrawEventType = "reveal"
	EventFinished DrawEventType = "finished"
	EventReset    DrawEventType = "reset"
)

// DrawEvent is emitted to observers whenever the draw state advances.
type DrawEvent struct {
	Type      DrawEventType `json:"type"`
	Phase     Phase         `json:"phase"`
	Intensity float64       `json:"intensity,omitempty"`
	Winner    *Participant  `json:"winner,omitempty"`
	Rank      int           `json:"rank,omitempty"`
	Winners   []Participant `json:"winners,omitempty"`
	HistoryID string        `json:"historyId,omitempty"`
}
