package models

// DefaultEventName is stored when a draw finishes without an event name.
const DefaultEventName = "Untitled draw"

// HistoryEntry is the immutable snapshot persisted once per completed draw.
// Date is an ISO-8601 timestamp; Winners is ordered by rank.
type HistoryEntry struct {
	ID                string              `json:"id"`
	Date              string              `json:"date"`
	EventName         string              `json:"eventName"`
	TotalParticipants int                 `json:"totalParticipants"`
	Participants      []ParticipantRecord `json:"participants"`
	Winners           []ParticipantRecord `json:"winners"`
	ShowRanking       bool                `json:"showRanking"`
}
