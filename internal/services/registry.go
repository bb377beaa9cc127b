package services

import (
	"raffle/internal/models"
)

// Registry is the ordered set of participants for one session, keyed by handle.
// It is not safe for concurrent use; Session guards it.
type Registry struct {
	participants []models.Participant
	index        map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Len returns the number of participants.
func (r *Registry) Len() int {
	return len(r.participants)
}

// Contains reports whether handle is registered.
func (r *Registry) Contains(handle string) bool {
	_, ok := r.index[handle]
	return ok
}

// Add appends p unless its handle is already present.
func (r *Registry) Add(p models.Participant) error {
	if r.Contains(p.Handle) {
		return ErrDuplicateParticipant
	}
	r.index[p.Handle] = len(r.participants)
	r.participants = append(r.participants, p)
	return nil
}

// Merge adds every participant whose handle is new and returns those added.
func (r *Registry) Merge(ps []models.Participant) []models.Participant {
	var added []models.Participant
	for _, p := range ps {
		if err := r.Add(p); err == nil {
			added = append(added, p)
		}
	}
	return added
}

// Remove deletes the participant with the given handle, keeping order.
func (r *Registry) Remove(handle string) error {
	i, ok := r.index[handle]
	if !ok {
		return ErrParticipantNotFound
	}
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	delete(r.index, handle)
	for j := i; j < len(r.participants); j++ {
		r.index[r.participants[j].Handle] = j
	}
	return nil
}

// Clear removes every participant.
func (r *Registry) Clear() {
	r.participants = nil
	r.index = make(map[string]int)
}

// Snapshot returns a copy of the participants in insertion order.
func (r *Registry) Snapshot() []models.Participant {
	out := make([]models.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}
