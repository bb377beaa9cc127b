package services

import (
	"errors"
	"fmt"
)

var (
	ErrParseEmptyResult     = errors.New("no participants found in the pasted text")
	ErrDuplicateParticipant = errors.New("participant already added")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrInvalidHandle        = errors.New("handle must contain only letters, digits and underscores")
	ErrMutationLocked       = errors.New("participants cannot change while a draw is running")
	ErrDrawInProgress       = errors.New("a draw is already running")
	ErrInvalidTransition    = errors.New("draw cannot start from the current phase")
)

// ValidationReason tells why a draw was rejected at its guard.
type ValidationReason string

const (
	ReasonEmptyRegistry                  ValidationReason = "empty_registry"
	ReasonInvalidWinnerCount             ValidationReason = "invalid_winner_count"
	ReasonWinnerCountExceedsParticipants ValidationReason = "winner_count_exceeds_participants"
)

// ValidationError is returned when a draw request fails its guard.
// The draw state is left untouched.
type ValidationError struct {
	Reason       ValidationReason
	Requested    int
	Participants int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyRegistry:
		return "add participants before starting a draw"
	case ReasonInvalidWinnerCount:
		return fmt.Sprintf("winner count must be at least 1, got %d", e.Requested)
	case ReasonWinnerCountExceedsParticipants:
		return fmt.Sprintf("winner count %d exceeds %d participants", e.Requested, e.Participants)
	}
	return "invalid draw request"
}

// Is matches another *ValidationError with the same reason, so callers can
// write errors.Is(err, &ValidationError{Reason: ReasonEmptyRegistry}).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

// IsValidation reports whether err is a *ValidationError with the given reason.
func IsValidation(err error, reason ValidationReason) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Reason == reason
}
