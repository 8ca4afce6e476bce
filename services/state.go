package services

import (
	"slices"

	"github.com/Dosada05/royale-tournaments/models"
)

var allowedTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusRegistration: {models.StatusLocked},
	models.StatusLocked:       {models.StatusRegistration, models.StatusOngoing},
	models.StatusOngoing:      {models.StatusCompleted},
	models.StatusCompleted:    {},
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	return slices.Contains(allowedTransitions[current], next)
}

// transition moves t to next or explains why it cannot.
func transition(t *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(t.Status, next) {
		return &TransitionError{From: t.Status, To: next, Err: ErrInvalidStateTransition}
	}
	t.Status = next
	return nil
}

// requirePhase fails with ErrInvalidPhase unless t is in one of allowed.
func requirePhase(op string, t *models.Tournament, allowed ...models.TournamentStatus) error {
	if slices.Contains(allowed, t.Status) {
		return nil
	}
	return fail(op, ErrInvalidPhase, map[string]any{
		"current_phase":  t.Status,
		"required_phase": allowed,
	})
}
