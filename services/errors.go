package services

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Dosada05/royale-tournaments/models"
)

// Error categories. Every specific service error belongs to exactly one of them;
// handlers pick the HTTP status by category.
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("requested resource not found")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)

// Error is a specific service failure with a stable machine-readable code.
type Error struct {
	Code     string
	Category error
	msg      string
}

func newError(category error, code, msg string) *Error {
	return &Error{Code: code, Category: category, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.Category }

var (
	// Not found
	ErrTournamentNotFound = newError(ErrNotFound, "tournament_not_found", "tournament not found")
	ErrGroupNotFound      = newError(ErrNotFound, "group_not_found", "qualifier group not found")
	ErrGameNotFound       = newError(ErrNotFound, "game_not_found", "game not found")
	ErrNotRegistered      = newError(ErrNotFound, "not_registered", "team is not registered for this tournament")

	// Precondition failed
	ErrNotInRegistrationPhase = newError(ErrPreconditionFailed, "not_in_registration_phase", "tournament is not accepting registrations")
	ErrLobbyFull              = newError(ErrPreconditionFailed, "lobby_full", "tournament registration is full")
	ErrCheckInDisabled        = newError(ErrPreconditionFailed, "check_in_disabled", "check-in is not enabled for this tournament")
	ErrCheckInNotOpen         = newError(ErrPreconditionFailed, "check_in_not_open", "check-in window has not opened yet")
	ErrCheckInClosed          = newError(ErrPreconditionFailed, "check_in_closed", "check-in window is closed")
	ErrQualifiersDisabled     = newError(ErrPreconditionFailed, "qualifiers_disabled", "tournament has no qualifier phase")
	ErrInsufficientTeams      = newError(ErrPreconditionFailed, "insufficient_teams", "not enough eligible teams")
	ErrIncompleteGames        = newError(ErrPreconditionFailed, "incomplete_games", "not every game of the group is completed")
	ErrInvalidPhase           = newError(ErrPreconditionFailed, "invalid_phase", "operation is not available in the current tournament phase")
	ErrInvalidStateTransition = newError(ErrPreconditionFailed, "invalid_state_transition", "invalid tournament status transition")
	ErrAlreadyLocked          = newError(ErrPreconditionFailed, "already_locked", "tournament is already locked")
	ErrNoRegisteredTeams      = newError(ErrPreconditionFailed, "no_registered_teams", "tournament has no eligible registered teams")
	ErrLobbiesNotGenerated    = newError(ErrPreconditionFailed, "lobbies_not_generated", "qualifier lobbies have not been generated")
	ErrQualificationsPending  = newError(ErrPreconditionFailed, "qualifications_pending", "not every qualifier group has been processed")
	ErrNoFinalists            = newError(ErrPreconditionFailed, "no_finalists", "no teams qualified for the finals")
	ErrGameImmutable          = newError(ErrPreconditionFailed, "game_immutable", "published games cannot be changed")
	ErrGroupAlreadyProcessed  = newError(ErrPreconditionFailed, "group_already_processed", "qualifier group results are final")
	ErrPreviousGroupPending   = newError(ErrPreconditionFailed, "previous_group_pending", "the previous qualifier group must be processed before this one plays")
	ErrNextGroupStarted       = newError(ErrPreconditionFailed, "next_group_started", "the next qualifier group already played, teams cannot transfer into it")

	// Conflict
	ErrAlreadyRegistered      = newError(ErrConflict, "already_registered", "team is already registered")
	ErrAlreadyCheckedIn       = newError(ErrConflict, "already_checked_in", "team has already checked in")
	ErrAlreadyGenerated       = newError(ErrConflict, "already_generated", "qualifier lobbies were already generated")
	ErrNothingToPublish       = newError(ErrConflict, "nothing_to_publish", "no completed games waiting to be published")
	ErrConcurrentModification = newError(ErrConflict, "concurrent_modification", "tournament was modified concurrently, reload and retry")

	// Validation
	ErrInvalidInput = newError(ErrValidationFailed, "invalid_input", "input validation failed")

	// Forbidden
	ErrCannotActForTeam = newError(ErrForbiddenOperation, "cannot_act_for_team", "actor may not act for this team")
)

// OpError carries the failing operation and the structured detail a client needs
// to explain the failure (current phase, counts, offending fields).
type OpError struct {
	Op      string
	Err     error
	Details map[string]any
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

func fail(op string, err error, details map[string]any) error {
	return &OpError{Op: op, Err: err, Details: details}
}

// TransitionError names the current and requested status of a refused transition.
type TransitionError struct {
	From models.TournamentStatus
	To   models.TournamentStatus
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", e.Err, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// ErrorCode returns the machine-readable code of err, falling back to its category.
func ErrorCode(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	switch {
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbiddenOperation):
		return "forbidden"
	}
	return "internal_error"
}

// ErrorDetails merges the structured details found along err's chain.
func ErrorDetails(err error) map[string]any {
	details := map[string]any{}
	var opErr *OpError
	if errors.As(err, &opErr) {
		details["operation"] = opErr.Op
		maps.Copy(details, opErr.Details)
	}
	var trErr *TransitionError
	if errors.As(err, &trErr) {
		details["current_status"] = trErr.From
		details["requested_status"] = trErr.To
	}
	return details
}
