package brackets

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Dosada05/royale-tournaments/models"
)

var (
	ErrInsufficientTeams  = errors.New("at least two teams are required to plan lobbies")
	ErrInvalidCapacity    = errors.New("lobby capacity must be at least 2")
	ErrInvalidGroupCount  = errors.New("requested group count must be positive")
	ErrInvalidQualifierNo = errors.New("requested qualifiers per group must be positive")
)

// PlanOptions carries the organizer's optional requests. Nil fields are derived.
type PlanOptions struct {
	Groups               *int
	QualifiersPerGroup   *int
	TransferNonQualified bool
}

// PlanLobbies decides how many qualifier lobbies totalTeams need under capacity,
// how many teams advance from each and whether overflow teams must transfer.
//
// A requested group count never drops below ceil(totalTeams/capacity); when it would,
// the plan raises it and sets GroupsAdjusted so that every team still gets a seat.
func PlanLobbies(totalTeams, capacity int, opts PlanOptions) (models.LobbyPlan, error) {
	if capacity < 2 {
		return models.LobbyPlan{}, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if totalTeams < 2 {
		return models.LobbyPlan{}, &CountError{Err: ErrInsufficientTeams, Got: totalTeams, Need: 2}
	}
	if opts.Groups != nil && *opts.Groups < 1 {
		return models.LobbyPlan{}, fmt.Errorf("%w: got %d", ErrInvalidGroupCount, *opts.Groups)
	}
	if opts.QualifiersPerGroup != nil && *opts.QualifiersPerGroup < 1 {
		return models.LobbyPlan{}, fmt.Errorf("%w: got %d", ErrInvalidQualifierNo, *opts.QualifiersPerGroup)
	}

	plan := models.LobbyPlan{
		TotalTeams:  totalTeams,
		Capacity:    capacity,
		FullLobbies: totalTeams / capacity,
		Remainder:   totalTeams % capacity,
	}
	plan.NeedsTransfer = plan.Remainder > 0 && plan.Remainder < capacity

	required := (totalTeams + capacity - 1) / capacity
	switch {
	case opts.Groups != nil:
		// Any other count leaves a lobby over capacity or empty.
		plan.Groups = required
		plan.GroupsAdjusted = *opts.Groups != required
	case plan.NeedsTransfer:
		plan.Groups = plan.FullLobbies + 1
	default:
		plan.Groups = max(plan.FullLobbies, 1)
	}

	if opts.QualifiersPerGroup != nil {
		plan.QualifiersPerGroup = min(max(*opts.QualifiersPerGroup, 1), capacity)
	} else if plan.FullLobbies >= 2 && plan.Remainder == 0 {
		plan.QualifiersPerGroup = max(capacity/plan.FullLobbies, 1)
	} else {
		plan.QualifiersPerGroup = max(capacity/2, 1)
	}

	plan.TransferNonQualified = opts.TransferNonQualified || plan.NeedsTransfer
	return plan, nil
}

// AssignTeams shuffles teams with rng and fills plan.Groups lobbies in order, each up
// to plan.Capacity. The last lobby takes the remainder. A nil rng uses the global source.
func AssignTeams(teams []string, plan models.LobbyPlan, rng *rand.Rand) [][]string {
	shuffled := make([]string, len(teams))
	copy(shuffled, teams)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng != nil {
		rng.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}

	groups := make([][]string, plan.Groups)
	for i := range groups {
		start := min(i*plan.Capacity, len(shuffled))
		end := min(start+plan.Capacity, len(shuffled))
		groups[i] = shuffled[start:end:end]
	}
	return groups
}

// LobbyName returns "Group A", "Group B", ... for 1-based orders.
func LobbyName(order int) string {
	if order >= 1 && order <= 26 {
		return "Group " + string(rune('A'+order-1))
	}
	return fmt.Sprintf("Group %d", order)
}

// CountError reports a count that did not meet a requirement.
type CountError struct {
	Err  error
	Got  int
	Need int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%v (got %d, need %d)", e.Err, e.Got, e.Need)
}

func (e *CountError) Unwrap() error { return e.Err }
