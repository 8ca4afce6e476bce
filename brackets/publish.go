package brackets

import (
	"errors"
	"slices"

	"github.com/Dosada05/royale-tournaments/models"
)

var ErrNothingToPublish = errors.New("no completed games waiting to be published")

// SelectPublishable returns the sorted numbers of completed, non-empty games that are not
// in published yet.
func SelectPublishable(games []models.Game, published []int) ([]int, error) {
	var fresh []int
	for _, g := range games {
		if g.Status != models.GameStatusCompleted || len(g.Results) == 0 {
			continue
		}
		if slices.Contains(published, g.Number) || slices.Contains(fresh, g.Number) {
			continue
		}
		fresh = append(fresh, g.Number)
	}
	if len(fresh) == 0 {
		return nil, ErrNothingToPublish
	}
	slices.Sort(fresh)
	return fresh, nil
}

// MergePublished returns the sorted union of published and fresh.
func MergePublished(published, fresh []int) []int {
	merged := make([]int, 0, len(published)+len(fresh))
	merged = append(merged, published...)
	merged = append(merged, fresh...)
	slices.Sort(merged)
	return slices.Compact(merged)
}

// PublishedScope filters games down to the published ones.
func PublishedScope(games []models.Game, published []int) []models.Game {
	scope := make([]models.Game, 0, len(published))
	for _, g := range games {
		if slices.Contains(published, g.Number) {
			scope = append(scope, g)
		}
	}
	return scope
}
