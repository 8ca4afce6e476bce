package brackets

import (
	"errors"
	"slices"
	"testing"

	"github.com/Dosada05/royale-tournaments/models"
)

func TestSelectPublishable(t *testing.T) {
	empty := models.Game{Number: 4, Status: models.GameStatusCompleted}
	scheduled := models.Game{Number: 5, Status: models.GameStatusScheduled}
	games := []models.Game{
		completedGame(3, finish{"a", 1, 0}),
		completedGame(1, finish{"a", 2, 0}),
		completedGame(2, finish{"a", 3, 0}),
		empty,
		scheduled,
	}

	got, err := SelectPublishable(games, nil)
	if err != nil {
		t.Fatalf("SelectPublishable: %v", err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", got)
	}

	got, err = SelectPublishable(games, []int{1, 2})
	if err != nil || !slices.Equal(got, []int{3}) {
		t.Fatalf("got %v, %v; want [3]", got, err)
	}

	if _, err := SelectPublishable(games, []int{1, 2, 3}); !errors.Is(err, ErrNothingToPublish) {
		t.Fatalf("got %v, want ErrNothingToPublish", err)
	}
}

// Publishing game 3 after games 1 and 2 adds only game 3, and standings cover all three.
func TestPublishThirdGameRecomputesFromAllPublished(t *testing.T) {
	games := []models.Game{
		completedGame(1, finish{"a", 1, 0}, finish{"b", 2, 0}),
		completedGame(2, finish{"a", 2, 0}, finish{"b", 1, 0}),
		completedGame(3, finish{"a", 2, 0}, finish{"b", 1, 3}),
	}
	published := []int{1, 2}

	fresh, err := SelectPublishable(games, published)
	if err != nil {
		t.Fatalf("SelectPublishable: %v", err)
	}
	if !slices.Equal(fresh, []int{3}) {
		t.Fatalf("fresh = %v, want [3]", fresh)
	}
	merged := MergePublished(published, fresh)
	if !slices.Equal(merged, []int{1, 2, 3}) {
		t.Fatalf("merged = %v", merged)
	}

	standings := Aggregate(PublishedScope(games, merged), []string{"a", "b"}, 12)
	if standings[0].TeamID != "b" || standings[0].GamesPlayed != 3 || standings[0].TotalPoints != 12+9+12+3 {
		t.Fatalf("unexpected leader: %+v", standings[0])
	}
}

func TestPublishMonotonicAndResetReproducible(t *testing.T) {
	games := []models.Game{
		completedGame(2, finish{"a", 1, 0}),
		completedGame(1, finish{"a", 1, 0}),
	}

	first, err := SelectPublishable(games, nil)
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	published := MergePublished(nil, first)

	games = append(games, completedGame(3, finish{"a", 1, 0}))
	fresh, err := SelectPublishable(games, published)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	after := MergePublished(published, fresh)
	for _, n := range published {
		if !slices.Contains(after, n) {
			t.Fatalf("published set lost game %d", n)
		}
	}
	if !slices.IsSorted(after) {
		t.Fatalf("published set must stay sorted: %v", after)
	}

	// After a reset the next publish sees exactly what a first-ever publish would.
	again, err := SelectPublishable(games, nil)
	if err != nil {
		t.Fatalf("publish after reset: %v", err)
	}
	if !slices.Equal(again, after) {
		t.Fatalf("after reset got %v, want %v", again, after)
	}
}

func TestMergePublishedDeduplicates(t *testing.T) {
	if got := MergePublished([]int{1, 3}, []int{3, 2}); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}
