package brackets

import (
	"cmp"
	"slices"

	"github.com/Dosada05/royale-tournaments/models"
)

// Aggregate folds the completed games into one standing per team in teams.
//
// Teams without a game get noGamesAvg as their average placement so that no-shows sort
// after teams that played. Standings are ordered by total points (desc), then average
// placement (asc), then by their position in teams. Rank is 1-based in that order.
func Aggregate(games []models.Game, teams []string, noGamesAvg float64) []models.Standing {
	index := make(map[string]int, len(teams))
	standings := make([]models.Standing, 0, len(teams))
	for _, id := range teams {
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(standings)
		standings = append(standings, models.Standing{TeamID: id, Placements: []int{}})
	}

	for _, g := range games {
		if g.Status != models.GameStatusCompleted {
			continue
		}
		for _, res := range g.Results {
			i, ok := index[res.TeamID]
			if !ok {
				continue
			}
			s := &standings[i]
			s.TotalPoints += res.TotalPoints
			s.TotalKills += res.Kills
			s.Placements = append(s.Placements, res.Placement)
			s.GamesPlayed++
			if res.Placement == 1 {
				s.Wins++
			}
		}
	}

	order := make(map[string]int, len(standings))
	for i := range standings {
		s := &standings[i]
		order[s.TeamID] = i
		s.AvgPlacement = averagePlacement(s.Placements, noGamesAvg)
	}

	slices.SortStableFunc(standings, func(a, b models.Standing) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := cmp.Compare(a.AvgPlacement, b.AvgPlacement); c != 0 {
			return c
		}
		return cmp.Compare(order[a.TeamID], order[b.TeamID])
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

func averagePlacement(placements []int, sentinel float64) float64 {
	if len(placements) == 0 {
		return sentinel
	}
	sum := 0
	for _, p := range placements {
		sum += p
	}
	return float64(sum) / float64(len(placements))
}

// RanksBefore reports whether a is ordered before b by points and average placement alone.
func RanksBefore(a, b models.Standing) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	return a.AvgPlacement < b.AvgPlacement
}

// ApplyPrizes sets Earnings from a rank → amount table.
func ApplyPrizes(standings []models.Standing, prizes map[int]float64) {
	for i := range standings {
		standings[i].Earnings = prizes[standings[i].Rank]
	}
}
