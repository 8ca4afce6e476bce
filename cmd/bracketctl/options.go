package main

import (
	"fmt"
	"strconv"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/models"
)

// GamesFile is the TOML input of `bracketctl standings`:
//
//	capacity = 12
//	teams = ["alpha", "bravo"]
//
//	[placement-points]
//	1 = 12
//	2 = 9
//
//	[[games]]
//	number = 1
//	results = [
//	  { team = "alpha", placement = 1, kills = 4 },
//	  { team = "bravo", placement = 2, kills = 0 },
//	]
type GamesFile struct {
	Capacity        int                `toml:"capacity"`
	KillPoints      *int               `toml:"kill-points"`
	PlacementPoints map[string]int     `toml:"placement-points"`
	Prizes          map[string]float64 `toml:"prizes"`
	Teams           []string           `toml:"teams"`
	Games           []GameEntry        `toml:"games"`
}

type GameEntry struct {
	Number  int           `toml:"number"`
	Results []ResultEntry `toml:"results"`
}

type ResultEntry struct {
	Team      string `toml:"team"`
	Placement int    `toml:"placement"`
	Kills     int    `toml:"kills"`
}

func (f *GamesFile) FillDefaults() {
	if f.KillPoints == nil {
		kp := models.DefaultPointsSystem().KillPoints
		f.KillPoints = &kp
	}
	if len(f.Teams) == 0 {
		seen := make(map[string]bool)
		for _, g := range f.Games {
			for _, r := range g.Results {
				if !seen[r.Team] {
					seen[r.Team] = true
					f.Teams = append(f.Teams, r.Team)
				}
			}
		}
	}
	if f.Capacity == 0 {
		f.Capacity = len(f.Teams)
	}
	for i := range f.Games {
		if f.Games[i].Number == 0 {
			f.Games[i].Number = i + 1
		}
	}
}

// PointsSystem converts the TOML tables. TOML keys are strings, placements are not.
func (f *GamesFile) PointsSystem() (models.PointsSystem, error) {
	ps := models.DefaultPointsSystem()
	if f.KillPoints != nil {
		ps.KillPoints = *f.KillPoints
	}
	if ps.KillPoints < 0 {
		return ps, fmt.Errorf("kill-points must not be negative")
	}
	if len(f.PlacementPoints) > 0 {
		ps.Placement = make(map[int]int, len(f.PlacementPoints))
		for key, points := range f.PlacementPoints {
			placement, err := strconv.Atoi(key)
			if err != nil || placement < 1 {
				return ps, fmt.Errorf("placement-points: invalid placement %q", key)
			}
			if points < 0 {
				return ps, fmt.Errorf("placement-points: negative points for placement %d", placement)
			}
			ps.Placement[placement] = points
		}
	}
	return ps, nil
}

func (f *GamesFile) PrizeTable() (map[int]float64, error) {
	prizes := make(map[int]float64, len(f.Prizes))
	for key, amount := range f.Prizes {
		rank, err := strconv.Atoi(key)
		if err != nil || rank < 1 {
			return nil, fmt.Errorf("prizes: invalid rank %q", key)
		}
		prizes[rank] = amount
	}
	return prizes, nil
}

// ScoredGames validates the results and returns them as completed games.
func (f *GamesFile) ScoredGames(ps models.PointsSystem) ([]models.Game, error) {
	known := make(map[string]bool, len(f.Teams))
	for _, t := range f.Teams {
		known[t] = true
	}
	numbers := make(map[int]bool, len(f.Games))

	games := make([]models.Game, 0, len(f.Games))
	for _, entry := range f.Games {
		if numbers[entry.Number] {
			return nil, fmt.Errorf("game %d listed twice", entry.Number)
		}
		numbers[entry.Number] = true

		game := models.Game{
			ID:      fmt.Sprintf("game-%d", entry.Number),
			Number:  entry.Number,
			Status:  models.GameStatusCompleted,
			Results: make([]models.Result, 0, len(entry.Results)),
		}
		teams := make(map[string]bool, len(entry.Results))
		placements := make(map[int]bool, len(entry.Results))
		for _, r := range entry.Results {
			switch {
			case !known[r.Team]:
				return nil, fmt.Errorf("game %d: unknown team %q", entry.Number, r.Team)
			case teams[r.Team]:
				return nil, fmt.Errorf("game %d: team %q listed twice", entry.Number, r.Team)
			case r.Placement < 1 || r.Placement > f.Capacity:
				return nil, fmt.Errorf("game %d: team %q placement %d out of range 1..%d", entry.Number, r.Team, r.Placement, f.Capacity)
			case placements[r.Placement]:
				return nil, fmt.Errorf("game %d: placement %d listed twice", entry.Number, r.Placement)
			case r.Kills < 0:
				return nil, fmt.Errorf("game %d: team %q has negative kills", entry.Number, r.Team)
			}
			teams[r.Team] = true
			placements[r.Placement] = true

			res := models.Result{TeamID: r.Team, Placement: r.Placement, Kills: r.Kills}
			brackets.ScoreResult(&res, ps)
			game.Results = append(game.Results, res)
		}
		games = append(games, game)
	}
	return games, nil
}
