package models

// Standing is a team's aggregate over a scope of games: a lobby's games or the
// published finals games. Standings are always recomputed, never edited.
type Standing struct {
	TeamID        string  `json:"team_id" bson:"team_id"`
	TotalPoints   int     `json:"total_points" bson:"total_points"`
	TotalKills    int     `json:"total_kills" bson:"total_kills"`
	Placements    []int   `json:"placements" bson:"placements"`
	GamesPlayed   int     `json:"games_played" bson:"games_played"`
	Wins          int     `json:"wins" bson:"wins"`
	AvgPlacement  float64 `json:"avg_placement" bson:"avg_placement"`
	Qualified     bool    `json:"qualified" bson:"qualified"`
	TransferredTo string  `json:"transferred_to,omitempty" bson:"transferred_to,omitempty"`
	Rank          int     `json:"rank,omitempty" bson:"rank,omitempty"`
	Earnings      float64 `json:"earnings,omitempty" bson:"earnings,omitempty"`
}
