package models

import "time"

type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusCompleted GameStatus = "completed"
)

// Game is one battle-royale round played by every team of a lobby.
type Game struct {
	ID          string     `json:"id" bson:"id"`
	Number      int        `json:"number" bson:"number"`
	Status      GameStatus `json:"status" bson:"status"`
	Results     []Result   `json:"results" bson:"results"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Result is a team's finish in a single game. Point fields are derived from
// Placement and Kills with the tournament's points system.
type Result struct {
	TeamID          string `json:"team_id" bson:"team_id"`
	Placement       int    `json:"placement" bson:"placement"`
	Kills           int    `json:"kills" bson:"kills"`
	PlacementPoints int    `json:"placement_points" bson:"placement_points"`
	KillPoints      int    `json:"kill_points" bson:"kill_points"`
	TotalPoints     int    `json:"total_points" bson:"total_points"`
}

// Lobby is a qualifier group. Order decides where non-qualified teams transfer:
// lobby N overflows into lobby N+1.
type Lobby struct {
	ID        string                `json:"id" bson:"id"`
	Name      string                `json:"name" bson:"name"`
	Order     int                   `json:"order" bson:"order"`
	Teams     []string              `json:"teams" bson:"teams"`
	Games     []Game                `json:"games" bson:"games"`
	Standings []Standing            `json:"standings" bson:"standings"`
	Processed bool                  `json:"processed" bson:"processed"`
	Outcome   *QualificationOutcome `json:"outcome,omitempty" bson:"outcome,omitempty"`
}

func (l *Lobby) HasTeam(teamID string) bool {
	for _, id := range l.Teams {
		if id == teamID {
			return true
		}
	}
	return false
}

func (l *Lobby) GameByID(id string) *Game {
	for i := range l.Games {
		if l.Games[i].ID == id {
			return &l.Games[i]
		}
	}
	return nil
}

// QualificationOutcome records which teams left a lobby and how.
type QualificationOutcome struct {
	LobbyID     string    `json:"lobby_id" bson:"lobby_id"`
	NextLobbyID string    `json:"next_lobby_id,omitempty" bson:"next_lobby_id,omitempty"`
	Qualified   []string  `json:"qualified" bson:"qualified"`
	Transferred []string  `json:"transferred" bson:"transferred"`
	Eliminated  []string  `json:"eliminated" bson:"eliminated"`
	ProcessedAt time.Time `json:"processed_at" bson:"processed_at"`
}

// LobbyPlan describes how registered teams are split into qualifier lobbies.
type LobbyPlan struct {
	TotalTeams           int  `json:"total_teams" bson:"total_teams"`
	Capacity             int  `json:"capacity" bson:"capacity"`
	FullLobbies          int  `json:"full_lobbies" bson:"full_lobbies"`
	Remainder            int  `json:"remainder" bson:"remainder"`
	Groups               int  `json:"groups" bson:"groups"`
	GroupsAdjusted       bool `json:"groups_adjusted,omitempty" bson:"groups_adjusted,omitempty"`
	QualifiersPerGroup   int  `json:"qualifiers_per_group" bson:"qualifiers_per_group"`
	NeedsTransfer        bool `json:"needs_transfer" bson:"needs_transfer"`
	TransferNonQualified bool `json:"transfer_non_qualified" bson:"transfer_non_qualified"`
}
