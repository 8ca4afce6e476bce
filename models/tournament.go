package models

import (
	"slices"
	"time"
)

// TournamentStatus is the lifecycle phase of a tournament.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusLocked       TournamentStatus = "locked"
	StatusOngoing      TournamentStatus = "ongoing"
	StatusCompleted    TournamentStatus = "completed"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusRegistration, StatusLocked, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// GameMode determines how many players a team fields and, by default, how many teams fit in one lobby.
type GameMode string

const (
	ModeSolo  GameMode = "solo"
	ModeDuo   GameMode = "duo"
	ModeTrio  GameMode = "trio"
	ModeSquad GameMode = "squad"
)

// DefaultLobbyCapacity returns the number of teams a full lobby holds in this mode.
func (m GameMode) DefaultLobbyCapacity() int {
	switch m {
	case ModeSolo:
		return 48
	case ModeDuo:
		return 24
	case ModeTrio:
		return 16
	case ModeSquad:
		return 12
	default:
		return 0
	}
}

// TeamSize returns the number of players per team in this mode.
func (m GameMode) TeamSize() int {
	switch m {
	case ModeSolo:
		return 1
	case ModeDuo:
		return 2
	case ModeTrio:
		return 3
	case ModeSquad:
		return 4
	default:
		return 0
	}
}

// PointsSystem maps a finishing placement to points and adds a flat value per kill.
type PointsSystem struct {
	Placement  map[int]int `json:"placement" bson:"placement"`
	KillPoints int         `json:"kill_points" bson:"kill_points"`
}

func DefaultPointsSystem() PointsSystem {
	return PointsSystem{
		Placement: map[int]int{
			1: 12, 2: 9, 3: 8, 4: 7, 5: 6, 6: 5,
			7: 4, 8: 3, 9: 2, 10: 1, 11: 0, 12: 0,
		},
		KillPoints: 1,
	}
}

// QualifierSettings are the organizer's requests for the qualifier phase.
// Nil values are derived by the lobby planner.
type QualifierSettings struct {
	Groups               *int `json:"groups,omitempty" bson:"groups,omitempty"`
	QualifiersPerGroup   *int `json:"qualifiers_per_group,omitempty" bson:"qualifiers_per_group,omitempty"`
	GamesPerGroup        int  `json:"games_per_group" bson:"games_per_group"`
	TransferNonQualified bool `json:"transfer_non_qualified" bson:"transfer_non_qualified"`
}

type CheckInWindow struct {
	Enabled  bool      `json:"enabled" bson:"enabled"`
	OpensAt  time.Time `json:"opens_at" bson:"opens_at"`
	ClosesAt time.Time `json:"closes_at" bson:"closes_at"`
}

// Tournament is the aggregate root. Lobbies, games and standings are embedded and
// only change through the tournament service, one read-modify-write at a time.
type Tournament struct {
	ID                string            `json:"id" bson:"id"`
	Name              string            `json:"name" bson:"name"`
	Description       *string           `json:"description,omitempty" bson:"description,omitempty"`
	OrganizerID       string            `json:"organizer_id" bson:"organizer_id"`
	Mode              GameMode          `json:"mode" bson:"mode"`
	Status            TournamentStatus  `json:"status" bson:"status"`
	MaxTeamsPerLobby  int               `json:"max_teams_per_lobby" bson:"max_teams_per_lobby"`
	MaxTeams          int               `json:"max_teams" bson:"max_teams"`
	NumberOfGames     int               `json:"number_of_games" bson:"number_of_games"`
	PointsSystem      PointsSystem      `json:"points_system" bson:"points_system"`
	HasQualifiers     bool              `json:"has_qualifiers" bson:"has_qualifiers"`
	QualifierSettings QualifierSettings `json:"qualifier_settings" bson:"qualifier_settings"`
	CheckIn           CheckInWindow     `json:"check_in" bson:"check_in"`
	Prizes            map[int]float64   `json:"prizes,omitempty" bson:"prizes,omitempty"`

	RegisteredTeams []Registration `json:"registered_teams" bson:"registered_teams"`
	QualifierPlan   *LobbyPlan     `json:"qualifier_plan,omitempty" bson:"qualifier_plan,omitempty"`
	QualifierGroups []Lobby        `json:"qualifier_groups" bson:"qualifier_groups"`
	QualifiedTeams  []string       `json:"qualified_teams" bson:"qualified_teams"`
	Games           []Game         `json:"games" bson:"games"`
	PublishedGames  []int          `json:"published_games" bson:"published_games"`
	Standings       []Standing     `json:"standings" bson:"standings"`

	ScheduledPublishAt *time.Time `json:"scheduled_publish_at,omitempty" bson:"scheduled_publish_at,omitempty"`
	LastPublishedAt    *time.Time `json:"last_published_at,omitempty" bson:"last_published_at,omitempty"`

	Version   int       `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (t *Tournament) Registration(teamID string) *Registration {
	for i := range t.RegisteredTeams {
		if t.RegisteredTeams[i].TeamID == teamID {
			return &t.RegisteredTeams[i]
		}
	}
	return nil
}

// EligibleTeams returns registered team ids in registration order. When check-in is
// enabled only checked-in teams are eligible to play.
func (t *Tournament) EligibleTeams() []string {
	teams := make([]string, 0, len(t.RegisteredTeams))
	for _, r := range t.RegisteredTeams {
		if t.CheckIn.Enabled && !r.CheckedIn {
			continue
		}
		teams = append(teams, r.TeamID)
	}
	return teams
}

func (t *Tournament) LobbiesGenerated() bool {
	return len(t.QualifierGroups) > 0
}

// LobbyByID returns the lobby with the given id or nil.
func (t *Tournament) LobbyByID(id string) *Lobby {
	for i := range t.QualifierGroups {
		if t.QualifierGroups[i].ID == id {
			return &t.QualifierGroups[i]
		}
	}
	return nil
}

func (t *Tournament) LobbyByOrder(order int) *Lobby {
	for i := range t.QualifierGroups {
		if t.QualifierGroups[i].Order == order {
			return &t.QualifierGroups[i]
		}
	}
	return nil
}

func (t *Tournament) AllLobbiesProcessed() bool {
	for _, l := range t.QualifierGroups {
		if !l.Processed {
			return false
		}
	}
	return true
}

func (t *Tournament) IsQualified(teamID string) bool {
	return slices.Contains(t.QualifiedTeams, teamID)
}

// AddQualified appends team ids to QualifiedTeams, skipping ids already present.
func (t *Tournament) AddQualified(teamIDs ...string) {
	for _, id := range teamIDs {
		if !t.IsQualified(id) {
			t.QualifiedTeams = append(t.QualifiedTeams, id)
		}
	}
}

// FinalsTeams returns the teams playing the finals lobby, ordered by registration.
func (t *Tournament) FinalsTeams() []string {
	teams := make([]string, 0, len(t.QualifiedTeams))
	for _, r := range t.RegisteredTeams {
		if t.IsQualified(r.TeamID) {
			teams = append(teams, r.TeamID)
		}
	}
	return teams
}

func (t *Tournament) GameByNumber(number int) *Game {
	for i := range t.Games {
		if t.Games[i].Number == number {
			return &t.Games[i]
		}
	}
	return nil
}

func (t *Tournament) CompletedGames() int {
	n := 0
	for _, g := range t.Games {
		if g.Status == GameStatusCompleted {
			n++
		}
	}
	return n
}

func (t *Tournament) IsPublished(gameNumber int) bool {
	_, found := slices.BinarySearch(t.PublishedGames, gameNumber)
	return found
}
