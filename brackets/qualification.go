package brackets

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/royale-tournaments/models"
)

var (
	ErrIncompleteGames  = errors.New("lobby has games that are not completed")
	ErrNextLobbyStarted = errors.New("next lobby has already started playing")
)

type QualifyOptions struct {
	QualifiersPerGroup int
	TransferEnabled    bool
	// Capacity bounds the next lobby and is the average-placement sentinel for teams without games.
	Capacity int
	Now      time.Time
}

// ProcessLobby cuts a finished lobby. The top QualifiersPerGroup standings qualify,
// the best non-qualified teams fill the free seats of next (when transfer is enabled and
// next is still open), and everyone else is eliminated. Transferred teams start next
// from zero points and must play all of its games, so transferring into a lobby with a
// completed game fails with ErrNextLobbyStarted.
//
// ProcessLobby updates lobby and next in place only after every check passed. A lobby
// that was already processed returns its stored outcome unchanged.
func ProcessLobby(lobby *models.Lobby, next *models.Lobby, opts QualifyOptions) (models.QualificationOutcome, error) {
	if lobby.Processed && lobby.Outcome != nil {
		return *lobby.Outcome, nil
	}

	completed := 0
	for _, g := range lobby.Games {
		if g.Status == models.GameStatusCompleted {
			completed++
		}
	}
	if len(lobby.Games) == 0 || completed < len(lobby.Games) {
		return models.QualificationOutcome{}, &CountError{Err: ErrIncompleteGames, Got: completed, Need: max(len(lobby.Games), 1)}
	}

	sentinel := float64(opts.Capacity)
	standings := Aggregate(lobby.Games, lobby.Teams, sentinel)

	outcome := models.QualificationOutcome{
		LobbyID:     lobby.ID,
		Qualified:   []string{},
		Transferred: []string{},
		Eliminated:  []string{},
		ProcessedAt: opts.Now,
	}

	cut := min(max(opts.QualifiersPerGroup, 0), len(standings))
	for i := range standings[:cut] {
		standings[i].Qualified = true
		outcome.Qualified = append(outcome.Qualified, standings[i].TeamID)
	}

	canTransfer := opts.TransferEnabled && next != nil && !next.Processed
	slots := 0
	if canTransfer {
		outcome.NextLobbyID = next.ID
		slots = max(0, opts.Capacity-len(next.Teams))
		if slots > 0 && cut < len(standings) && lobbyStarted(next) {
			return models.QualificationOutcome{}, fmt.Errorf("%w: lobby %s", ErrNextLobbyStarted, next.ID)
		}
	}

	var moving []string
	for i := cut; i < len(standings); i++ {
		s := &standings[i]
		if canTransfer && len(moving) < slots && !next.HasTeam(s.TeamID) {
			s.TransferredTo = next.ID
			moving = append(moving, s.TeamID)
			continue
		}
		outcome.Eliminated = append(outcome.Eliminated, s.TeamID)
	}

	if len(moving) > 0 {
		next.Teams = append(next.Teams, moving...)
		next.Standings = Aggregate(next.Games, next.Teams, sentinel)
		outcome.Transferred = append(outcome.Transferred, moving...)
	}

	lobby.Standings = standings
	lobby.Processed = true
	lobby.Outcome = &outcome
	return outcome, nil
}

func lobbyStarted(l *models.Lobby) bool {
	for _, g := range l.Games {
		if g.Status == models.GameStatusCompleted {
			return true
		}
	}
	return false
}
