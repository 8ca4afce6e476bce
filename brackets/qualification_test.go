package brackets

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/Dosada05/royale-tournaments/models"
)

// playedLobby returns a lobby whose teams finished one game in the order given.
func playedLobby(id string, order int, teams []string) models.Lobby {
	var fs []finish
	for i, team := range teams {
		fs = append(fs, finish{team, i + 1, 0})
	}
	g := completedGame(1, fs...)
	g.ID = id + "-g1"
	return models.Lobby{
		ID:    id,
		Name:  LobbyName(order),
		Order: order,
		Teams: slices.Clone(teams),
		Games: []models.Game{g},
	}
}

func scheduledLobby(id string, order int, teams []string) models.Lobby {
	return models.Lobby{
		ID:    id,
		Order: order,
		Teams: slices.Clone(teams),
		Games: []models.Game{{ID: id + "-g1", Number: 1, Status: models.GameStatusScheduled}},
	}
}

func checkConservation(t *testing.T, lobby models.Lobby, out models.QualificationOutcome) {
	t.Helper()
	total := len(out.Qualified) + len(out.Transferred) + len(out.Eliminated)
	if total != len(lobby.Teams) {
		t.Fatalf("lobby %s: %d qualified + %d transferred + %d eliminated != %d teams",
			lobby.ID, len(out.Qualified), len(out.Transferred), len(out.Eliminated), len(lobby.Teams))
	}
}

func TestProcessLobbyQualifiesTopAndTransfersBest(t *testing.T) {
	teams := makeTeams(12)
	lobby := playedLobby("l1", 1, teams)
	next := scheduledLobby("l2", 2, []string{"late-1"})

	out, err := ProcessLobby(&lobby, &next, QualifyOptions{QualifiersPerGroup: 6, TransferEnabled: true, Capacity: 12})
	if err != nil {
		t.Fatalf("ProcessLobby: %v", err)
	}
	checkConservation(t, lobby, out)

	if !slices.Equal(out.Qualified, teams[:6]) {
		t.Fatalf("qualified = %v, want %v", out.Qualified, teams[:6])
	}
	if !slices.Equal(out.Transferred, teams[6:]) {
		t.Fatalf("transferred = %v, want %v", out.Transferred, teams[6:])
	}
	if len(out.Eliminated) != 0 {
		t.Fatalf("nobody should be eliminated, got %v", out.Eliminated)
	}
	if len(next.Teams) != 7 {
		t.Fatalf("next lobby has %d teams, want 7", len(next.Teams))
	}
	for _, s := range next.Standings {
		if s.TotalPoints != 0 || s.GamesPlayed != 0 {
			t.Fatalf("transferred team must start from zero: %+v", s)
		}
	}
	for _, s := range lobby.Standings {
		wantQualified := slices.Contains(out.Qualified, s.TeamID)
		if s.Qualified != wantQualified {
			t.Fatalf("standing %s qualified = %v", s.TeamID, s.Qualified)
		}
		if slices.Contains(out.Transferred, s.TeamID) && s.TransferredTo != "l2" {
			t.Fatalf("standing %s should point at l2, got %q", s.TeamID, s.TransferredTo)
		}
	}
	if !lobby.Processed || lobby.Outcome == nil {
		t.Fatalf("lobby should be marked processed with its outcome")
	}
}

func TestProcessLobbyRespectsNextCapacity(t *testing.T) {
	teams := makeTeams(12)
	lobby := playedLobby("l1", 1, teams)
	next := scheduledLobby("l2", 2, []string{"x1", "x2", "x3", "x4", "x5", "x6", "x7", "x8", "x9"})

	out, err := ProcessLobby(&lobby, &next, QualifyOptions{QualifiersPerGroup: 4, TransferEnabled: true, Capacity: 12})
	if err != nil {
		t.Fatalf("ProcessLobby: %v", err)
	}
	checkConservation(t, lobby, out)
	if len(out.Transferred) != 3 || len(out.Eliminated) != 5 {
		t.Fatalf("transferred %d eliminated %d, want 3 and 5", len(out.Transferred), len(out.Eliminated))
	}
	if !slices.Equal(out.Transferred, teams[4:7]) {
		t.Fatalf("the best non-qualified teams should transfer first, got %v", out.Transferred)
	}
	if len(next.Teams) != 12 {
		t.Fatalf("next lobby has %d teams, want 12", len(next.Teams))
	}
}

func TestProcessLobbyEliminatesWithoutTransfer(t *testing.T) {
	lobby := playedLobby("l1", 1, makeTeams(8))
	next := scheduledLobby("l2", 2, nil)

	out, err := ProcessLobby(&lobby, &next, QualifyOptions{QualifiersPerGroup: 3, TransferEnabled: false, Capacity: 12})
	if err != nil {
		t.Fatalf("ProcessLobby: %v", err)
	}
	checkConservation(t, lobby, out)
	if len(out.Eliminated) != 5 || len(next.Teams) != 0 || out.NextLobbyID != "" {
		t.Fatalf("unexpected outcome: %+v, next teams %v", out, next.Teams)
	}

	last := playedLobby("l9", 9, makeTeams(4))
	out, err = ProcessLobby(&last, nil, QualifyOptions{QualifiersPerGroup: 2, TransferEnabled: true, Capacity: 12})
	if err != nil {
		t.Fatalf("ProcessLobby without next: %v", err)
	}
	if len(out.Eliminated) != 2 {
		t.Fatalf("the last lobby eliminates everyone it does not qualify, got %+v", out)
	}
}

func TestProcessLobbyDoesNotTransferIntoProcessedLobby(t *testing.T) {
	lobby := playedLobby("l1", 1, makeTeams(6))
	next := playedLobby("l2", 2, []string{"y1", "y2"})
	next.Processed = true

	out, err := ProcessLobby(&lobby, &next, QualifyOptions{QualifiersPerGroup: 2, TransferEnabled: true, Capacity: 12})
	if err != nil {
		t.Fatalf("ProcessLobby: %v", err)
	}
	if len(out.Transferred) != 0 || len(out.Eliminated) != 4 || len(next.Teams) != 2 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestProcessLobbyRefusesTransferIntoStartedLobby(t *testing.T) {
	lobby := playedLobby("l2", 2, makeTeams(12))
	next := playedLobby("l3", 3, []string{"z1"})

	_, err := ProcessLobby(&lobby, &next, QualifyOptions{QualifiersPerGroup: 6, TransferEnabled: true, Capacity: 12})
	if !errors.Is(err, ErrNextLobbyStarted) {
		t.Fatalf("got %v, want ErrNextLobbyStarted", err)
	}
	if lobby.Processed || lobby.Standings != nil {
		t.Fatalf("a failed run must not touch the lobby")
	}
	if len(next.Teams) != 1 || next.Standings != nil {
		t.Fatalf("next lobby changed: teams %v", next.Teams)
	}

	// Everyone qualifies, so nothing would move.
	out, err := ProcessLobby(&lobby, &next, QualifyOptions{QualifiersPerGroup: 12, TransferEnabled: true, Capacity: 12})
	if err != nil {
		t.Fatalf("ProcessLobby without transfers: %v", err)
	}
	if len(out.Qualified) != 12 || len(next.Teams) != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestProcessLobbyRequiresCompletedGames(t *testing.T) {
	lobby := playedLobby("l1", 1, makeTeams(4))
	lobby.Games = append(lobby.Games, models.Game{ID: "l1-g2", Number: 2, Status: models.GameStatusScheduled})

	_, err := ProcessLobby(&lobby, nil, QualifyOptions{QualifiersPerGroup: 2, Capacity: 12})
	if !errors.Is(err, ErrIncompleteGames) {
		t.Fatalf("got %v, want ErrIncompleteGames", err)
	}
	var countErr *CountError
	if !errors.As(err, &countErr) || countErr.Got != 1 || countErr.Need != 2 {
		t.Fatalf("expected counts 1/2 in %v", err)
	}
	if lobby.Processed || lobby.Standings != nil {
		t.Fatalf("a failed run must not touch the lobby")
	}
}

func TestProcessLobbyIsIdempotent(t *testing.T) {
	lobby := playedLobby("l1", 1, makeTeams(6))
	next := scheduledLobby("l2", 2, nil)
	opts := QualifyOptions{QualifiersPerGroup: 2, TransferEnabled: true, Capacity: 12, Now: time.Unix(100, 0)}

	first, err := ProcessLobby(&lobby, &next, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := ProcessLobby(&lobby, &next, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !slices.Equal(first.Transferred, second.Transferred) || len(next.Teams) != 4 {
		t.Fatalf("re-processing must not move teams again: next has %d teams", len(next.Teams))
	}
}

// Twenty-five teams with capacity twelve: lobby 2 overflows into the single-team lobby 3.
func TestQualificationScenario25Teams(t *testing.T) {
	plan, err := PlanLobbies(25, 12, PlanOptions{})
	if err != nil {
		t.Fatalf("PlanLobbies: %v", err)
	}
	groups := AssignTeams(makeTeams(25), plan, rand.New(rand.NewPCG(3, 5)))
	lobbies := []models.Lobby{
		playedLobby("l1", 1, groups[0]),
		playedLobby("l2", 2, groups[1]),
		scheduledLobby("l3", 3, groups[2]),
	}
	opts := QualifyOptions{QualifiersPerGroup: plan.QualifiersPerGroup, TransferEnabled: plan.TransferNonQualified, Capacity: plan.Capacity}

	var qualified []string
	for i := 0; i < 2; i++ {
		out, err := ProcessLobby(&lobbies[i], &lobbies[i+1], opts)
		if err != nil {
			t.Fatalf("process lobby %d: %v", i+1, err)
		}
		checkConservation(t, lobbies[i], out)
		if len(out.Qualified) != 6 {
			t.Fatalf("lobby %d qualified %d teams, want 6", i+1, len(out.Qualified))
		}
		qualified = append(qualified, out.Qualified...)
	}

	l3 := lobbies[2]
	if len(l3.Teams) > plan.Capacity {
		t.Fatalf("lobby 3 holds %d teams, capacity is %d", len(l3.Teams), plan.Capacity)
	}
	received := len(l3.Teams) - 1
	if received < 1 || received > 11 {
		t.Fatalf("lobby 3 received %d teams, want between 1 and 11", received)
	}
	for _, id := range l3.Teams {
		if slices.Contains(qualified, id) {
			t.Fatalf("qualified team %s must not be transferred", id)
		}
	}
}

func TestProcessLobbyCapacityProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 23))
	for i := 0; i < 200; i++ {
		capacity := 2 + rng.IntN(20)
		size := 1 + rng.IntN(capacity)
		occupied := rng.IntN(capacity + 1)
		var waiting []string
		for j := 0; j < occupied; j++ {
			waiting = append(waiting, fmt.Sprintf("w%d", j))
		}
		lobby := playedLobby("a", 1, makeTeams(size))
		next := scheduledLobby("b", 2, waiting)

		out, err := ProcessLobby(&lobby, &next, QualifyOptions{
			QualifiersPerGroup: rng.IntN(size + 1),
			TransferEnabled:    true,
			Capacity:           capacity,
		})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		checkConservation(t, lobby, out)
		if len(next.Teams) > capacity {
			t.Fatalf("run %d: next lobby has %d teams over capacity %d", i, len(next.Teams), capacity)
		}
	}
}
