package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/google/uuid"
)

// QualificationSummary is what ProcessQualifications reports back to the organizer.
type QualificationSummary struct {
	Outcome          models.QualificationOutcome `json:"outcome"`
	QualifiedCount   int                         `json:"qualified_count"`
	TransferredCount int                         `json:"transferred_count"`
	EliminatedCount  int                         `json:"eliminated_count"`
	TotalQualified   int                         `json:"total_qualified"`
	AllProcessed     bool                        `json:"all_processed"`
}

func (s *tournamentService) GenerateQualifierLobbies(ctx context.Context, tournamentID string) (*models.LobbyPlan, error) {
	const op = "GenerateQualifierLobbies"

	var plan models.LobbyPlan
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if !t.HasQualifiers {
			return fail(op, ErrQualifiersDisabled, nil)
		}
		if err := requirePhase(op, t, models.StatusRegistration); err != nil {
			return err
		}
		if t.LobbiesGenerated() {
			return fail(op, ErrAlreadyGenerated, map[string]any{"groups": len(t.QualifierGroups)})
		}

		teams := t.EligibleTeams()
		settings := t.QualifierSettings
		var err error
		plan, err = brackets.PlanLobbies(len(teams), t.MaxTeamsPerLobby, brackets.PlanOptions{
			Groups:               settings.Groups,
			QualifiersPerGroup:   settings.QualifiersPerGroup,
			TransferNonQualified: settings.TransferNonQualified,
		})
		if err != nil {
			return translatePlanError(op, err)
		}

		assigned := brackets.AssignTeams(teams, plan, s.newRand())
		lobbies := make([]models.Lobby, len(assigned))
		for i, lobbyTeams := range assigned {
			order := i + 1
			games := make([]models.Game, settings.GamesPerGroup)
			for g := range games {
				games[g] = models.Game{
					ID:      uuid.NewString(),
					Number:  g + 1,
					Status:  models.GameStatusScheduled,
					Results: []models.Result{},
				}
			}
			lobbies[i] = models.Lobby{
				ID:        uuid.NewString(),
				Name:      brackets.LobbyName(order),
				Order:     order,
				Teams:     lobbyTeams,
				Games:     games,
				Standings: brackets.Aggregate(nil, lobbyTeams, float64(plan.Capacity)),
			}
		}
		t.QualifierGroups = lobbies
		t.QualifierPlan = &plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "qualifier lobbies generated",
		slog.String("tournament_id", t.ID),
		slog.Int("teams", plan.TotalTeams),
		slog.Int("groups", plan.Groups),
		slog.Int("qualifiers_per_group", plan.QualifiersPerGroup),
		slog.Bool("needs_transfer", plan.NeedsTransfer),
	)
	s.notify(t.ID, brackets.MessageLobbiesGenerated, map[string]any{"plan": plan, "lobbies": t.QualifierGroups})
	return &plan, nil
}

func translatePlanError(op string, err error) error {
	var countErr *brackets.CountError
	switch {
	case errors.As(err, &countErr) && errors.Is(err, brackets.ErrInsufficientTeams):
		return fail(op, ErrInsufficientTeams, map[string]any{"eligible_teams": countErr.Got, "required": countErr.Need})
	case errors.Is(err, brackets.ErrInvalidCapacity),
		errors.Is(err, brackets.ErrInvalidGroupCount),
		errors.Is(err, brackets.ErrInvalidQualifierNo):
		return fail(op, ErrInvalidInput, map[string]any{"reason": err.Error()})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *tournamentService) RecordLobbyGameResult(ctx context.Context, tournamentID, lobbyID, gameID string, results []ResultInput) ([]models.Standing, error) {
	const op = "RecordLobbyGameResult"

	var standings []models.Standing
	var lobbyName string
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if !t.HasQualifiers {
			return fail(op, ErrQualifiersDisabled, nil)
		}
		if err := requirePhase(op, t, models.StatusLocked, models.StatusOngoing); err != nil {
			return err
		}
		lobby := t.LobbyByID(lobbyID)
		if lobby == nil {
			return fail(op, ErrGroupNotFound, map[string]any{"lobby_id": lobbyID})
		}
		if lobby.Processed {
			return fail(op, ErrGroupAlreadyProcessed, map[string]any{"lobby_id": lobbyID})
		}
		// Teams transferred from the previous group join this one, so it plays only after that cut.
		if t.QualifierPlan != nil && t.QualifierPlan.TransferNonQualified {
			if prev := t.LobbyByOrder(lobby.Order - 1); prev != nil && !prev.Processed {
				return fail(op, ErrPreviousGroupPending, map[string]any{
					"lobby_order":   lobby.Order,
					"pending_order": prev.Order,
				})
			}
		}
		game := lobby.GameByID(gameID)
		if game == nil {
			return fail(op, ErrGameNotFound, map[string]any{"lobby_id": lobbyID, "game_id": gameID})
		}

		scored, err := s.scoreResults(op, results, lobby.Teams, max(t.MaxTeamsPerLobby, len(lobby.Teams)), t.PointsSystem)
		if err != nil {
			return err
		}
		now := s.now()
		game.Results = scored
		game.Status = models.GameStatusCompleted
		game.CompletedAt = &now

		lobby.Standings = brackets.Aggregate(lobby.Games, lobby.Teams, float64(t.MaxTeamsPerLobby))
		standings = slices.Clone(lobby.Standings)
		lobbyName = lobby.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "lobby game recorded",
		slog.String("tournament_id", t.ID),
		slog.String("lobby_id", lobbyID),
		slog.String("game_id", gameID),
	)
	s.notify(t.ID, brackets.MessageLobbyUpdated, map[string]any{
		"lobby_id":  lobbyID,
		"name":      lobbyName,
		"standings": standings,
	})
	return standings, nil
}

// scoreResults validates one game's finishes against the teams allowed to play it and
// fills the derived point fields. maxPlacement is the lowest placement a team can finish.
func (s *tournamentService) scoreResults(op string, input []ResultInput, teams []string, maxPlacement int, ps models.PointsSystem) ([]models.Result, error) {
	if len(input) == 0 {
		return nil, fail(op, ErrInvalidInput, map[string]any{"fields": map[string]string{"results": "must not be empty"}})
	}

	problems := map[string]string{}
	seenTeams := make(map[string]struct{}, len(input))
	seenPlacements := make(map[int]struct{}, len(input))
	results := make([]models.Result, 0, len(input))
	for i, in := range input {
		field := fmt.Sprintf("results[%d]", i)
		switch {
		case !slices.Contains(teams, in.TeamID):
			problems[field] = fmt.Sprintf("team %q does not play in this lobby", in.TeamID)
			continue
		case in.Placement < 1 || in.Placement > maxPlacement:
			problems[field] = fmt.Sprintf("placement must be between 1 and %d", maxPlacement)
			continue
		case in.Kills < 0:
			problems[field] = "kills must not be negative"
			continue
		}
		if _, dup := seenTeams[in.TeamID]; dup {
			problems[field] = fmt.Sprintf("team %q appears twice", in.TeamID)
			continue
		}
		if _, dup := seenPlacements[in.Placement]; dup {
			problems[field] = fmt.Sprintf("placement %d is taken by another team", in.Placement)
			continue
		}
		seenTeams[in.TeamID] = struct{}{}
		seenPlacements[in.Placement] = struct{}{}

		r := models.Result{TeamID: in.TeamID, Placement: in.Placement, Kills: in.Kills}
		brackets.ScoreResult(&r, ps)
		results = append(results, r)
	}
	if len(problems) > 0 {
		return nil, fail(op, ErrInvalidInput, map[string]any{"fields": problems})
	}

	slices.SortFunc(results, func(a, b models.Result) int { return a.Placement - b.Placement })
	return results, nil
}

func (s *tournamentService) ProcessQualifications(ctx context.Context, tournamentID string, lobbyOrder int) (*QualificationSummary, error) {
	const op = "ProcessQualifications"

	var summary QualificationSummary
	var next *models.Lobby
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if !t.HasQualifiers {
			return fail(op, ErrQualifiersDisabled, nil)
		}
		if err := requirePhase(op, t, models.StatusLocked, models.StatusOngoing); err != nil {
			return err
		}
		lobby := t.LobbyByOrder(lobbyOrder)
		if lobby == nil {
			return fail(op, ErrGroupNotFound, map[string]any{"lobby_order": lobbyOrder})
		}
		next = t.LobbyByOrder(lobbyOrder + 1)

		plan := t.QualifierPlan
		if plan == nil {
			return fail(op, ErrLobbiesNotGenerated, nil)
		}
		outcome, err := brackets.ProcessLobby(lobby, next, brackets.QualifyOptions{
			QualifiersPerGroup: plan.QualifiersPerGroup,
			TransferEnabled:    plan.TransferNonQualified,
			Capacity:           t.MaxTeamsPerLobby,
			Now:                s.now(),
		})
		if err != nil {
			var countErr *brackets.CountError
			if errors.As(err, &countErr) && errors.Is(err, brackets.ErrIncompleteGames) {
				return fail(op, ErrIncompleteGames, map[string]any{
					"lobby_order":     lobbyOrder,
					"completed_games": countErr.Got,
					"required_games":  countErr.Need,
				})
			}
			if errors.Is(err, brackets.ErrNextLobbyStarted) {
				return fail(op, ErrNextGroupStarted, map[string]any{
					"lobby_order": lobbyOrder,
					"next_order":  lobbyOrder + 1,
				})
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		t.AddQualified(outcome.Qualified...)
		summary = QualificationSummary{
			Outcome:          outcome,
			QualifiedCount:   len(outcome.Qualified),
			TransferredCount: len(outcome.Transferred),
			EliminatedCount:  len(outcome.Eliminated),
			TotalQualified:   len(t.QualifiedTeams),
			AllProcessed:     t.AllLobbiesProcessed(),
		}
		if next != nil {
			snapshot := *next
			next = &snapshot
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "qualifier lobby processed",
		slog.String("tournament_id", t.ID),
		slog.Int("lobby_order", lobbyOrder),
		slog.Int("qualified", summary.QualifiedCount),
		slog.Int("transferred", summary.TransferredCount),
		slog.Int("eliminated", summary.EliminatedCount),
	)
	s.notify(t.ID, brackets.MessageLobbyProcessed, summary)
	if next != nil && summary.TransferredCount > 0 {
		s.notify(t.ID, brackets.MessageLobbyUpdated, map[string]any{
			"lobby_id":  next.ID,
			"name":      next.Name,
			"teams":     next.Teams,
			"standings": next.Standings,
		})
	}
	return &summary, nil
}
