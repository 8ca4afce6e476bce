package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/Dosada05/royale-tournaments/utils"
	"golang.org/x/sync/errgroup"
)

const publishDueConcurrency = 4

// PublicScoreboard is what spectators see: standings over published games only.
type PublicScoreboard struct {
	TournamentID    string                  `json:"tournament_id"`
	Name            string                  `json:"name"`
	Status          models.TournamentStatus `json:"status"`
	PublishedGames  []int                   `json:"published_games"`
	Standings       []models.Standing       `json:"standings"`
	LastPublishedAt *time.Time              `json:"last_published_at,omitempty"`
	SnapshotURL     string                  `json:"snapshot_url,omitempty"`
}

// FinalsUpdate is returned to the organizer after a finals game is recorded. Preview
// covers every completed game, Standings only the published ones.
type FinalsUpdate struct {
	Game           models.Game             `json:"game"`
	Status         models.TournamentStatus `json:"status"`
	CompletedGames int                     `json:"completed_games"`
	Preview        []models.Standing       `json:"preview"`
	Standings      []models.Standing       `json:"standings"`
}

type PublishResult struct {
	Published      []int             `json:"published"`
	PublishedGames []int             `json:"published_games"`
	Standings      []models.Standing `json:"standings"`
	PublishedAt    time.Time         `json:"published_at"`
	SnapshotURL    string            `json:"snapshot_url,omitempty"`
}

// finalsPlacementLimit is the lowest placement a finals team can finish and doubles as
// the average-placement value of a team that has not played yet.
func finalsPlacementLimit(t *models.Tournament, finalists []string) int {
	return max(t.MaxTeamsPerLobby, len(finalists))
}

func finalsStandings(t *models.Tournament, games []models.Game, finalists []string) []models.Standing {
	standings := brackets.Aggregate(games, finalists, float64(finalsPlacementLimit(t, finalists)))
	brackets.ApplyPrizes(standings, t.Prizes)
	return standings
}

func (s *tournamentService) RecordFinalsGameResult(ctx context.Context, tournamentID string, gameNumber int, results []ResultInput) (*FinalsUpdate, error) {
	const op = "RecordFinalsGameResult"

	var update FinalsUpdate
	var statusChanged bool
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if err := requirePhase(op, t, models.StatusLocked, models.StatusOngoing); err != nil {
			return err
		}
		if t.HasQualifiers && !t.AllLobbiesProcessed() {
			pending := 0
			for _, l := range t.QualifierGroups {
				if !l.Processed {
					pending++
				}
			}
			return fail(op, ErrQualificationsPending, map[string]any{
				"pending_groups": pending,
				"total_groups":   len(t.QualifierGroups),
			})
		}
		finalists := t.FinalsTeams()
		if len(finalists) == 0 {
			return fail(op, ErrNoFinalists, nil)
		}
		if gameNumber < 1 || gameNumber > t.NumberOfGames {
			return fail(op, ErrInvalidInput, map[string]any{
				"fields": map[string]string{"game_number": fmt.Sprintf("must be between 1 and %d", t.NumberOfGames)},
			})
		}
		if t.IsPublished(gameNumber) {
			return fail(op, ErrGameImmutable, map[string]any{"game_number": gameNumber})
		}

		scored, err := s.scoreResults(op, results, finalists, finalsPlacementLimit(t, finalists), t.PointsSystem)
		if err != nil {
			return err
		}

		now := s.now()
		game := t.GameByNumber(gameNumber)
		if game == nil {
			t.Games = append(t.Games, models.Game{ID: fmt.Sprintf("%s-final-%d", t.ID, gameNumber), Number: gameNumber})
			game = &t.Games[len(t.Games)-1]
		}
		game.Results = scored
		game.Status = models.GameStatusCompleted
		game.CompletedAt = &now
		update.Game = *game
		slices.SortFunc(t.Games, func(a, b models.Game) int { return a.Number - b.Number })

		before := t.Status
		if t.Status == models.StatusLocked {
			if err := transition(t, models.StatusOngoing); err != nil {
				return fail(op, err, nil)
			}
		}
		if t.CompletedGames() >= t.NumberOfGames {
			if err := transition(t, models.StatusCompleted); err != nil {
				return fail(op, err, nil)
			}
		}
		statusChanged = before != t.Status

		t.Standings = finalsStandings(t, brackets.PublishedScope(t.Games, t.PublishedGames), finalists)
		update.Status = t.Status
		update.CompletedGames = t.CompletedGames()
		update.Preview = finalsStandings(t, t.Games, finalists)
		update.Standings = slices.Clone(t.Standings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "finals game recorded",
		slog.String("tournament_id", t.ID),
		slog.Int("game_number", gameNumber),
		slog.Int("completed_games", update.CompletedGames),
		slog.String("status", string(t.Status)),
	)
	s.notify(t.ID, brackets.MessageGameRecorded, map[string]any{
		"game_number":     gameNumber,
		"completed_games": update.CompletedGames,
	})
	if statusChanged {
		s.notify(t.ID, brackets.MessageStatusChanged, map[string]any{"status": t.Status})
	}
	return &update, nil
}

func (s *tournamentService) PublishScores(ctx context.Context, tournamentID string) (*PublishResult, error) {
	const op = "PublishScores"

	var result PublishResult
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if err := requirePhase(op, t, models.StatusLocked, models.StatusOngoing, models.StatusCompleted); err != nil {
			return err
		}
		fresh, err := brackets.SelectPublishable(t.Games, t.PublishedGames)
		if err != nil {
			if errors.Is(err, brackets.ErrNothingToPublish) {
				return fail(op, ErrNothingToPublish, map[string]any{
					"completed_games": t.CompletedGames(),
					"published_games": len(t.PublishedGames),
				})
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		now := s.now()
		t.PublishedGames = brackets.MergePublished(t.PublishedGames, fresh)
		t.Standings = finalsStandings(t, brackets.PublishedScope(t.Games, t.PublishedGames), t.FinalsTeams())
		t.LastPublishedAt = &now
		t.ScheduledPublishAt = nil

		result = PublishResult{
			Published:      fresh,
			PublishedGames: slices.Clone(t.PublishedGames),
			Standings:      slices.Clone(t.Standings),
			PublishedAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.SnapshotURL = s.archiveScoreboard(ctx, t)
	s.logger.InfoContext(ctx, "scores published",
		slog.String("tournament_id", t.ID),
		slog.Any("games", result.Published),
		slog.Int("published_total", len(result.PublishedGames)),
	)
	s.notify(t.ID, brackets.MessageScoresPublished, result)
	return &result, nil
}

// archiveScoreboard stores the published scoreboard as JSON. Failures are logged and
// never undo a publish that was already saved.
func (s *tournamentService) archiveScoreboard(ctx context.Context, t *models.Tournament) string {
	if s.uploader == nil || t.LastPublishedAt == nil {
		return ""
	}
	body, err := json.Marshal(publicScoreboard(t))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode scoreboard snapshot", slog.String("tournament_id", t.ID), slog.Any("error", err))
		return ""
	}

	var url string
	for _, key := range []string{
		utils.ScoreboardKey(t.Name, t.ID, *t.LastPublishedAt),
		utils.LatestScoreboardKey(t.Name, t.ID),
	} {
		uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to archive scoreboard snapshot",
				slog.String("tournament_id", t.ID),
				slog.String("key", key),
				slog.Any("error", err),
			)
			continue
		}
		if url == "" {
			url = uploaded.Location
		}
	}
	return url
}

func publicScoreboard(t *models.Tournament) PublicScoreboard {
	standings := t.Standings
	if standings == nil {
		standings = []models.Standing{}
	}
	published := t.PublishedGames
	if published == nil {
		published = []int{}
	}
	return PublicScoreboard{
		TournamentID:    t.ID,
		Name:            t.Name,
		Status:          t.Status,
		PublishedGames:  published,
		Standings:       standings,
		LastPublishedAt: t.LastPublishedAt,
	}
}

func (s *tournamentService) GetPublicStandings(ctx context.Context, id string) (*PublicScoreboard, error) {
	t, err := s.load(ctx, "GetPublicStandings", id)
	if err != nil {
		return nil, err
	}
	board := publicScoreboard(t)
	if s.uploader != nil && t.LastPublishedAt != nil {
		board.SnapshotURL = s.uploader.GetPublicURL(utils.LatestScoreboardKey(t.Name, t.ID))
	}
	return &board, nil
}

func (s *tournamentService) SchedulePublish(ctx context.Context, tournamentID string, at *time.Time) (*models.Tournament, error) {
	const op = "SchedulePublish"
	if at != nil && at.Before(s.now()) {
		return nil, fail(op, ErrInvalidInput, map[string]any{
			"fields": map[string]string{"publish_at": "must not be in the past"},
		})
	}
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if t.Status == models.StatusCompleted && at != nil {
			if _, err := brackets.SelectPublishable(t.Games, t.PublishedGames); err != nil {
				return fail(op, ErrNothingToPublish, nil)
			}
		}
		if at == nil {
			t.ScheduledPublishAt = nil
			return nil
		}
		scheduled := at.UTC()
		t.ScheduledPublishAt = &scheduled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "publish scheduled", slog.String("tournament_id", t.ID), slog.Any("publish_at", t.ScheduledPublishAt))
	return t, nil
}

// PublishDue publishes every tournament whose scheduled publish time has passed and
// returns how many were published. A tournament with nothing new to publish has its
// schedule cleared. Failures of single tournaments are joined into the returned error.
func (s *tournamentService) PublishDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ListDueForPublish(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("PublishDue: failed to list due tournaments: %w", err)
	}

	var (
		mu        sync.Mutex
		published int
		failures  []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publishDueConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.PublishScores(gctx, id)
			if errors.Is(err, ErrNothingToPublish) {
				err = s.clearSchedule(gctx, id, now)
			} else if err == nil {
				mu.Lock()
				published++
				mu.Unlock()
				return nil
			}
			if err != nil {
				s.logger.ErrorContext(gctx, "scheduled publish failed", slog.String("tournament_id", id), slog.Any("error", err))
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return published, errors.Join(failures...)
}

func (s *tournamentService) clearSchedule(ctx context.Context, id string, now time.Time) error {
	_, err := s.mutate(ctx, "PublishDue", id, func(t *models.Tournament) error {
		if t.ScheduledPublishAt != nil && !t.ScheduledPublishAt.After(now) {
			t.ScheduledPublishAt = nil
		}
		return nil
	})
	return err
}

func (s *tournamentService) ResetScores(ctx context.Context, tournamentID string) error {
	const op = "ResetScores"
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if err := requirePhase(op, t, models.StatusLocked, models.StatusOngoing, models.StatusCompleted); err != nil {
			return err
		}
		t.PublishedGames = []int{}
		t.Standings = []models.Standing{}
		t.LastPublishedAt = nil
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "scores reset", slog.String("tournament_id", t.ID))
	s.notify(t.ID, brackets.MessageScoresReset, map[string]any{"tournament_id": t.ID})
	return nil
}
