package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/Dosada05/royale-tournaments/repositories"
	"github.com/Dosada05/royale-tournaments/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Notifier delivers live updates to clients watching a tournament.
type Notifier interface {
	NotifyTournament(tournamentID, messageType string, payload any)
}

// Actor is the authenticated caller as seen by the engine. Authorization happens
// before the service is called; the service only receives its verdict.
type Actor struct {
	UserID        string
	CanActForTeam bool
}

type CreateTournamentInput struct {
	Name              string                   `json:"name"`
	Description       *string                  `json:"description,omitempty"`
	Mode              models.GameMode          `json:"mode"`
	MaxTeamsPerLobby  int                      `json:"max_teams_per_lobby"`
	MaxTeams          int                      `json:"max_teams"`
	NumberOfGames     int                      `json:"number_of_games"`
	PointsSystem      *models.PointsSystem     `json:"points_system,omitempty"`
	HasQualifiers     bool                     `json:"has_qualifiers"`
	QualifierSettings models.QualifierSettings `json:"qualifier_settings"`
	CheckIn           *models.CheckInWindow    `json:"check_in,omitempty"`
	Prizes            map[int]float64          `json:"prizes,omitempty"`
}

type RegisterTeamInput struct {
	TeamID   string   `json:"team_id"`
	TeamName string   `json:"team_name"`
	Roster   []string `json:"roster,omitempty"`
}

// ResultInput is one team's finish as entered by the organizer.
type ResultInput struct {
	TeamID    string `json:"team_id"`
	Placement int    `json:"placement"`
	Kills     int    `json:"kills"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID string, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	DeleteTournament(ctx context.Context, id string) error
	GetPublicStandings(ctx context.Context, id string) (*PublicScoreboard, error)

	RegisterTeam(ctx context.Context, tournamentID string, input RegisterTeamInput) (*models.Registration, error)
	WithdrawTeam(ctx context.Context, tournamentID, teamID string) error
	CheckIn(ctx context.Context, tournamentID, teamID string, actor Actor) (*models.Registration, error)

	GenerateQualifierLobbies(ctx context.Context, tournamentID string) (*models.LobbyPlan, error)
	RecordLobbyGameResult(ctx context.Context, tournamentID, lobbyID, gameID string, results []ResultInput) ([]models.Standing, error)
	ProcessQualifications(ctx context.Context, tournamentID string, lobbyOrder int) (*QualificationSummary, error)

	RecordFinalsGameResult(ctx context.Context, tournamentID string, gameNumber int, results []ResultInput) (*FinalsUpdate, error)
	PublishScores(ctx context.Context, tournamentID string) (*PublishResult, error)
	SchedulePublish(ctx context.Context, tournamentID string, at *time.Time) (*models.Tournament, error)
	PublishDue(ctx context.Context, now time.Time) (int, error)
	ResetScores(ctx context.Context, tournamentID string) error

	Lock(ctx context.Context, tournamentID string) (*models.Tournament, error)
	Unlock(ctx context.Context, tournamentID string) (*models.Tournament, error)
}

// Option tweaks a tournament service; used mainly by tests.
type Option func(*tournamentService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *tournamentService) { s.now = now }
}

// WithRandSource makes lobby shuffles reproducible.
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(s *tournamentService) { s.newRand = newRand }
}

type tournamentService struct {
	repo     repositories.TournamentRepository
	notifier Notifier
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
	newRand  func() *rand.Rand

	locksMu sync.Mutex
	locks   map[string]*semaphore.Weighted
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	notifier Notifier,
	uploader storage.FileUploader,
	logger *slog.Logger,
	opts ...Option,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &tournamentService{
		repo:     repo,
		notifier: notifier,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano())))
		},
		locks: make(map[string]*semaphore.Weighted),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *tournamentService) lockFor(id string) *semaphore.Weighted {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	sem, ok := s.locks[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.locks[id] = sem
	}
	return sem
}

func (s *tournamentService) load(ctx context.Context, op, id string) (*models.Tournament, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fail(op, ErrTournamentNotFound, map[string]any{"tournament_id": id})
		}
		return nil, fmt.Errorf("%s: failed to load tournament %s: %w", op, id, err)
	}
	return t, nil
}

// mutate runs one read-modify-write of the aggregate. Writers of the same tournament are
// serialized in-process and the store rejects stale versions written by other processes.
// fn works on a private copy, so a failing fn leaves nothing behind.
func (s *tournamentService) mutate(ctx context.Context, op, id string, fn func(t *models.Tournament) error) (*models.Tournament, error) {
	sem := s.lockFor(id)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer sem.Release(1)

	t, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, repositories.ErrVersionConflict):
			return nil, fail(op, ErrConcurrentModification, map[string]any{"tournament_id": id})
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, fail(op, ErrTournamentNotFound, map[string]any{"tournament_id": id})
		}
		return nil, fmt.Errorf("%s: failed to save tournament %s: %w", op, id, err)
	}
	return t, nil
}

func (s *tournamentService) notify(tournamentID, messageType string, payload any) {
	if s.notifier != nil {
		s.notifier.NotifyTournament(tournamentID, messageType, payload)
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID string, input CreateTournamentInput) (*models.Tournament, error) {
	const op = "CreateTournament"

	problems := map[string]string{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		problems["name"] = "must not be empty"
	}
	if organizerID == "" {
		problems["organizer_id"] = "must not be empty"
	}

	capacity := input.MaxTeamsPerLobby
	if capacity == 0 {
		capacity = input.Mode.DefaultLobbyCapacity()
	}
	if input.Mode != "" && input.Mode.DefaultLobbyCapacity() == 0 {
		problems["mode"] = "must be one of solo, duo, trio, squad"
	}
	if capacity < 2 {
		problems["max_teams_per_lobby"] = "must be at least 2"
	}
	if input.NumberOfGames < 1 {
		problems["number_of_games"] = "must be at least 1"
	}

	points := models.DefaultPointsSystem()
	if input.PointsSystem != nil {
		points = *input.PointsSystem
		if len(points.Placement) == 0 {
			problems["points_system.placement"] = "must not be empty"
		}
		for placement, value := range points.Placement {
			if placement < 1 || value < 0 {
				problems["points_system.placement"] = "placements start at 1 and points are non-negative"
				break
			}
		}
		if points.KillPoints < 0 {
			problems["points_system.kill_points"] = "must not be negative"
		}
	}

	maxTeams := input.MaxTeams
	settings := input.QualifierSettings
	if input.HasQualifiers {
		if settings.Groups != nil && *settings.Groups < 1 {
			problems["qualifier_settings.groups"] = "must be at least 1"
		}
		if settings.QualifiersPerGroup != nil && *settings.QualifiersPerGroup < 1 {
			problems["qualifier_settings.qualifiers_per_group"] = "must be at least 1"
		}
		if settings.GamesPerGroup == 0 {
			settings.GamesPerGroup = input.NumberOfGames
		}
		if settings.GamesPerGroup < 1 {
			problems["qualifier_settings.games_per_group"] = "must be at least 1"
		}
		if maxTeams < 0 {
			problems["max_teams"] = "must not be negative"
		}
	} else {
		settings = models.QualifierSettings{}
		if maxTeams == 0 {
			maxTeams = capacity
		}
		if maxTeams < 1 || maxTeams > capacity {
			problems["max_teams"] = "without qualifiers all teams must fit in one lobby"
		}
	}

	var checkIn models.CheckInWindow
	if input.CheckIn != nil && input.CheckIn.Enabled {
		checkIn = *input.CheckIn
		if !checkIn.ClosesAt.After(checkIn.OpensAt) {
			problems["check_in"] = "closes_at must be after opens_at"
		}
	}
	for rank, amount := range input.Prizes {
		if rank < 1 || amount < 0 {
			problems["prizes"] = "ranks start at 1 and amounts are non-negative"
			break
		}
	}

	if len(problems) > 0 {
		return nil, fail(op, ErrInvalidInput, map[string]any{"fields": problems})
	}

	now := s.now()
	t := &models.Tournament{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       input.Description,
		OrganizerID:       organizerID,
		Mode:              input.Mode,
		Status:            models.StatusRegistration,
		MaxTeamsPerLobby:  capacity,
		MaxTeams:          maxTeams,
		NumberOfGames:     input.NumberOfGames,
		PointsSystem:      points,
		HasQualifiers:     input.HasQualifiers,
		QualifierSettings: settings,
		CheckIn:           checkIn,
		Prizes:            input.Prizes,
		RegisteredTeams:   []models.Registration{},
		QualifierGroups:   []models.Lobby{},
		QualifiedTeams:    []string{},
		Games:             []models.Game{},
		PublishedGames:    []int{},
		Standings:         []models.Standing{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("%s: failed to store tournament: %w", op, err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("organizer_id", organizerID),
		slog.Bool("has_qualifiers", t.HasQualifiers),
	)
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	return s.load(ctx, "GetTournament", id)
}

// DeleteTournament removes a tournament that is still open for registration.
func (s *tournamentService) DeleteTournament(ctx context.Context, id string) error {
	const op = "DeleteTournament"
	sem := s.lockFor(id)
	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer sem.Release(1)

	t, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if err := requirePhase(op, t, models.StatusRegistration); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return fail(op, ErrTournamentNotFound, map[string]any{"tournament_id": id})
		}
		return fmt.Errorf("%s: failed to delete tournament %s: %w", op, id, err)
	}

	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()

	s.logger.InfoContext(ctx, "tournament deleted",
		slog.String("tournament_id", id),
		slog.Int("registered_teams", len(t.RegisteredTeams)),
	)
	s.notify(id, brackets.MessageTournamentDeleted, nil)
	return nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fail("ListTournaments", ErrInvalidInput, map[string]any{"status": *filter.Status})
	}
	tournaments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListTournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) RegisterTeam(ctx context.Context, tournamentID string, input RegisterTeamInput) (*models.Registration, error) {
	const op = "RegisterTeam"

	input.TeamID = strings.TrimSpace(input.TeamID)
	if input.TeamID == "" {
		return nil, fail(op, ErrInvalidInput, map[string]any{"fields": map[string]string{"team_id": "must not be empty"}})
	}

	var reg models.Registration
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if t.Status != models.StatusRegistration {
			return fail(op, ErrNotInRegistrationPhase, map[string]any{"current_phase": t.Status})
		}
		if t.LobbiesGenerated() {
			return fail(op, ErrAlreadyGenerated, nil)
		}
		if t.Registration(input.TeamID) != nil {
			return fail(op, ErrAlreadyRegistered, map[string]any{"team_id": input.TeamID})
		}
		if t.MaxTeams > 0 && len(t.RegisteredTeams) >= t.MaxTeams {
			return fail(op, ErrLobbyFull, map[string]any{
				"registered": len(t.RegisteredTeams),
				"max_teams":  t.MaxTeams,
			})
		}
		if size := t.Mode.TeamSize(); size > 0 && len(input.Roster) > size {
			return fail(op, ErrInvalidInput, map[string]any{
				"fields": map[string]string{"roster": fmt.Sprintf("at most %d players in %s mode", size, t.Mode)},
			})
		}

		reg = models.Registration{
			TeamID:       input.TeamID,
			TeamName:     strings.TrimSpace(input.TeamName),
			RegisteredAt: s.now(),
			Roster:       slices.Clone(input.Roster),
		}
		t.RegisteredTeams = append(t.RegisteredTeams, reg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "team registered",
		slog.String("tournament_id", t.ID),
		slog.String("team_id", reg.TeamID),
		slog.Int("registered", len(t.RegisteredTeams)),
	)
	return &reg, nil
}

func (s *tournamentService) WithdrawTeam(ctx context.Context, tournamentID, teamID string) error {
	const op = "WithdrawTeam"
	_, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if t.Status != models.StatusRegistration {
			return fail(op, ErrNotInRegistrationPhase, map[string]any{"current_phase": t.Status})
		}
		if t.LobbiesGenerated() {
			return fail(op, ErrAlreadyGenerated, nil)
		}
		idx := slices.IndexFunc(t.RegisteredTeams, func(r models.Registration) bool { return r.TeamID == teamID })
		if idx < 0 {
			return fail(op, ErrNotRegistered, map[string]any{"team_id": teamID})
		}
		t.RegisteredTeams = slices.Delete(t.RegisteredTeams, idx, idx+1)
		return nil
	})
	return err
}

func (s *tournamentService) CheckIn(ctx context.Context, tournamentID, teamID string, actor Actor) (*models.Registration, error) {
	const op = "CheckIn"
	if !actor.CanActForTeam {
		return nil, fail(op, ErrCannotActForTeam, map[string]any{"team_id": teamID})
	}

	var checked models.Registration
	_, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if !t.CheckIn.Enabled {
			return fail(op, ErrCheckInDisabled, nil)
		}
		now := s.now()
		window := map[string]any{"opens_at": t.CheckIn.OpensAt, "closes_at": t.CheckIn.ClosesAt, "now": now}
		if t.Status != models.StatusRegistration || t.LobbiesGenerated() {
			window["current_phase"] = t.Status
			return fail(op, ErrCheckInClosed, window)
		}
		if now.Before(t.CheckIn.OpensAt) {
			return fail(op, ErrCheckInNotOpen, window)
		}
		if now.After(t.CheckIn.ClosesAt) {
			return fail(op, ErrCheckInClosed, window)
		}

		reg := t.Registration(teamID)
		if reg == nil {
			return fail(op, ErrNotRegistered, map[string]any{"team_id": teamID})
		}
		if reg.CheckedIn {
			return fail(op, ErrAlreadyCheckedIn, map[string]any{"team_id": teamID, "checked_in_at": reg.CheckedInAt})
		}
		reg.CheckedIn = true
		reg.CheckedInAt = &now
		reg.CheckedInBy = actor.UserID
		checked = *reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &checked, nil
}

func (s *tournamentService) Lock(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	const op = "Lock"
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		switch t.Status {
		case models.StatusCompleted:
			return fail(op, &TransitionError{From: t.Status, To: models.StatusLocked, Err: ErrInvalidStateTransition}, nil)
		case models.StatusLocked, models.StatusOngoing:
			return fail(op, &TransitionError{From: t.Status, To: models.StatusLocked, Err: ErrAlreadyLocked}, nil)
		}

		eligible := t.EligibleTeams()
		if len(eligible) == 0 {
			return fail(op, ErrNoRegisteredTeams, map[string]any{
				"registered":       len(t.RegisteredTeams),
				"check_in_enabled": t.CheckIn.Enabled,
			})
		}
		if t.HasQualifiers && !t.LobbiesGenerated() {
			return fail(op, ErrLobbiesNotGenerated, nil)
		}
		if !t.HasQualifiers {
			t.QualifiedTeams = []string{}
			t.AddQualified(eligible...)
		}
		return transition(t, models.StatusLocked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament locked", slog.String("tournament_id", t.ID), slog.Int("finalists", len(t.QualifiedTeams)))
	s.notify(t.ID, brackets.MessageStatusChanged, map[string]any{"status": t.Status})
	return t, nil
}

func (s *tournamentService) Unlock(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	const op = "Unlock"
	t, err := s.mutate(ctx, op, tournamentID, func(t *models.Tournament) error {
		if t.Status != models.StatusLocked || len(t.Games) > 0 {
			return fail(op, &TransitionError{From: t.Status, To: models.StatusRegistration, Err: ErrInvalidStateTransition}, nil)
		}
		if !t.HasQualifiers {
			t.QualifiedTeams = []string{}
		}
		return transition(t, models.StatusRegistration)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament unlocked", slog.String("tournament_id", t.ID))
	s.notify(t.ID, brackets.MessageStatusChanged, map[string]any{"status": t.Status})
	return t, nil
}
