package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/royale-tournaments/models"
	"github.com/Dosada05/royale-tournaments/repositories"
	"github.com/Dosada05/royale-tournaments/storage"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyTournament(_, messageType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, messageType)
}

func (n *recordingNotifier) count(messageType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.messages {
		if m == messageType {
			c++
		}
	}
	return c
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[key] = body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}

type fixture struct {
	svc      TournamentService
	repo     repositories.TournamentRepository
	clock    *fakeClock
	notifier *recordingNotifier
	uploader *memoryUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, repositories.NewMemoryTournamentRepository())
}

func newFixtureWithRepo(t *testing.T, repo repositories.TournamentRepository) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repo,
		clock:    &fakeClock{now: baseTime},
		notifier: &recordingNotifier{},
		uploader: &memoryUploader{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewTournamentService(repo, f.notifier, f.uploader, logger,
		WithClock(f.clock.Now),
		WithRandSource(func() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }),
	)
	return f
}

func (f *fixture) create(t *testing.T, input CreateTournamentInput) *models.Tournament {
	t.Helper()
	if input.Name == "" {
		input.Name = "Spring Cup"
	}
	if input.Mode == "" {
		input.Mode = models.ModeSquad
	}
	if input.NumberOfGames == 0 {
		input.NumberOfGames = 2
	}
	tour, err := f.svc.CreateTournament(context.Background(), "organizer-1", input)
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	return tour
}

func (f *fixture) register(t *testing.T, tournamentID string, teams ...string) {
	t.Helper()
	for _, team := range teams {
		if _, err := f.svc.RegisterTeam(context.Background(), tournamentID, RegisterTeamInput{TeamID: team, TeamName: "Team " + team}); err != nil {
			t.Fatalf("RegisterTeam(%s): %v", team, err)
		}
	}
}

func (f *fixture) get(t *testing.T, id string) *models.Tournament {
	t.Helper()
	tour, err := f.svc.GetTournament(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTournament: %v", err)
	}
	return tour
}

func teamNames(n int) []string {
	teams := make([]string, n)
	for i := range teams {
		teams[i] = fmt.Sprintf("team-%02d", i+1)
	}
	return teams
}

// finishInOrder gives teams[i] placement i+1 and a few kills.
func finishInOrder(teams []string) []ResultInput {
	results := make([]ResultInput, len(teams))
	for i, team := range teams {
		results[i] = ResultInput{TeamID: team, Placement: i + 1, Kills: i % 3}
	}
	return results
}
