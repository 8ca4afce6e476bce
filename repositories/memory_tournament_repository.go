package repositories

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Dosada05/royale-tournaments/models"
)

type memoryTournamentRepository struct {
	mu          sync.RWMutex
	tournaments map[string]*models.Tournament
}

// NewMemoryTournamentRepository returns a process-local store used for tests and
// single-node demos. It keeps the same versioning rules as the database stores.
func NewMemoryTournamentRepository() TournamentRepository {
	return &memoryTournamentRepository{tournaments: make(map[string]*models.Tournament)}
}

func (r *memoryTournamentRepository) Create(_ context.Context, t *models.Tournament) error {
	stored, err := cloneTournament(t)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tournaments[t.ID]; exists {
		return ErrTournamentIDConflict
	}
	r.tournaments[t.ID] = stored
	return nil
}

func (r *memoryTournamentRepository) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return cloneTournament(t)
}

func (r *memoryTournamentRepository) List(_ context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		matched = append(matched, t)
	}
	slices.SortFunc(matched, func(a, b *models.Tournament) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if filter.Offset > 0 {
		matched = matched[min(filter.Offset, len(matched)):]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]models.Tournament, 0, len(matched))
	for _, t := range matched {
		c, err := cloneTournament(t)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *memoryTournamentRepository) Update(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	if current.Version != t.Version {
		return fmt.Errorf("%w: stored version %d, expected %d", ErrVersionConflict, current.Version, t.Version)
	}

	next, err := cloneTournament(t)
	if err != nil {
		return err
	}
	next.Version = t.Version + 1
	r.tournaments[t.ID] = next
	t.Version = next.Version
	return nil
}

func (r *memoryTournamentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *memoryTournamentRepository) ListDueForPublish(_ context.Context, now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*models.Tournament
	for _, t := range r.tournaments {
		if t.ScheduledPublishAt == nil || t.ScheduledPublishAt.After(now) {
			continue
		}
		if t.Status == models.StatusRegistration {
			continue
		}
		due = append(due, t)
	}
	slices.SortFunc(due, func(a, b *models.Tournament) int {
		return a.ScheduledPublishAt.Compare(*b.ScheduledPublishAt)
	})

	ids := make([]string, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	return ids, nil
}
