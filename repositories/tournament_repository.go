package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Dosada05/royale-tournaments/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentIDConflict   = errors.New("tournament id already exists")
	ErrVersionConflict        = errors.New("tournament was modified concurrently")
	ErrTournamentDocumentBad  = errors.New("stored tournament document is malformed")
	ErrTournamentStoreFailure = errors.New("tournament store failure")
)

type ListTournamentsFilter struct {
	OrganizerID *string
	Status      *models.TournamentStatus
	Limit       int
	Offset      int
}

// TournamentRepository persists the tournament aggregate as a whole.
//
// Update is an optimistic compare-and-swap: it succeeds only when the stored version
// equals t.Version, then stores t with Version incremented (t is updated in place).
type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	Delete(ctx context.Context, id string) error
	ListDueForPublish(ctx context.Context, now time.Time) ([]string, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament %s: %w", t.ID, err)
	}
	query := `
		INSERT INTO tournaments (id, organizer_id, status, scheduled_publish_at, version, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.OrganizerID, t.Status, t.ScheduledPublishAt, t.Version, doc, t.CreatedAt, t.UpdatedAt,
	)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT version, document FROM tournaments WHERE id = $1`

	var (
		version int
		doc     []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&version, &doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return decodeTournament(doc, version)
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT version, document FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var (
			version int
			doc     []byte
		)
		if err := rows.Scan(&version, &doc); err != nil {
			return nil, err
		}
		t, err := decodeTournament(doc, version)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) (err error) {
	next := *t
	next.Version = t.Version + 1
	doc, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to encode tournament %s: %w", t.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("Error during rollback: %v. Original error: %v", rbErr, err)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	var stored int
	err = tx.QueryRowContext(ctx, `SELECT version FROM tournaments WHERE id = $1 FOR UPDATE`, t.ID).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return err
	}
	if stored != t.Version {
		return fmt.Errorf("%w: stored version %d, expected %d", ErrVersionConflict, stored, t.Version)
	}

	query := `
		UPDATE tournaments
		SET status = $1, scheduled_publish_at = $2, version = $3, document = $4, updated_at = $5
		WHERE id = $6 AND version = $7`
	result, err := tx.ExecContext(ctx, query,
		next.Status, next.ScheduledPublishAt, next.Version, doc, next.UpdatedAt, t.ID, t.Version,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	if err = checkAffectedRows(result, ErrVersionConflict); err != nil {
		return err
	}

	t.Version = next.Version
	return nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListDueForPublish(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id FROM tournaments
		WHERE scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= $1
		  AND status <> $2
		ORDER BY scheduled_publish_at`

	rows, err := r.db.QueryContext(ctx, query, now, models.StatusRegistration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrTournamentIDConflict
		case "22P02", "23502":
			return fmt.Errorf("%w: %s", ErrTournamentStoreFailure, pqErr.Message)
		}
	}
	return err
}

func decodeTournament(doc []byte, version int) (*models.Tournament, error) {
	t := &models.Tournament{}
	if err := json.Unmarshal(doc, t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTournamentDocumentBad, err)
	}
	t.Version = version
	return t, nil
}
