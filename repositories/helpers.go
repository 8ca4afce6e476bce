package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/royale-tournaments/models"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// cloneTournament deep-copies t through its JSON form, the same encoding the SQL store uses.
func cloneTournament(t *models.Tournament) (*models.Tournament, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tournament %s: %w", t.ID, err)
	}
	out := &models.Tournament{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTournamentDocumentBad, err)
	}
	return out, nil
}
