package brackets

import "github.com/Dosada05/royale-tournaments/models"

// ComputePoints returns the placement points for placement plus kills*killPointValue.
// Placements missing from the table, including 0, score no placement points.
func ComputePoints(placement, kills int, table map[int]int, killPointValue int) int {
	return table[placement] + kills*killPointValue
}

// ScoreResult fills the derived point fields of r.
func ScoreResult(r *models.Result, ps models.PointsSystem) {
	r.PlacementPoints = ps.Placement[r.Placement]
	r.KillPoints = r.Kills * ps.KillPoints
	r.TotalPoints = ComputePoints(r.Placement, r.Kills, ps.Placement, ps.KillPoints)
}
