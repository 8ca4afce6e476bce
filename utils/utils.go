package utils

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// ScoreboardKey builds the object key of a published scoreboard snapshot, e.g.
// "scoreboards/spring-cup-2b9c.../20260301T120000Z.json".
func ScoreboardKey(tournamentName, tournamentID string, publishedAt time.Time) string {
	name := slug.Make(tournamentName)
	if name == "" {
		name = "tournament"
	}
	return fmt.Sprintf("scoreboards/%s-%s/%s.json", name, tournamentID, publishedAt.UTC().Format("20060102T150405Z"))
}

// LatestScoreboardKey is the stable key that always holds the newest snapshot.
func LatestScoreboardKey(tournamentName, tournamentID string) string {
	name := slug.Make(tournamentName)
	if name == "" {
		name = "tournament"
	}
	return fmt.Sprintf("scoreboards/%s-%s/latest.json", name, tournamentID)
}
