package utils

import (
	"testing"
	"time"
)

func TestScoreboardKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 15, 4, 5, 0, time.FixedZone("UTC+3", 3*3600))
	got := ScoreboardKey("Spring Cup: Finals!", "abc", at)
	want := "scoreboards/spring-cup-finals-abc/20260301T120405Z.json"
	if got != want {
		t.Fatalf("ScoreboardKey = %q, want %q", got, want)
	}
	if got := LatestScoreboardKey("", "abc"); got != "scoreboards/tournament-abc/latest.json" {
		t.Fatalf("LatestScoreboardKey = %q", got)
	}
}
