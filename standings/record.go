package standings

import (
	"time"

	"github.com/Dosada05/standings-engine/brackets"
	"github.com/Dosada05/standings-engine/models"
)

// record is the format-independent part of a registration's standing.
type record struct {
	played       bool
	won          int
	lost         int
	eliminatedAt *time.Time
	lastLoss     *models.Match
}

// buildRecord scans the completed matches of the player. matches must
// already be restricted to completed matches with a valid winner.
func buildRecord(matches []models.Match, playerID int) record {
	var rec record
	for i := range matches {
		m := &matches[i]
		if !m.Involves(playerID) {
			continue
		}
		rec.played = true
		if *m.WinnerID == playerID {
			rec.won++
		} else {
			rec.lost++
		}
	}
	rec.lastLoss = brackets.LastLoss(matches, playerID)
	if rec.lastLoss != nil && rec.lastLoss.CompletedAt != nil {
		at := *rec.lastLoss.CompletedAt
		rec.eliminatedAt = &at
	}
	return rec
}
