package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/standings-engine/models"
)

const snapshotContentType = "application/json"

var ErrNoObjectStore = errors.New("standings archive has no object store")

// StandingsSnapshot is the document written after every authoritative recompute.
type StandingsSnapshot struct {
	TournamentID    int                     `json:"tournament_id"`
	ComputedAt      time.Time               `json:"computed_at"`
	Registrations   []models.Registration   `json:"registrations"`
	PayoutStructure *models.PayoutStructure `json:"payout_structure,omitempty"`
	Warnings        []string                `json:"warnings,omitempty"`
}

func SnapshotKey(tournamentID int) string {
	return fmt.Sprintf("standings/tournament-%d.json", tournamentID)
}

type StandingsArchive struct {
	store ObjectStore
}

func NewStandingsArchive(store ObjectStore) *StandingsArchive {
	return &StandingsArchive{store: store}
}

// Archive overwrites the tournament's snapshot object.
func (a *StandingsArchive) Archive(ctx context.Context, snap StandingsSnapshot) (*UploadResult, error) {
	if a == nil || a.store == nil {
		return nil, ErrNoObjectStore
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode standings snapshot for tournament %d: %w", snap.TournamentID, err)
	}
	return a.store.Upload(ctx, SnapshotKey(snap.TournamentID), snapshotContentType, bytes.NewReader(body))
}

func (a *StandingsArchive) Remove(ctx context.Context, tournamentID int) error {
	if a == nil || a.store == nil {
		return ErrNoObjectStore
	}
	return a.store.Delete(ctx, SnapshotKey(tournamentID))
}

func (a *StandingsArchive) URL(tournamentID int) string {
	if a == nil || a.store == nil {
		return ""
	}
	return a.store.GetPublicURL(SnapshotKey(tournamentID))
}
