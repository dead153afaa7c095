package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/standings-engine/models"
	"github.com/Dosada05/standings-engine/repositories"
	"github.com/Dosada05/standings-engine/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	stale       []int
	computed    map[int]time.Time
	invalidated []int
	saved       map[int]*models.PayoutStructure
}

func newFakeTournamentRepo(ts ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{
		tournaments: map[int]*models.Tournament{},
		computed:    map[int]time.Time{},
		saved:       map[int]*models.PayoutStructure{},
	}
	for _, t := range ts {
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) UpdatePayoutStructure(_ context.Context, _ repositories.SQLExecutor, id int, ps *models.PayoutStructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.PayoutStructure = ps
	r.saved[id] = ps
	return nil
}

func (r *fakeTournamentRepo) MarkStandingsComputed(_ context.Context, _ repositories.SQLExecutor, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.computed[id] = at
	return nil
}

func (r *fakeTournamentRepo) InvalidateStandings(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, id)
	return nil
}

func (r *fakeTournamentRepo) ListStaleStandings(_ context.Context, _ repositories.SQLExecutor, limit int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stale) > limit {
		return append([]int(nil), r.stale[:limit]...), nil
	}
	return append([]int(nil), r.stale...), nil
}

type fakeMatchRepo struct {
	matches map[int][]models.Match
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Match, error) {
	return r.matches[tournamentID], nil
}

type fakeRegistrationRepo struct {
	mu      sync.Mutex
	regs    map[int][]models.Registration
	updated map[int][]models.Registration
	count   int
}

func (r *fakeRegistrationRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Registration(nil), r.regs[tournamentID]...), nil
}

func (r *fakeRegistrationRepo) CountByTournament(_ context.Context, _ repositories.SQLExecutor, _ int) (int, error) {
	return r.count, nil
}

func (r *fakeRegistrationRepo) UpdateDerived(_ context.Context, _ repositories.Preparer, regs []models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updated == nil {
		r.updated = map[int][]models.Registration{}
	}
	for _, reg := range regs {
		r.updated[reg.TournamentID] = append(r.updated[reg.TournamentID], reg)
	}
	return nil
}

type event struct {
	tournamentID int
	eventType    string
	payload      interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *fakeBroadcaster) Publish(tournamentID int, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{tournamentID, eventType, payload})
}

type fakeArchiver struct {
	mu        sync.Mutex
	snaps     []storage.StandingsSnapshot
	removed   []int
	err       error
	removeErr error
}

func (a *fakeArchiver) Archive(_ context.Context, snap storage.StandingsSnapshot) (*storage.UploadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.snaps = append(a.snaps, snap)
	return &storage.UploadResult{Key: storage.SnapshotKey(snap.TournamentID)}, nil
}

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fourPlayerBracket is a completed single elimination: 1 beats 2, 3 beats 4,
// then 1 beats 3 in the final.
func fourPlayerBracket(tournamentID int) []models.Match {
	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	mk := func(id, round, p1, p2 int) models.Match {
		done := at.Add(time.Duration(id) * time.Minute)
		return models.Match{
			ID: id, TournamentID: tournamentID, Round: round,
			Player1ID: intPtr(p1), Player2ID: intPtr(p2), WinnerID: intPtr(p1),
			Status: models.MatchStatusCompleted, CompletedAt: &done,
		}
	}
	return []models.Match{mk(1, 1, 1, 2), mk(2, 1, 3, 4), mk(3, 2, 1, 3)}
}

func fourRegistrations(tournamentID int) []models.Registration {
	regs := make([]models.Registration, 0, 4)
	for p := 1; p <= 4; p++ {
		regs = append(regs, models.Registration{ID: 100 + p, TournamentID: tournamentID, PlayerID: p})
	}
	return regs
}

func samplePayouts() *models.PayoutStructure {
	return &models.PayoutStructure{
		TotalCollected: dec("120"),
		HouseFee:       dec("20"),
		PotAmount:      dec("100"),
		Payouts: []models.Payout{
			{Place: 1, Amount: dec("60"), Percentage: 60},
			{Place: 2, Amount: dec("30"), Percentage: 30},
			{Place: 3, Amount: dec("10"), Percentage: 10},
		},
	}
}

func (a *fakeArchiver) Remove(_ context.Context, tournamentID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.removeErr != nil {
		return a.removeErr
	}
	a.removed = append(a.removed, tournamentID)
	return nil
}

func (a *fakeArchiver) URL(tournamentID int) string {
	return storage.PublicURL("https://cdn.example.com", storage.SnapshotKey(tournamentID))
}
