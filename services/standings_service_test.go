package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/standings-engine/live"
	"github.com/Dosada05/standings-engine/models"
)

type standingsFixture struct {
	tournaments *fakeTournamentRepo
	matches     *fakeMatchRepo
	regs        *fakeRegistrationRepo
	hub         *fakeBroadcaster
	archiver    *fakeArchiver
	expect      sqlmock.Sqlmock
}

func newStandingsFixture(ts ...*models.Tournament) *standingsFixture {
	f := &standingsFixture{
		tournaments: newFakeTournamentRepo(ts...),
		matches:     &fakeMatchRepo{matches: map[int][]models.Match{}},
		regs:        &fakeRegistrationRepo{regs: map[int][]models.Registration{}},
		hub:         &fakeBroadcaster{},
		archiver:    &fakeArchiver{},
	}
	for _, t := range ts {
		f.matches.matches[t.ID] = fourPlayerBracket(t.ID)
		f.regs.regs[t.ID] = fourRegistrations(t.ID)
	}
	return f
}

func (f *standingsFixture) service(t *testing.T, cfg StandingsServiceConfig) (*standingsService, func() error) {
	db, mock := newMockDB(t)
	svc := NewStandingsService(db, f.tournaments, f.matches, f.regs, f.hub, f.archiver, discardLogger(), cfg).(*standingsService)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	f.expect = mock
	return svc, mock.ExpectationsWereMet
}

func completed(id int) *models.Tournament {
	return &models.Tournament{
		ID: id, Name: "Cup", Format: models.FormatSingleElimination,
		Status: models.StatusCompleted, PayoutStructure: samplePayouts(),
	}
}

func TestRecomputePersistsAndBroadcasts(t *testing.T) {
	f := newStandingsFixture(completed(7))
	svc, met := f.service(t, StandingsServiceConfig{})
	f.expect.ExpectBegin()
	f.expect.ExpectCommit()

	report, err := svc.Recompute(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, met())

	assert.Equal(t, 7, report.TournamentID)
	assert.Equal(t, 4, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, svc.now().UTC(), f.tournaments.computed[7])

	saved := f.regs.updated[7]
	require.Len(t, saved, 4)
	positions := map[int]int{}
	for _, r := range saved {
		require.NotNil(t, r.Position, "player %d", r.PlayerID)
		positions[r.PlayerID] = *r.Position
	}
	assert.Equal(t, map[int]int{1: 1, 2: 3, 3: 2, 4: 3}, positions)
	assert.True(t, saved[0].Winnings.Decimal.Equal(dec("60")))
	assert.True(t, saved[1].Winnings.Decimal.Equal(dec("10")))
	assert.True(t, saved[3].Winnings.Decimal.Equal(dec("10")))

	require.Len(t, f.hub.events, 1)
	assert.Equal(t, live.EventStandingsUpdated, f.hub.events[0].eventType)
	view, ok := f.hub.events[0].payload.(*StandingsView)
	require.True(t, ok)
	assert.Equal(t, "authoritative", view.Mode)

	require.Len(t, f.archiver.snaps, 1)
	assert.Equal(t, 7, f.archiver.snaps[0].TournamentID)
	assert.NotNil(t, f.archiver.snaps[0].PayoutStructure)
	assert.Equal(t, "https://cdn.example.com/standings/tournament-7.json", report.ArchiveURL)
	assert.Equal(t, report.ArchiveURL, view.ArchiveURL)
}

func TestRecomputeRejectsUnfinishedTournament(t *testing.T) {
	running := completed(8)
	running.Status = models.StatusInProgress
	f := newStandingsFixture(running)
	svc, met := f.service(t, StandingsServiceConfig{})
	f.expect.ExpectBegin()
	f.expect.ExpectRollback()

	_, err := svc.Recompute(context.Background(), 8)
	assert.ErrorIs(t, err, ErrTournamentNotCompleted)
	require.NoError(t, met())
	assert.Empty(t, f.regs.updated)
	assert.Empty(t, f.hub.events)
	assert.Empty(t, f.archiver.snaps)
}

func TestRecomputeUnknownTournament(t *testing.T) {
	f := newStandingsFixture()
	svc, met := f.service(t, StandingsServiceConfig{})
	f.expect.ExpectBegin()
	f.expect.ExpectRollback()

	_, err := svc.Recompute(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	require.NoError(t, met())
}

func TestRecomputeArchiveFailureIsNotFatal(t *testing.T) {
	f := newStandingsFixture(completed(7))
	f.archiver.err = errors.New("r2 down")
	svc, met := f.service(t, StandingsServiceConfig{})
	f.expect.ExpectBegin()
	f.expect.ExpectCommit()

	report, err := svc.Recompute(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, met())
	assert.Len(t, f.hub.events, 1)
	assert.Empty(t, report.ArchiveURL)
}

func TestRecomputeReportsInconsistencies(t *testing.T) {
	f := newStandingsFixture(completed(7))
	// player 5 won an early match against a guest and then vanished from the bracket
	f.regs.regs[7] = append(f.regs.regs[7], models.Registration{ID: 105, TournamentID: 7, PlayerID: 5})
	f.matches.matches[7] = append(f.matches.matches[7], models.Match{
		ID: 9, TournamentID: 7, Round: 1, BracketPosition: 2,
		Player1ID: intPtr(5), Player2ID: intPtr(99), WinnerID: intPtr(5),
		Status: models.MatchStatusCompleted,
	})
	svc, met := f.service(t, StandingsServiceConfig{})
	f.expect.ExpectBegin()
	f.expect.ExpectCommit()

	report, err := svc.Recompute(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, met())
	assert.Equal(t, 5, report.Updated)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "105")

	saved := f.regs.updated[7]
	require.Len(t, saved, 5)
	assert.Nil(t, saved[4].Position)
	assert.False(t, saved[4].Winnings.Valid)
	assert.Equal(t, 1, saved[4].MatchesWon)
}

func TestEstimateDoesNotWrite(t *testing.T) {
	running := completed(9)
	running.Status = models.StatusInProgress
	f := newStandingsFixture(running)
	// the final has not been played yet
	f.matches.matches[9] = f.matches.matches[9][:2]
	svc, met := f.service(t, StandingsServiceConfig{})

	view, err := svc.Estimate(context.Background(), 9)
	require.NoError(t, err)
	require.NoError(t, met())

	assert.Equal(t, "estimate", view.Mode)
	assert.Equal(t, models.StatusInProgress, view.Status)
	require.Len(t, view.Registrations, 4)
	assert.Nil(t, view.Registrations[0].Position)
	assert.Equal(t, 1, view.Registrations[0].MatchesWon)
	require.NotNil(t, view.Registrations[1].Position)
	assert.Empty(t, f.regs.updated)
	assert.Empty(t, f.tournaments.computed)
	assert.Empty(t, f.hub.events)
}

func TestEstimateLinksCurrentSnapshot(t *testing.T) {
	stale := completed(7)
	fresh := completed(8)
	computedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	fresh.StandingsComputedAt = &computedAt
	f := newStandingsFixture(stale, fresh)
	svc, _ := f.service(t, StandingsServiceConfig{})

	view, err := svc.Estimate(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, view.ArchiveURL)

	view, err = svc.Estimate(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/standings/tournament-8.json", view.ArchiveURL)
}

func TestEstimateUnknownTournament(t *testing.T) {
	f := newStandingsFixture()
	svc, _ := f.service(t, StandingsServiceConfig{})

	_, err := svc.Estimate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRecomputeStaleContinuesPastFailures(t *testing.T) {
	broken := completed(2)
	broken.Status = models.StatusInProgress
	f := newStandingsFixture(completed(1), broken, completed(3))
	f.tournaments.stale = []int{1, 2, 3}
	svc, met := f.service(t, StandingsServiceConfig{SweepConcurrency: 1, SweepBatchSize: 10})

	f.expect.ExpectBegin()
	f.expect.ExpectCommit()
	f.expect.ExpectBegin()
	f.expect.ExpectRollback()
	f.expect.ExpectBegin()
	f.expect.ExpectCommit()

	report, err := svc.RecomputeStale(context.Background())
	require.NoError(t, err)
	require.NoError(t, met())
	assert.Equal(t, SweepReport{Attempted: 3, Recomputed: 2, Failed: 1}, *report)
	assert.Contains(t, f.tournaments.computed, 1)
	assert.Contains(t, f.tournaments.computed, 3)
	assert.NotContains(t, f.tournaments.computed, 2)
}

func TestRecomputeStaleRespectsBatchSize(t *testing.T) {
	f := newStandingsFixture(completed(1), completed(2))
	f.tournaments.stale = []int{1, 2}
	svc, met := f.service(t, StandingsServiceConfig{SweepConcurrency: 1, SweepBatchSize: 1})
	f.expect.ExpectBegin()
	f.expect.ExpectCommit()

	report, err := svc.RecomputeStale(context.Background())
	require.NoError(t, err)
	require.NoError(t, met())
	assert.Equal(t, 1, report.Attempted)
}

func TestRecomputeStaleNothingToDo(t *testing.T) {
	f := newStandingsFixture()
	svc, _ := f.service(t, StandingsServiceConfig{})

	report, err := svc.RecomputeStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{}, *report)
}

func TestNewStandingsServiceDefaults(t *testing.T) {
	svc := NewStandingsService(nil, nil, nil, nil, nil, nil, nil, StandingsServiceConfig{}).(*standingsService)
	assert.Equal(t, defaultSweepConcurrency, svc.cfg.SweepConcurrency)
	assert.Equal(t, defaultSweepBatchSize, svc.cfg.SweepBatchSize)
	assert.NotNil(t, svc.logger)
}
