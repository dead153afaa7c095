package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/standings-engine/live"
	"github.com/Dosada05/standings-engine/models"
	"github.com/Dosada05/standings-engine/repositories"
	"github.com/Dosada05/standings-engine/standings"
	"github.com/Dosada05/standings-engine/storage"
)

const (
	defaultSweepConcurrency = 4
	defaultSweepBatchSize   = 50
)

// StandingsArchiver stores a copy of freshly computed standings.
type StandingsArchiver interface {
	Archive(ctx context.Context, snap storage.StandingsSnapshot) (*storage.UploadResult, error)
	// Remove deletes the snapshot once it no longer matches the database.
	Remove(ctx context.Context, tournamentID int) error
	URL(tournamentID int) string
}

type RecomputeReport struct {
	TournamentID int       `json:"tournament_id"`
	Updated      int       `json:"updated"`
	Skipped      int       `json:"skipped"`
	Warnings     []string  `json:"warnings,omitempty"`
	ComputedAt   time.Time `json:"computed_at"`
	ArchiveURL   string    `json:"archive_url,omitempty"`
}

type StandingsView struct {
	TournamentID  int                     `json:"tournament_id"`
	Status        models.TournamentStatus `json:"status"`
	Mode          string                  `json:"mode"`
	Registrations []models.Registration   `json:"registrations"`
	Skipped       int                     `json:"skipped"`
	Warnings      []string                `json:"warnings,omitempty"`
	// ArchiveURL points at the last authoritative snapshot, when one is current.
	ArchiveURL string `json:"archive_url,omitempty"`
}

type SweepReport struct {
	Attempted  int `json:"attempted"`
	Recomputed int `json:"recomputed"`
	Failed     int `json:"failed"`
}

type StandingsService interface {
	// Recompute derives and persists final standings of a completed tournament.
	Recompute(ctx context.Context, tournamentID int) (*RecomputeReport, error)
	// Estimate computes provisional standings without writing anything.
	Estimate(ctx context.Context, tournamentID int) (*StandingsView, error)
	// RecomputeStale recomputes completed tournaments whose standings are
	// missing or older than their completion.
	RecomputeStale(ctx context.Context) (*SweepReport, error)
}

type StandingsServiceConfig struct {
	SweepConcurrency int
	SweepBatchSize   int
}

type standingsService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	matchRepo        repositories.MatchRepository
	registrationRepo repositories.RegistrationRepository
	broadcaster      live.Broadcaster
	archiver         StandingsArchiver
	logger           *slog.Logger
	cfg              StandingsServiceConfig
	now              func() time.Time
}

// NewStandingsService wires the standings flows. broadcaster and archiver may be nil.
func NewStandingsService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	registrationRepo repositories.RegistrationRepository,
	broadcaster live.Broadcaster,
	archiver StandingsArchiver,
	logger *slog.Logger,
	cfg StandingsServiceConfig,
) StandingsService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = defaultSweepConcurrency
	}
	if cfg.SweepBatchSize < 1 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}
	return &standingsService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		matchRepo:        matchRepo,
		registrationRepo: registrationRepo,
		broadcaster:      broadcaster,
		archiver:         archiver,
		logger:           logger.With("service", "standings"),
		cfg:              cfg,
		now:              time.Now,
	}
}

type snapshot struct {
	tournament    *models.Tournament
	matches       []models.Match
	registrations []models.Registration
}

// loadSnapshot reads sequentially through exec, or in parallel from the pool
// when exec is nil.
func (s *standingsService) loadSnapshot(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*snapshot, error) {
	t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, tournamentID)
	}
	snap := &snapshot{tournament: t}

	if exec != nil {
		if snap.matches, err = s.matchRepo.ListByTournament(ctx, exec, tournamentID); err != nil {
			return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
		}
		if snap.registrations, err = s.registrationRepo.ListByTournament(ctx, exec, tournamentID); err != nil {
			return nil, fmt.Errorf("failed to list registrations of tournament %d: %w", tournamentID, err)
		}
		return snap, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
		}
		snap.matches = matches
		return nil
	})
	g.Go(func() error {
		regs, err := s.registrationRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list registrations of tournament %d: %w", tournamentID, err)
		}
		snap.registrations = regs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *standingsService) Recompute(ctx context.Context, tournamentID int) (*RecomputeReport, error) {
	var (
		snap   *snapshot
		result *standings.Result
	)
	computedAt := s.now().UTC()

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		snap, err = s.loadSnapshot(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		result, err = standings.Compute(snap.tournament, snap.matches, snap.registrations, standings.Authoritative)
		if err != nil {
			return err
		}
		if err := s.registrationRepo.UpdateDerived(ctx, tx, result.Registrations); err != nil {
			return handleRepositoryError(err, tournamentID)
		}
		if err := s.tournamentRepo.MarkStandingsComputed(ctx, tx, tournamentID, computedAt); err != nil {
			return handleRepositoryError(err, tournamentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logWarnings(tournamentID, result.Warnings)
	report := &RecomputeReport{
		TournamentID: tournamentID,
		Updated:      len(result.Registrations) - result.Skipped,
		Skipped:      result.Skipped,
		Warnings:     warningStrings(result.Warnings),
		ComputedAt:   computedAt,
	}
	s.logger.Info("standings recomputed",
		"tournament_id", tournamentID,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"warnings", len(report.Warnings))

	view := &StandingsView{
		TournamentID:  tournamentID,
		Status:        snap.tournament.Status,
		Mode:          standings.Authoritative.String(),
		Registrations: result.Registrations,
		Skipped:       result.Skipped,
		Warnings:      report.Warnings,
	}
	report.ArchiveURL = s.archive(ctx, snap.tournament, result, report)
	view.ArchiveURL = report.ArchiveURL
	if s.broadcaster != nil {
		s.broadcaster.Publish(tournamentID, live.EventStandingsUpdated, view)
	}

	return report, nil
}

// archive returns the snapshot URL. Failures are logged only; the database
// is the source of truth.
func (s *standingsService) archive(ctx context.Context, t *models.Tournament, result *standings.Result, report *RecomputeReport) string {
	if s.archiver == nil {
		return ""
	}
	res, err := s.archiver.Archive(ctx, storage.StandingsSnapshot{
		TournamentID:    t.ID,
		ComputedAt:      report.ComputedAt,
		Registrations:   result.Registrations,
		PayoutStructure: t.PayoutStructure,
		Warnings:        report.Warnings,
	})
	if err != nil {
		s.logger.Error("failed to archive standings", "tournament_id", t.ID, "error", err)
		return ""
	}
	s.logger.Debug("standings archived", "tournament_id", t.ID, "key", res.Key)
	return s.archiver.URL(t.ID)
}

func (s *standingsService) logWarnings(tournamentID int, warnings []error) {
	for _, w := range warnings {
		var inc *standings.InconsistencyError
		if errors.As(w, &inc) {
			s.logger.Warn("bracket inconsistency",
				"tournament_id", tournamentID,
				"registration_id", inc.RegistrationID,
				"player_id", inc.PlayerID,
				"match_id", inc.MatchID,
				"reason", inc.Reason)
			continue
		}
		s.logger.Warn("standings warning", "tournament_id", tournamentID, "warning", w.Error())
	}
}

func (s *standingsService) Estimate(ctx context.Context, tournamentID int) (*StandingsView, error) {
	snap, err := s.loadSnapshot(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	result, err := standings.Compute(snap.tournament, snap.matches, snap.registrations, standings.Estimate)
	if err != nil {
		return nil, err
	}
	view := &StandingsView{
		TournamentID:  tournamentID,
		Status:        snap.tournament.Status,
		Mode:          standings.Estimate.String(),
		Registrations: result.Registrations,
		Skipped:       result.Skipped,
		Warnings:      warningStrings(result.Warnings),
	}
	if s.archiver != nil && snap.tournament.StandingsComputedAt != nil {
		view.ArchiveURL = s.archiver.URL(tournamentID)
	}
	return view, nil
}

func (s *standingsService) RecomputeStale(ctx context.Context) (*SweepReport, error) {
	ids, err := s.tournamentRepo.ListStaleStandings(ctx, nil, s.cfg.SweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments with stale standings: %w", err)
	}
	report := &SweepReport{Attempted: len(ids)}
	if len(ids) == 0 {
		return report, nil
	}

	// One tournament failing must not cancel the others, so no shared context.
	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	g.SetLimit(s.cfg.SweepConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if _, err := s.Recompute(ctx, id); err != nil {
				failed.Add(1)
				s.logger.Error("stale standings recompute failed", "tournament_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Failed = int(failed.Load())
	report.Recomputed = report.Attempted - report.Failed
	s.logger.Info("stale standings sweep finished",
		"attempted", report.Attempted,
		"recomputed", report.Recomputed,
		"failed", report.Failed)
	return report, ctx.Err()
}
