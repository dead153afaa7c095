package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/standings-engine/live"
	"github.com/Dosada05/standings-engine/models"
	"github.com/Dosada05/standings-engine/payouts"
	"github.com/Dosada05/standings-engine/repositories"
)

type GeneratePayoutInput struct {
	TotalCollected    decimal.Decimal `json:"total_collected"`
	HouseFeePerPlayer decimal.Decimal `json:"house_fee_per_player"`
	// PaidPlayerCount defaults to the number of registrations.
	PaidPlayerCount *int `json:"paid_player_count,omitempty"`
	PayoutPlaces    int  `json:"payout_places"`
}

type SaveManualPayoutInput struct {
	TotalCollected    decimal.Decimal       `json:"total_collected"`
	HouseFeePerPlayer decimal.Decimal       `json:"house_fee_per_player"`
	PaidPlayerCount   *int                  `json:"paid_player_count,omitempty"`
	Payouts           []payouts.ManualEntry `json:"payouts"`
}

type PayoutService interface {
	Get(ctx context.Context, tournamentID int) (*models.PayoutStructure, error)
	Generate(ctx context.Context, tournamentID int, input GeneratePayoutInput) (*models.PayoutStructure, error)
	SaveManual(ctx context.Context, tournamentID int, input SaveManualPayoutInput) (*models.PayoutStructure, error)
	// RemovePlace drops a place and shifts lower places up. The result must
	// still add up to the pot, otherwise nothing is saved, so a paid place can
	// only go when creditTo names the place (numbered before removal) that
	// takes over its amount. creditTo 0 credits nobody.
	RemovePlace(ctx context.Context, tournamentID int, place int, creditTo int) (*models.PayoutStructure, error)
}

type payoutService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	distributor      *payouts.Distributor
	broadcaster      live.Broadcaster
	archiver         StandingsArchiver
	logger           *slog.Logger
}

func NewPayoutService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	distributor *payouts.Distributor,
	broadcaster live.Broadcaster,
	archiver StandingsArchiver,
	logger *slog.Logger,
) PayoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &payoutService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		distributor:      distributor,
		broadcaster:      broadcaster,
		archiver:         archiver,
		logger:           logger.With("service", "payouts"),
	}
}

func (s *payoutService) Get(ctx context.Context, tournamentID int) (*models.PayoutStructure, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, tournamentID)
	}
	if t.PayoutStructure == nil {
		return nil, fmt.Errorf("%w: tournament %d", ErrPayoutsNotConfigured, tournamentID)
	}
	return t.PayoutStructure, nil
}

func (s *payoutService) paidPlayerCount(ctx context.Context, tournamentID int, given *int) (int, error) {
	if given != nil {
		if *given < 0 {
			return 0, fmt.Errorf("%w: paid_player_count must not be negative", ErrValidationFailed)
		}
		return *given, nil
	}
	n, err := s.registrationRepo.CountByTournament(ctx, nil, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations of tournament %d: %w", tournamentID, err)
	}
	return n, nil
}

func (s *payoutService) Generate(ctx context.Context, tournamentID int, input GeneratePayoutInput) (*models.PayoutStructure, error) {
	count, err := s.paidPlayerCount(ctx, tournamentID, input.PaidPlayerCount)
	if err != nil {
		return nil, err
	}
	ps, err := s.distributor.Generate(ctx, payouts.AutomaticInput{
		TotalCollected:    input.TotalCollected,
		HouseFeePerPlayer: input.HouseFeePerPlayer,
		PaidPlayerCount:   count,
		PayoutPlaces:      input.PayoutPlaces,
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, tournamentID, ps); err != nil {
		return nil, err
	}
	s.logger.Info("payouts generated", "tournament_id", tournamentID, "pot", ps.PotAmount.StringFixed(2), "places", ps.PaidPlaces())
	return ps, nil
}

func (s *payoutService) SaveManual(ctx context.Context, tournamentID int, input SaveManualPayoutInput) (*models.PayoutStructure, error) {
	count, err := s.paidPlayerCount(ctx, tournamentID, input.PaidPlayerCount)
	if err != nil {
		return nil, err
	}
	ps, err := payouts.BuildManual(payouts.ManualInput{
		TotalCollected:    input.TotalCollected,
		HouseFeePerPlayer: input.HouseFeePerPlayer,
		PaidPlayerCount:   count,
		Entries:           input.Payouts,
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, tournamentID, ps); err != nil {
		return nil, err
	}
	s.logger.Info("manual payouts saved", "tournament_id", tournamentID, "pot", ps.PotAmount.StringFixed(2), "places", ps.PaidPlaces())
	return ps, nil
}

func (s *payoutService) RemovePlace(ctx context.Context, tournamentID int, place int, creditTo int) (*models.PayoutStructure, error) {
	if creditTo < 0 || creditTo == place {
		return nil, fmt.Errorf("%w: credit_to must name another place, got %d", ErrValidationFailed, creditTo)
	}
	var (
		updated     *models.PayoutStructure
		invalidated bool
	)
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, tournamentID)
		}
		if t.PayoutStructure == nil {
			return fmt.Errorf("%w: tournament %d", ErrPayoutsNotConfigured, tournamentID)
		}
		current := t.PayoutStructure

		remaining, err := payouts.RemovePlace(current.Payouts, place)
		if err != nil {
			return err
		}
		if creditTo > 0 {
			if remaining, err = creditRemovedAmount(current, remaining, place, creditTo); err != nil {
				return err
			}
		}
		validated, err := payouts.ValidateAutomatic(current.PotAmount, len(remaining), remaining)
		if err != nil {
			return err
		}
		updated = &models.PayoutStructure{
			TotalCollected: current.TotalCollected,
			HouseFee:       current.HouseFee,
			PotAmount:      current.PotAmount,
			Payouts:        validated,
		}
		invalidated, err = s.persist(ctx, tx, t, updated)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterSave(ctx, tournamentID, updated, invalidated)
	s.logger.Info("payout place removed", "tournament_id", tournamentID, "place", place, "credit_to", creditTo, "places", updated.PaidPlaces())
	return updated, nil
}

// creditRemovedAmount adds the removed place's amount to creditTo. remaining
// is already renumbered, so places below the removed one moved up by one.
func creditRemovedAmount(current *models.PayoutStructure, remaining []models.Payout, place, creditTo int) ([]models.Payout, error) {
	removed, _ := current.AmountForPlace(place)
	target, ok := current.AmountForPlace(creditTo)
	if !ok {
		return nil, fmt.Errorf("%w: credit_to place %d", ErrPlaceNotFound, creditTo)
	}
	if creditTo > place {
		creditTo--
	}
	return payouts.SetAmount(remaining, creditTo, target.Add(removed))
}

func (s *payoutService) save(ctx context.Context, tournamentID int, ps *models.PayoutStructure) error {
	var invalidated bool
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, tournamentID)
		}
		invalidated, err = s.persist(ctx, tx, t, ps)
		return err
	})
	if err != nil {
		return err
	}
	s.afterSave(ctx, tournamentID, ps, invalidated)
	return nil
}

// persist writes the structure. Winnings of a completed tournament depend on
// it, so its standings are marked stale for the next sweep and invalidated
// reports that.
func (s *payoutService) persist(ctx context.Context, tx *sql.Tx, t *models.Tournament, ps *models.PayoutStructure) (invalidated bool, err error) {
	if err := s.tournamentRepo.UpdatePayoutStructure(ctx, tx, t.ID, ps); err != nil {
		return false, handleRepositoryError(err, t.ID)
	}
	if !t.IsCompleted() {
		return false, nil
	}
	if err := s.tournamentRepo.InvalidateStandings(ctx, tx, t.ID); err != nil {
		return false, handleRepositoryError(err, t.ID)
	}
	return true, nil
}

// afterSave runs once the transaction has committed. The archived snapshot
// carries the old winnings, so it is removed until the sweep rewrites it.
func (s *payoutService) afterSave(ctx context.Context, tournamentID int, ps *models.PayoutStructure, invalidated bool) {
	if invalidated && s.archiver != nil {
		if err := s.archiver.Remove(ctx, tournamentID); err != nil {
			s.logger.Error("failed to remove stale standings snapshot", "tournament_id", tournamentID, "error", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(tournamentID, live.EventPayoutsUpdated, ps)
	}
}
