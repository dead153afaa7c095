// Package standings derives final positions, win/loss records and winnings
// for the registrations of a tournament from its match graph.
//
// Compute is a pure function over an in-memory snapshot. It never mutates its
// inputs and returns the same output for the same input, so callers can
// re-run it freely and persist the result as an overwrite.
package standings

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/standings-engine/models"
)

// Mode selects whether the result is the official one or a display estimate.
type Mode int

const (
	// Authoritative recomputes every derived field from the match graph and
	// requires a completed tournament.
	Authoritative Mode = iota
	// Estimate works on a tournament in any state. Registrations that already
	// carry a stored position keep their stored position and winnings.
	Estimate
)

func (m Mode) String() string {
	switch m {
	case Authoritative:
		return "authoritative"
	case Estimate:
		return "estimate"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Result is the outcome of one tournament's recomputation.
type Result struct {
	// Registrations is in the same order as the input.
	Registrations []models.Registration
	// Skipped counts registrations left untouched because they do not belong
	// to the tournament or have no player.
	Skipped int
	// Warnings holds non-fatal *InconsistencyError values.
	Warnings []error
}

// Compute derives standings for every registration of the tournament.
func Compute(t *models.Tournament, matches []models.Match, regs []models.Registration, mode Mode) (*Result, error) {
	if t == nil {
		return nil, ErrNilTournament
	}
	if mode == Authoritative && !t.IsCompleted() {
		return nil, fmt.Errorf("%w: tournament %d has status %q", ErrTournamentNotCompleted, t.ID, t.Status)
	}
	if !t.Format.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, t.Format)
	}

	res := &Result{Registrations: make([]models.Registration, len(regs))}
	strict := t.IsCompleted()

	all, completed, warnings := splitMatches(t.ID, matches, strict)
	res.Warnings = append(res.Warnings, warnings...)

	records := make(map[int]record)
	valid := make([]bool, len(regs))
	totalPlayers := 0
	for i, reg := range regs {
		if reg.TournamentID != t.ID || reg.PlayerID == 0 {
			continue
		}
		valid[i] = true
		totalPlayers++
		if _, seen := records[reg.PlayerID]; seen {
			continue
		}
		if rec := buildRecord(completed, reg.PlayerID); rec.played {
			records[reg.PlayerID] = rec
		}
	}

	p, placerWarnings, err := newPlacer(t.Format, placementInput{
		tournamentID: t.ID,
		all:          all,
		records:      records,
		totalPlayers: totalPlayers,
		strict:       strict,
	})
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, placerWarnings...)

	for i, reg := range regs {
		if !valid[i] {
			res.Registrations[i] = reg
			res.Skipped++
			continue
		}

		out := reg
		out.ResetDerived()

		rec, played := records[reg.PlayerID]
		if played {
			out.MatchesWon = rec.won
			out.MatchesLost = rec.lost
			out.EliminatedAt = rec.eliminatedAt
			// A champion who came through the loser's bracket has a loss but
			// was never eliminated.
			if champ := p.champion(); champ != nil && *champ == reg.PlayerID {
				out.EliminatedAt = nil
			}
		}

		if mode == Estimate && reg.Position != nil {
			pos := *reg.Position
			out.Position = &pos
			out.Winnings = reg.Winnings
			if !out.Winnings.Valid {
				out.Winnings = winningsFor(t.PayoutStructure, pos)
			}
			res.Registrations[i] = out
			continue
		}

		if played {
			pos, reason := p.place(reg.PlayerID, rec)
			switch {
			case reason == "":
				out.Position = &pos
				out.Winnings = winningsFor(t.PayoutStructure, pos)
			case strict:
				res.Warnings = append(res.Warnings, &InconsistencyError{
					TournamentID:   t.ID,
					RegistrationID: reg.ID,
					PlayerID:       reg.PlayerID,
					Reason:         reason,
				})
			}
		}
		res.Registrations[i] = out
	}

	return res, nil
}

// splitMatches keeps only the tournament's matches and separates the
// completed ones that can be scored. A completed match without a valid winner
// is left out of scoring and reported.
func splitMatches(tournamentID int, matches []models.Match, strict bool) (all, completed []models.Match, warnings []error) {
	all = make([]models.Match, 0, len(matches))
	completed = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if m.IsCompleted() && !m.HasValidWinner() {
			warnings = append(warnings, &InconsistencyError{
				TournamentID: tournamentID,
				MatchID:      m.ID,
				Reason:       "completed match has no winner among its players",
			})
			continue
		}
		all = append(all, m)
		if m.IsCompleted() {
			completed = append(completed, m)
		}
	}
	if !strict {
		// An in-progress bracket is expected to be incomplete.
		warnings = nil
	}
	return all, completed, warnings
}

// winningsFor returns the amount paid for position, or null when the
// position is not a paid place.
func winningsFor(ps *models.PayoutStructure, position int) decimal.NullDecimal {
	amount, ok := ps.AmountForPlace(position)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: amount, Valid: true}
}
