package standings

import (
	"fmt"

	"github.com/Dosada05/standings-engine/brackets"
	"github.com/Dosada05/standings-engine/models"
)

// placer turns a player's record into a final position. A non-empty reason
// means the player could not be placed.
type placer interface {
	place(playerID int, rec record) (position int, reason string)
	// champion is the decided winner of the bracket, nil when undecided or
	// when the format has no deciding match.
	champion() *int
}

type placementInput struct {
	tournamentID int
	all          []models.Match // every match of the tournament, used for bracket shape
	records      map[int]record // by player id, only players who played
	totalPlayers int
	strict       bool // report bracket-level problems as warnings
}

func newPlacer(format models.TournamentFormat, in placementInput) (placer, []error, error) {
	switch format {
	case models.FormatSingleElimination:
		p, warnings := newSingleEliminationPlacer(in)
		return p, warnings, nil
	case models.FormatDoubleElimination:
		p, warnings := newDoubleEliminationPlacer(in)
		return p, warnings, nil
	case models.FormatRoundRobin:
		return newRoundRobinPlacer(in), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// finalists holds the winner and loser of a deciding match, when it was decided.
type finalists struct {
	winner *int
	loser  *int
}

func finalistsOf(m *models.Match) finalists {
	if m == nil || !m.IsCompleted() || !m.HasValidWinner() {
		return finalists{}
	}
	return finalists{winner: m.WinnerID, loser: m.LoserID()}
}

func (f finalists) position(playerID int) (int, bool) {
	if f.winner != nil && *f.winner == playerID {
		return 1, true
	}
	if f.loser != nil && *f.loser == playerID {
		return 2, true
	}
	return 0, false
}

type singleEliminationPlacer struct {
	final        finalists
	maxRound     int
	totalPlayers int
}

func newSingleEliminationPlacer(in placementInput) (*singleEliminationPlacer, []error) {
	var warnings []error
	final, err := brackets.FindFinal(in.all)
	if err != nil && in.strict {
		warnings = append(warnings, &InconsistencyError{TournamentID: in.tournamentID, Reason: err.Error()})
	}
	p := &singleEliminationPlacer{
		final:        finalistsOf(final),
		maxRound:     brackets.MaxRound(in.all, brackets.IsWinnerSide),
		totalPlayers: in.totalPlayers,
	}
	if final != nil && p.final.winner == nil && in.strict {
		warnings = append(warnings, &InconsistencyError{TournamentID: in.tournamentID, MatchID: final.ID, Reason: "final has no valid winner"})
	}
	return p, warnings
}

func (p *singleEliminationPlacer) champion() *int { return p.final.winner }

func (p *singleEliminationPlacer) place(playerID int, rec record) (int, string) {
	if pos, ok := p.final.position(playerID); ok {
		return pos, ""
	}
	if rec.lastLoss == nil {
		return 0, "player has no losses but did not win or lose the final"
	}
	r := rec.lastLoss.Round
	// Semifinal losers share third place; no third-place playoff is assumed.
	if r == p.maxRound-1 {
		return 3, ""
	}
	return brackets.EliminationPosition(p.totalPlayers, r), ""
}

type doubleEliminationPlacer struct {
	grandFinal     finalists
	winnerMaxRound int
}

func newDoubleEliminationPlacer(in placementInput) (*doubleEliminationPlacer, []error) {
	var warnings []error
	gf, err := brackets.FindGrandFinal(in.all)
	if err != nil && in.strict {
		warnings = append(warnings, &InconsistencyError{TournamentID: in.tournamentID, Reason: err.Error()})
	}
	return &doubleEliminationPlacer{
		grandFinal:     finalistsOf(gf),
		winnerMaxRound: brackets.MaxRound(in.all, brackets.IsWinnerBracket),
	}, warnings
}

func (p *doubleEliminationPlacer) champion() *int { return p.grandFinal.winner }

// place only distinguishes 1st, 2nd, 3rd and 4th. Everyone below the
// winner-bracket final shares 4th.
func (p *doubleEliminationPlacer) place(playerID int, rec record) (int, string) {
	if pos, ok := p.grandFinal.position(playerID); ok {
		return pos, ""
	}
	if rec.lastLoss == nil {
		return 0, "player has no losses but did not play the grand final"
	}
	if brackets.IsWinnerBracket(rec.lastLoss) && rec.lastLoss.Round == p.winnerMaxRound {
		return 3, ""
	}
	return 4, ""
}

type roundRobinPlacer struct {
	wins []int
}

func newRoundRobinPlacer(in placementInput) *roundRobinPlacer {
	wins := make([]int, 0, len(in.records))
	for _, rec := range in.records {
		wins = append(wins, rec.won)
	}
	return &roundRobinPlacer{wins: wins}
}

// champion is nil: an undefeated leader has no loss, and a leader with
// losses keeps the time of the last one.
func (p *roundRobinPlacer) champion() *int { return nil }

// place ranks by wins only. Equal win counts share a position.
func (p *roundRobinPlacer) place(_ int, rec record) (int, string) {
	better := 0
	for _, w := range p.wins {
		if w > rec.won {
			better++
		}
	}
	return better + 1, ""
}
