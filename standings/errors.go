package standings

import (
	"errors"
	"fmt"
)

var (
	ErrNilTournament          = errors.New("tournament snapshot is required")
	ErrTournamentNotCompleted = errors.New("tournament is not completed")
	ErrUnsupportedFormat      = errors.New("unsupported tournament format")
	ErrBracketInconsistency   = errors.New("bracket inconsistency")
)

// InconsistencyError is a non-fatal warning: one registration (or, with a zero
// RegistrationID, the bracket as a whole) could not be resolved.
type InconsistencyError struct {
	TournamentID   int
	RegistrationID int
	PlayerID       int
	MatchID        int
	Reason         string
}

func (e *InconsistencyError) Error() string {
	switch {
	case e.RegistrationID != 0:
		return fmt.Sprintf("%s: tournament %d, registration %d (player %d): %s",
			ErrBracketInconsistency, e.TournamentID, e.RegistrationID, e.PlayerID, e.Reason)
	case e.MatchID != 0:
		return fmt.Sprintf("%s: tournament %d, match %d: %s", ErrBracketInconsistency, e.TournamentID, e.MatchID, e.Reason)
	}
	return fmt.Sprintf("%s: tournament %d: %s", ErrBracketInconsistency, e.TournamentID, e.Reason)
}

func (e *InconsistencyError) Unwrap() error {
	return ErrBracketInconsistency
}
