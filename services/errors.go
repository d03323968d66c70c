package services

import "errors"

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrDrawLogNotFound    = errors.New("draw log not found")

	ErrValidationFailed         = errors.New("validation failed")
	ErrInvalidRound             = errors.New("round number must be at least 1")
	ErrInvalidTeamType          = errors.New("tournament team type is not supported")
	ErrTournamentNotInProgress  = errors.New("tournament is not in progress")
	ErrTournamentNotRegistering = errors.New("tournament is not open for registration")
	ErrNotEnoughCompetitors     = errors.New("at least 2 competitors are required for a draw")
	ErrRoundOutOfSequence       = errors.New("rounds must be drawn in order")
	ErrPreviousRoundUnfinished  = errors.New("previous round still has unfinished matches")
	ErrDrawNotVerifiable        = errors.New("only melee draws can be replayed")

	ErrDrawInProgress      = errors.New("a draw is already in progress for this round")
	ErrRoundAlreadyDrawn   = errors.New("this round has already been drawn")
	ErrBracketAlreadyDrawn = errors.New("the bracket has already been drawn")
	ErrPoolsAlreadyDrawn   = errors.New("the pools have already been drawn")
)
