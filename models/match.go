package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusForfeited  MatchStatus = "forfeited"
)

// FinishedMatchStatuses are the statuses that count for standings and history.
var FinishedMatchStatuses = []MatchStatus{MatchStatusCompleted, MatchStatusForfeited}

func (s MatchStatus) IsFinished() bool {
	return s == MatchStatusCompleted || s == MatchStatusForfeited
}

// WalkoverScore is the score awarded to a team with a bye.
const WalkoverScore = 13

// Match opposes two teams. A bye is stored completed with SideBID == SideAID.
// Bracket matches waiting for earlier winners have nil sides.
type Match struct {
	ID           string      `json:"id" db:"id"`
	TournamentID string      `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	SideAID      *string     `json:"side_a_id,omitempty" db:"side_a_id"`
	SideBID      *string     `json:"side_b_id,omitempty" db:"side_b_id"`
	ScoreA       *int        `json:"score_a,omitempty" db:"score_a"`
	ScoreB       *int        `json:"score_b,omitempty" db:"score_b"`
	Status       MatchStatus `json:"status" db:"status"`
	IsBye        bool        `json:"is_bye" db:"is_bye"`
	Terrain      *string     `json:"terrain,omitempty" db:"terrain"`
	Pool         *int        `json:"pool,omitempty" db:"pool"`
	BracketUID   *string     `json:"bracket_uid,omitempty" db:"bracket_uid"`
	NextMatchID  *string     `json:"next_match_id,omitempty" db:"next_match_id"`
	WinnerToSlot *int        `json:"winner_to_slot,omitempty" db:"winner_to_slot"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// WinnerID returns the winning side of a finished match, nil for an
// unfinished or drawn one.
func (m *Match) WinnerID() *string {
	if !m.Status.IsFinished() {
		return nil
	}
	if m.IsBye {
		return m.SideAID
	}
	if m.ScoreA == nil || m.ScoreB == nil {
		return nil
	}
	switch {
	case *m.ScoreA > *m.ScoreB:
		return m.SideAID
	case *m.ScoreB > *m.ScoreA:
		return m.SideBID
	default:
		return nil
	}
}
