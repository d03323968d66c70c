package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusInProgress   TournamentStatus = "in_progress"
	StatusCompleted    TournamentStatus = "completed"
)

// TournamentMode decides how teams come to exist.
type TournamentMode string

const (
	// ModeFormed: teams register already formed.
	ModeFormed TournamentMode = "formed"
	// ModeMelee: players register alone and are grouped once at start.
	ModeMelee TournamentMode = "melee"
	// ModeMeleeDemelee: players are regrouped before every round.
	ModeMeleeDemelee TournamentMode = "melee_demelee"
)

func (m TournamentMode) IsValid() bool {
	switch m {
	case ModeFormed, ModeMelee, ModeMeleeDemelee:
		return true
	}
	return false
}

// ConstitutesTeams reports whether the tournament groups individual players itself.
func (m TournamentMode) ConstitutesTeams() bool {
	return m == ModeMelee || m == ModeMeleeDemelee
}

type TeamType string

const (
	TeamTypeTeteATete TeamType = "tete_a_tete"
	TeamTypeDoublette TeamType = "doublette"
	TeamTypeTriplette TeamType = "triplette"
)

// TeamSize returns the number of players per team, 0 for an unknown type.
func (t TeamType) TeamSize() int {
	switch t {
	case TeamTypeTeteATete:
		return 1
	case TeamTypeDoublette:
		return 2
	case TeamTypeTriplette:
		return 3
	default:
		return 0
	}
}

type Tournament struct {
	ID           string           `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Mode         TournamentMode   `json:"mode" db:"mode"`
	TeamType     TeamType         `json:"team_type" db:"team_type"`
	Status       TournamentStatus `json:"status" db:"status"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
