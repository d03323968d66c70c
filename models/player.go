package models

import "time"

// Player is an individually registered person. Team membership lives in
// team_members so dissolved mêlée teams keep their history.
type Player struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Club         *string   `json:"club,omitempty" db:"club"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (p *Player) DisplayName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
