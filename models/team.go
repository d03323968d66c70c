package models

import "time"

type TeamStatus string

const (
	TeamStatusActive       TeamStatus = "active"
	TeamStatusForfeit      TeamStatus = "forfeit"
	TeamStatusDisqualified TeamStatus = "disqualified"
	// TeamStatusDissolved marks a mêlée-démêlée team that played and was
	// regrouped. It stays for score history but is never drawn again.
	TeamStatusDissolved TeamStatus = "dissolved"
)

type Team struct {
	ID           string     `json:"id" db:"id"`
	TournamentID string     `json:"tournament_id" db:"tournament_id"`
	Name         string     `json:"name" db:"name"`
	DrawNumber   int        `json:"draw_number" db:"draw_number"`
	Status       TeamStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	Members []Player `json:"members,omitempty" db:"-"`
}

// Club is the club of the first member, nil when unknown.
func (t *Team) Club() *string {
	if len(t.Members) == 0 {
		return nil
	}
	return t.Members[0].Club
}

func (t *Team) MemberIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}
