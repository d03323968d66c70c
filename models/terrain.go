package models

type Terrain struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	Name         string `json:"name" db:"name"`
	Position     int    `json:"position" db:"position"`
}
