package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
)

type PlayerRepository interface {
	// ListByTournament returns every registered player in registration order.
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Player, error) {
	query := `
		SELECT id, tournament_id, first_name, last_name, club, created_at
		FROM players
		WHERE tournament_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p := &models.Player{}
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.FirstName, &p.LastName, &p.Club, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}
