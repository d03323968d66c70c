package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
)

type TerrainRepository interface {
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Terrain, error)
}

type postgresTerrainRepository struct {
	db *sql.DB
}

func NewPostgresTerrainRepository(db *sql.DB) TerrainRepository {
	return &postgresTerrainRepository{db: db}
}

func (r *postgresTerrainRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Terrain, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, name, position
		FROM terrains
		WHERE tournament_id = $1
		ORDER BY position ASC, id ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query terrains for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	terrains := make([]*models.Terrain, 0)
	for rows.Next() {
		t := &models.Terrain{}
		if err := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &t.Position); err != nil {
			return nil, fmt.Errorf("failed to scan terrain row: %w", err)
		}
		terrains = append(terrains, t)
	}
	return terrains, rows.Err()
}
