package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.TournamentStatus) error
	UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id string, round int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, mode, team_type, status, current_round, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Mode, &t.TeamType, &t.Status, &t.CurrentRound, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.TournamentStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// UpdateCurrentRound never moves the round counter backwards.
func (r *postgresTournamentRepository) UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id string, round int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE tournaments SET current_round = GREATEST(current_round, $1) WHERE id = $2`, round, id)
	if err != nil {
		return fmt.Errorf("failed to update current round of tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
