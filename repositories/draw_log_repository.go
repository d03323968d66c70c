package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
	"github.com/lib/pq"
)

var (
	ErrDrawLogNotFound = errors.New("draw log not found")
	ErrDrawLogConflict = errors.New("a draw is already logged for this round")
)

type DrawLogRepository interface {
	Create(ctx context.Context, exec SQLExecutor, log *models.DrawLog) error
	GetByRound(ctx context.Context, tournamentID string, kind models.DrawKind, round int) (*models.DrawLog, error)
	Exists(ctx context.Context, tournamentID string, kind models.DrawKind, round int) (bool, error)
}

type postgresDrawLogRepository struct {
	db *sql.DB
}

func NewPostgresDrawLogRepository(db *sql.DB) DrawLogRepository {
	return &postgresDrawLogRepository{db: db}
}

func (r *postgresDrawLogRepository) Create(ctx context.Context, exec SQLExecutor, log *models.DrawLog) error {
	if exec == nil {
		exec = r.db
	}
	if log.ID == "" {
		log.ID = newID()
	}

	constraints, err := json.Marshal(log.Constraints)
	if err != nil {
		return fmt.Errorf("failed to encode draw constraints: %w", err)
	}
	competitors, err := json.Marshal(log.Competitors)
	if err != nil {
		return fmt.Errorf("failed to encode draw competitors: %w", err)
	}
	pairings, err := json.Marshal(log.Pairings)
	if err != nil {
		return fmt.Errorf("failed to encode draw pairings: %w", err)
	}

	query := `
		INSERT INTO draw_logs (id, tournament_id, kind, round, seed, constraints, competitors, pairings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	err = exec.QueryRowContext(ctx, query,
		log.ID, log.TournamentID, log.Kind, log.Round, log.Seed, constraints, competitors, pairings,
	).Scan(&log.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "draw_logs_tournament_id_kind_round_key" {
			return ErrDrawLogConflict
		}
		return fmt.Errorf("failed to insert draw log: %w", err)
	}
	return nil
}

func (r *postgresDrawLogRepository) GetByRound(ctx context.Context, tournamentID string, kind models.DrawKind, round int) (*models.DrawLog, error) {
	query := `
		SELECT id, tournament_id, kind, round, seed, constraints, competitors, pairings, created_at
		FROM draw_logs
		WHERE tournament_id = $1 AND kind = $2 AND round = $3`

	log := &models.DrawLog{}
	var constraints, competitors, pairings []byte
	err := r.db.QueryRowContext(ctx, query, tournamentID, kind, round).Scan(
		&log.ID, &log.TournamentID, &log.Kind, &log.Round, &log.Seed,
		&constraints, &competitors, &pairings, &log.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrawLogNotFound
		}
		return nil, fmt.Errorf("failed to get draw log for tournament %s round %d: %w", tournamentID, round, err)
	}

	if err := json.Unmarshal(constraints, &log.Constraints); err != nil {
		return nil, fmt.Errorf("failed to decode draw constraints: %w", err)
	}
	if err := json.Unmarshal(competitors, &log.Competitors); err != nil {
		return nil, fmt.Errorf("failed to decode draw competitors: %w", err)
	}
	if err := json.Unmarshal(pairings, &log.Pairings); err != nil {
		return nil, fmt.Errorf("failed to decode draw pairings: %w", err)
	}
	return log, nil
}

func (r *postgresDrawLogRepository) Exists(ctx context.Context, tournamentID string, kind models.DrawKind, round int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM draw_logs WHERE tournament_id = $1 AND kind = $2 AND round = $3)`,
		tournamentID, kind, round,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check draw log for tournament %s round %d: %w", tournamentID, round, err)
	}
	return exists, nil
}
