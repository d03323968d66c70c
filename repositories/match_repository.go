package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/petanque-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament reference is invalid")
	ErrMatchSideInvalid       = errors.New("match side reference is invalid")
	ErrMatchBracketConflict   = errors.New("bracket match uid already used in this tournament")
)

type MatchFilter struct {
	Round    *int
	Statuses []models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	ListByTournament(ctx context.Context, tournamentID string, filter MatchFilter) ([]*models.Match, error)
	UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID string, nextMatchID *string, winnerToSlot *int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	if m.ID == "" {
		m.ID = newID()
	}
	query := `
		INSERT INTO matches
			(id, tournament_id, round, side_a_id, side_b_id, score_a, score_b, status,
			 is_bye, terrain, pool, bracket_uid, next_match_id, winner_to_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.ID,
		m.TournamentID,
		m.Round,
		m.SideAID,
		m.SideBID,
		m.ScoreA,
		m.ScoreB,
		m.Status,
		m.IsBye,
		m.Terrain,
		m.Pool,
		m.BracketUID,
		m.NextMatchID,
		m.WinnerToSlot,
	).Scan(&m.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, tournament_id, round, side_a_id, side_b_id, score_a, score_b, status,
		       is_bye, terrain, pool, bracket_uid, next_match_id, winner_to_slot, created_at
		FROM matches
		WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if filter.Round != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Round)
		placeholderIndex++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		queryBuilder.WriteString(" AND status = ANY($")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		queryBuilder.WriteString(")")
		args = append(args, pq.Array(statuses))
	}
	queryBuilder.WriteString(" ORDER BY round ASC, created_at ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(
			&m.ID,
			&m.TournamentID,
			&m.Round,
			&m.SideAID,
			&m.SideBID,
			&m.ScoreA,
			&m.ScoreB,
			&m.Status,
			&m.IsBye,
			&m.Terrain,
			&m.Pool,
			&m.BracketUID,
			&m.NextMatchID,
			&m.WinnerToSlot,
			&m.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID string, nextMatchID *string, winnerToSlot *int) error {
	query := `UPDATE matches SET next_match_id = $1, winner_to_slot = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, nextMatchID, winnerToSlot, matchID)
	if err != nil {
		return fmt.Errorf("UpdateNextMatchInfo: failed to execute query for match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_side_a_id_fkey", "matches_side_b_id_fkey":
			return ErrMatchSideInvalid
		case "matches_tournament_id_bracket_uid_key":
			return ErrMatchBracketConflict
		}
	}
	return err
}
