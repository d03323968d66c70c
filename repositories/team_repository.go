package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamTournamentInvalid = errors.New("team tournament reference is invalid")
	ErrTeamMemberInvalid     = errors.New("team member reference is invalid")
	ErrTeamMemberConflict    = errors.New("player is listed twice in the same team")
)

type TeamRepository interface {
	// ListActive returns the teams eligible for a draw, members included,
	// ordered by draw number.
	ListActive(ctx context.Context, tournamentID string) ([]*models.Team, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	// DeleteWithoutMatches removes the active teams no match references.
	DeleteWithoutMatches(ctx context.Context, exec SQLExecutor, tournamentID string) (int64, error)
	// DissolveActive marks every remaining active team dissolved.
	DissolveActive(ctx context.Context, exec SQLExecutor, tournamentID string) (int64, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) ListActive(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, draw_number, status, created_at
		FROM teams
		WHERE tournament_id = $1 AND status = $2
		ORDER BY draw_number ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, models.TeamStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	byID := make(map[string]*models.Team)
	for rows.Next() {
		t := &models.Team{}
		if err := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &t.DrawNumber, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, t)
		byID[t.ID] = t
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	if len(teams) == 0 {
		return teams, nil
	}

	if err := r.loadMembers(ctx, tournamentID, byID); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) loadMembers(ctx context.Context, tournamentID string, byID map[string]*models.Team) error {
	query := `
		SELECT tm.team_id, p.id, p.tournament_id, p.first_name, p.last_name, p.club, p.created_at
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		JOIN players p ON p.id = tm.player_id
		WHERE t.tournament_id = $1 AND t.status = $2
		ORDER BY tm.team_id, tm.position ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, models.TeamStatusActive)
	if err != nil {
		return fmt.Errorf("failed to query team members for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var teamID string
		var p models.Player
		if err := rows.Scan(&teamID, &p.ID, &p.TournamentID, &p.FirstName, &p.LastName, &p.Club, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan team member row: %w", err)
		}
		if team, ok := byID[teamID]; ok {
			team.Members = append(team.Members, p)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error during team member rows iteration: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	if team.ID == "" {
		team.ID = newID()
	}
	if team.Status == "" {
		team.Status = models.TeamStatusActive
	}

	query := `
		INSERT INTO teams (id, tournament_id, name, draw_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := executor.QueryRowContext(ctx, query,
		team.ID, team.TournamentID, team.Name, team.DrawNumber, team.Status,
	).Scan(&team.CreatedAt)
	if err != nil {
		return r.handleTeamError(err)
	}

	memberQuery := `INSERT INTO team_members (team_id, player_id, position) VALUES ($1, $2, $3)`
	for i, member := range team.Members {
		if _, err := executor.ExecContext(ctx, memberQuery, team.ID, member.ID, i+1); err != nil {
			return r.handleTeamError(err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) DeleteWithoutMatches(ctx context.Context, exec SQLExecutor, tournamentID string) (int64, error) {
	query := `
		DELETE FROM teams t
		WHERE t.tournament_id = $1 AND t.status = $2
		  AND NOT EXISTS (
			SELECT 1 FROM matches m WHERE m.side_a_id = t.id OR m.side_b_id = t.id
		  )`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, models.TeamStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unplayed teams of tournament %s: %w", tournamentID, err)
	}
	return result.RowsAffected()
}

func (r *postgresTeamRepository) DissolveActive(ctx context.Context, exec SQLExecutor, tournamentID string) (int64, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE teams SET status = $1 WHERE tournament_id = $2 AND status = $3`,
		models.TeamStatusDissolved, tournamentID, models.TeamStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to dissolve teams of tournament %s: %w", tournamentID, err)
	}
	return result.RowsAffected()
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "teams_tournament_id_fkey":
			return ErrTeamTournamentInvalid
		case "team_members_player_id_fkey", "team_members_team_id_fkey":
			return ErrTeamMemberInvalid
		case "team_members_pkey":
			return ErrTeamMemberConflict
		}
	}
	return fmt.Errorf("team repository: %w", err)
}
