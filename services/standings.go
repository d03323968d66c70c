package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/repositories"
)

// StandingsProvider reports the number of wins of every team of a tournament.
type StandingsProvider interface {
	Wins(ctx context.Context, tournamentID string) (map[string]int, error)
}

type matchStandingsProvider struct {
	matchRepo repositories.MatchRepository
}

// NewMatchStandingsProvider derives wins from finished matches. A bye counts
// as a win for the team that received it.
func NewMatchStandingsProvider(matchRepo repositories.MatchRepository) StandingsProvider {
	return &matchStandingsProvider{matchRepo: matchRepo}
}

func (p *matchStandingsProvider) Wins(ctx context.Context, tournamentID string) (map[string]int, error) {
	matches, err := p.matchRepo.ListByTournament(ctx, tournamentID, repositories.MatchFilter{
		Statuses: models.FinishedMatchStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load finished matches: %w", err)
	}
	return CountWins(matches), nil
}

func CountWins(matches []*models.Match) map[string]int {
	wins := make(map[string]int)
	for _, m := range matches {
		if winner := m.WinnerID(); winner != nil {
			wins[*winner]++
		}
	}
	return wins
}

// priorOpponents maps every team to the teams it already met. Byes are not
// encounters.
func priorOpponents(matches []*models.Match) map[string][]string {
	opponents := make(map[string][]string)
	for _, m := range matches {
		if m.IsBye || !m.Status.IsFinished() || m.SideAID == nil || m.SideBID == nil {
			continue
		}
		a, b := *m.SideAID, *m.SideBID
		opponents[a] = append(opponents[a], b)
		opponents[b] = append(opponents[b], a)
	}
	return opponents
}
