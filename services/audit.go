package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Dosada05/petanque-system/brackets"
	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/repositories"
)

// DrawVerification compares a stored mêlée draw with a replay of it.
type DrawVerification struct {
	TournamentID string             `json:"tournament_id"`
	Round        int                `json:"round"`
	Seed         string             `json:"seed"`
	Consistent   bool               `json:"consistent"`
	Stored       []brackets.Pairing `json:"stored"`
	Replayed     []brackets.Pairing `json:"replayed"`
}

func (s *drawService) GetDrawLog(ctx context.Context, tournamentID string, kind models.DrawKind, round int) (*models.DrawLog, error) {
	log, err := s.drawLogRepo.GetByRound(ctx, tournamentID, kind, round)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawLogNotFound) {
			return nil, ErrDrawLogNotFound
		}
		return nil, err
	}
	return log, nil
}

// VerifyDraw replays a mêlée round from its stored seed and competitor
// snapshot.
func (s *drawService) VerifyDraw(ctx context.Context, tournamentID string, round int) (*DrawVerification, error) {
	if round < 1 {
		return nil, ErrInvalidRound
	}
	log, err := s.GetDrawLog(ctx, tournamentID, models.DrawKindMelee, round)
	if err != nil {
		return nil, err
	}
	replayed, err := ReplayMeleeDraw(log)
	if err != nil {
		return nil, err
	}
	return &DrawVerification{
		TournamentID: tournamentID,
		Round:        round,
		Seed:         log.Seed,
		Consistent:   slices.Equal(log.Pairings, replayed),
		Stored:       log.Pairings,
		Replayed:     replayed,
	}, nil
}

// ReplayMeleeDraw recomputes the pairings of a stored mêlée draw.
func ReplayMeleeDraw(log *models.DrawLog) ([]brackets.Pairing, error) {
	if log.Kind != models.DrawKindMelee {
		return nil, ErrDrawNotVerifiable
	}
	competitors := make([]brackets.Competitor, len(log.Competitors))
	for i, c := range log.Competitors {
		competitors[i] = c.Competitor()
	}
	result, err := brackets.PairRound(competitors, log.Round, log.Seed, brackets.PairingOptions{
		AvoidSameClub:  log.Constraints.AvoidSameClub,
		MaxSearchSteps: log.Constraints.MaxSearchSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replay draw %s: %w", log.ID, err)
	}
	return result.Pairings, nil
}
