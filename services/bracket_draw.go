package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/petanque-system/brackets"
	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/realtime"
	"github.com/Dosada05/petanque-system/repositories"
	"golang.org/x/sync/errgroup"
)

type BracketDraw struct {
	TournamentID string                 `json:"tournament_id"`
	Seed         string                 `json:"seed"`
	Slots        []brackets.BracketSlot `json:"slots"`
	Matches      []*models.Match        `json:"matches"`
	DrawLogID    string                 `json:"draw_log_id"`
}

type PoolDrawInput struct {
	PoolSize int `json:"pool_size"`
	Legs     int `json:"legs"`
}

type PoolDraw struct {
	TournamentID string          `json:"tournament_id"`
	Seed         string          `json:"seed"`
	Pools        [][]string      `json:"pools"`
	Matches      []*models.Match `json:"matches"`
	DrawLogID    string          `json:"draw_log_id"`
}

// phaseSnapshot is what a bracket or pool draw reads.
type phaseSnapshot struct {
	tournament *models.Tournament
	teams      []*models.Team
	terrains   []*models.Terrain
	drawn      bool
}

func (s *drawService) loadPhaseSnapshot(ctx context.Context, tournamentID string, kind models.DrawKind) (*phaseSnapshot, error) {
	snap := &phaseSnapshot{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.getTournament(gCtx, tournamentID)
		snap.tournament = t
		return err
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListActive(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		snap.teams = teams
		return nil
	})
	g.Go(func() error {
		terrains, err := s.terrainRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load terrains: %w", err)
		}
		snap.terrains = terrains
		return nil
	})
	g.Go(func() error {
		drawn, err := s.drawLogRepo.Exists(gCtx, tournamentID, kind, 0)
		if err != nil {
			return fmt.Errorf("failed to check previous draws: %w", err)
		}
		snap.drawn = drawn
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if snap.tournament.Status != models.StatusInProgress {
		return nil, ErrTournamentNotInProgress
	}
	if len(snap.teams) < 2 {
		return nil, ErrNotEnoughCompetitors
	}
	return snap, nil
}

func teamIDs(teams []*models.Team) []string {
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}

func plainCompetitors(ids []string) []models.DrawCompetitor {
	competitors := make([]models.DrawCompetitor, len(ids))
	for i, id := range ids {
		competitors[i] = models.DrawCompetitor{ID: id, PriorOpponents: []string{}}
	}
	return competitors
}

func (s *drawService) DrawBracket(ctx context.Context, tournamentID string) (*BracketDraw, error) {
	var result *BracketDraw
	var drawLog *models.DrawLog
	err := s.withDrawLock(ctx, DrawLockKey(tournamentID, string(models.DrawKindBracket)), func() error {
		snap, err := s.loadPhaseSnapshot(ctx, tournamentID, models.DrawKindBracket)
		if err != nil {
			return err
		}
		if snap.drawn {
			return ErrBracketAlreadyDrawn
		}

		ids := teamIDs(snap.teams)
		seed := s.opts.Seed(s.opts.Now())
		slots, err := brackets.BuildBracket(ids, seed)
		if err != nil {
			return fmt.Errorf("failed to build bracket: %w", err)
		}
		generated, err := brackets.NewSingleEliminationGenerator().GenerateBracket(ctx, brackets.GenerateBracketParams{
			TournamentID:  tournamentID,
			CompetitorIDs: ids,
			Seed:          seed,
		})
		if err != nil {
			return fmt.Errorf("failed to generate bracket: %w", err)
		}

		drawLog = &models.DrawLog{
			TournamentID: tournamentID,
			Kind:         models.DrawKindBracket,
			Seed:         seed,
			Competitors:  plainCompetitors(ids),
			Pairings:     firstRoundPairings(generated),
		}

		var matches []*models.Match
		err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
			if err := s.drawLogRepo.Create(ctx, tx, drawLog); err != nil {
				if errors.Is(err, repositories.ErrDrawLogConflict) {
					return ErrBracketAlreadyDrawn
				}
				return err
			}
			matches, err = s.persistBracket(ctx, tx, tournamentID, generated, snap.terrains)
			return err
		})
		if err != nil {
			return err
		}

		result = &BracketDraw{
			TournamentID: tournamentID,
			Seed:         seed,
			Slots:        slots,
			Matches:      matches,
			DrawLogID:    drawLog.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket drawn",
		slog.String("tournament_id", tournamentID),
		slog.Int("slots", len(result.Slots)),
		slog.Int("matches", len(result.Matches)))
	s.archive(ctx, drawLog)
	s.broadcast(tournamentID, realtime.MessageBracketDrawn, result)
	return result, nil
}

func firstRoundPairings(generated []*brackets.BracketMatch) []brackets.Pairing {
	pairings := make([]brackets.Pairing, 0)
	for _, bm := range generated {
		if bm.Round != 1 {
			continue
		}
		if bm.IsBye {
			pairings = append(pairings, brackets.Pairing{SideA: *bm.ByeParticipantID, SideB: brackets.ByeID, IsBye: true})
			continue
		}
		pairings = append(pairings, brackets.Pairing{SideA: *bm.Participant1ID, SideB: *bm.Participant2ID})
	}
	return pairings
}

// persistBracket stores every non-bye match, then links each match to the
// one its winner moves on to.
func (s *drawService) persistBracket(ctx context.Context, tx repositories.SQLExecutor, tournamentID string, generated []*brackets.BracketMatch, terrains []*models.Terrain) ([]*models.Match, error) {
	byUID := make(map[string]*models.Match, len(generated))
	matches := make([]*models.Match, 0, len(generated))
	firstRound := 0

	for _, bm := range generated {
		if bm.IsBye {
			continue
		}
		uid := bm.UID
		m := &models.Match{
			TournamentID: tournamentID,
			Round:        bm.Round,
			SideAID:      bm.Participant1ID,
			SideBID:      bm.Participant2ID,
			Status:       models.MatchStatusScheduled,
			BracketUID:   &uid,
		}
		if bm.Round == 1 {
			m.Terrain = terrainFor(terrains, firstRound)
			firstRound++
		}
		if err := s.matchRepo.Create(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("failed to create bracket match %s: %w", bm.UID, err)
		}
		byUID[bm.UID] = m
		matches = append(matches, m)
	}

	for _, bm := range generated {
		target, ok := byUID[bm.UID]
		if !ok {
			continue
		}
		for slot, source := range []*string{bm.SourceMatch1UID, bm.SourceMatch2UID} {
			if source == nil {
				continue
			}
			from, ok := byUID[*source]
			if !ok {
				continue
			}
			nextID, winnerSlot := target.ID, slot+1
			if err := s.matchRepo.UpdateNextMatchInfo(ctx, tx, from.ID, &nextID, &winnerSlot); err != nil {
				return nil, err
			}
			from.NextMatchID = &nextID
			from.WinnerToSlot = &winnerSlot
		}
	}
	return matches, nil
}

func (s *drawService) DrawPools(ctx context.Context, tournamentID string, input PoolDrawInput) (*PoolDraw, error) {
	if input.PoolSize == 0 {
		input.PoolSize = DefaultPoolSize
	}
	if input.PoolSize < brackets.MinPoolSize {
		return nil, fmt.Errorf("%w: pool size must be at least %d", ErrValidationFailed, brackets.MinPoolSize)
	}
	switch input.Legs {
	case 0:
		input.Legs = 1
	case 1, 2:
	default:
		return nil, fmt.Errorf("%w: legs must be 1 or 2", ErrValidationFailed)
	}

	var result *PoolDraw
	var drawLog *models.DrawLog
	err := s.withDrawLock(ctx, DrawLockKey(tournamentID, string(models.DrawKindPools)), func() error {
		snap, err := s.loadPhaseSnapshot(ctx, tournamentID, models.DrawKindPools)
		if err != nil {
			return err
		}
		if snap.drawn {
			return ErrPoolsAlreadyDrawn
		}

		ids := teamIDs(snap.teams)
		seed := s.opts.Seed(s.opts.Now())
		pools, err := brackets.AssignPools(ids, input.PoolSize, seed)
		if err != nil {
			return fmt.Errorf("failed to assign pools: %w", err)
		}
		generated, err := brackets.NewPoolPlayGenerator().GenerateBracket(ctx, brackets.GenerateBracketParams{
			TournamentID:  tournamentID,
			CompetitorIDs: ids,
			Seed:          seed,
			PoolSize:      input.PoolSize,
			Legs:          input.Legs,
		})
		if err != nil {
			return fmt.Errorf("failed to schedule pools: %w", err)
		}

		matches := make([]*models.Match, len(generated))
		pairings := make([]brackets.Pairing, len(generated))
		for i, bm := range generated {
			uid := bm.UID
			matches[i] = &models.Match{
				TournamentID: tournamentID,
				Round:        bm.Round,
				SideAID:      bm.Participant1ID,
				SideBID:      bm.Participant2ID,
				Status:       models.MatchStatusScheduled,
				Pool:         bm.Pool,
				BracketUID:   &uid,
				Terrain:      terrainFor(snap.terrains, i),
			}
			pairings[i] = brackets.Pairing{SideA: *bm.Participant1ID, SideB: *bm.Participant2ID}
		}

		drawLog = &models.DrawLog{
			TournamentID: tournamentID,
			Kind:         models.DrawKindPools,
			Seed:         seed,
			Constraints:  models.DrawConstraints{PoolSize: input.PoolSize, Legs: input.Legs},
			Competitors:  plainCompetitors(ids),
			Pairings:     pairings,
		}

		err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
			if err := s.drawLogRepo.Create(ctx, tx, drawLog); err != nil {
				if errors.Is(err, repositories.ErrDrawLogConflict) {
					return ErrPoolsAlreadyDrawn
				}
				return err
			}
			for _, m := range matches {
				if err := s.matchRepo.Create(ctx, tx, m); err != nil {
					return fmt.Errorf("failed to create pool match: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		result = &PoolDraw{
			TournamentID: tournamentID,
			Seed:         seed,
			Pools:        pools,
			Matches:      matches,
			DrawLogID:    drawLog.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "pools drawn",
		slog.String("tournament_id", tournamentID),
		slog.Int("pools", len(result.Pools)),
		slog.Int("matches", len(result.Matches)))
	s.archive(ctx, drawLog)
	s.broadcast(tournamentID, realtime.MessagePoolsDrawn, result)
	return result, nil
}
