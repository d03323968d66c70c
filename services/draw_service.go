package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Dosada05/petanque-system/brackets"
	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/realtime"
	"github.com/Dosada05/petanque-system/repositories"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDrawLockTTL = 30 * time.Second
	DefaultPoolSize    = 4

	lockReleaseTimeout = 5 * time.Second
	archiveTimeout     = 10 * time.Second
)

// DrawLocker grants short-lived exclusive leases. An unreleased lease expires
// on its own after ttl.
type DrawLocker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// DrawLockKey names the lease guarding one draw of a tournament. scope is
// the round number for mêlée rounds.
func DrawLockKey(tournamentID, scope string) string {
	return fmt.Sprintf("draw:lock:%s:%s", tournamentID, scope)
}

type DrawOptions struct {
	LockTTL        time.Duration
	MaxSearchSteps int
	// Now and Seed default to time.Now and NewSeed.
	Now  func() time.Time
	Seed func(now time.Time) string
}

type StartResult struct {
	Tournament *models.Tournament `json:"tournament"`
	Teams      []*models.Team     `json:"teams"`
}

type RoundDraw struct {
	TournamentID string          `json:"tournament_id"`
	Round        int             `json:"round"`
	Seed         string          `json:"seed"`
	ByeTeamID    *string         `json:"bye_team_id,omitempty"`
	Matches      []*models.Match `json:"matches"`
	DrawLogID    string          `json:"draw_log_id"`
}

type DrawService interface {
	StartTournament(ctx context.Context, tournamentID string) (*StartResult, error)
	LaunchMeleeRound(ctx context.Context, tournamentID string, round int) (*RoundDraw, error)
	DrawBracket(ctx context.Context, tournamentID string) (*BracketDraw, error)
	DrawPools(ctx context.Context, tournamentID string, input PoolDrawInput) (*PoolDraw, error)
	GetDrawLog(ctx context.Context, tournamentID string, kind models.DrawKind, round int) (*models.DrawLog, error)
	VerifyDraw(ctx context.Context, tournamentID string, round int) (*DrawVerification, error)
}

type drawService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	terrainRepo    repositories.TerrainRepository
	drawLogRepo    repositories.DrawLogRepository
	locker         DrawLocker
	standings      StandingsProvider
	archiver       DrawArchiver
	broadcaster    Broadcaster
	logger         *slog.Logger
	opts           DrawOptions
}

// NewDrawService wires the draw orchestration. archiver and broadcaster may
// be nil.
func NewDrawService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	terrainRepo repositories.TerrainRepository,
	drawLogRepo repositories.DrawLogRepository,
	locker DrawLocker,
	standings StandingsProvider,
	archiver DrawArchiver,
	broadcaster Broadcaster,
	logger *slog.Logger,
	opts DrawOptions,
) DrawService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultDrawLockTTL
	}
	if opts.MaxSearchSteps <= 0 {
		opts.MaxSearchSteps = brackets.DefaultMaxSearchSteps
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == nil {
		opts.Seed = NewSeed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &drawService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		terrainRepo:    terrainRepo,
		drawLogRepo:    drawLogRepo,
		locker:         locker,
		standings:      standings,
		archiver:       archiver,
		broadcaster:    broadcaster,
		logger:         logger,
		opts:           opts,
	}
}

// withDrawLock runs fn while holding the lease key. The lease is released
// whatever fn returns, and also when it panics.
func (s *drawService) withDrawLock(ctx context.Context, key string, fn func() error) error {
	token, ok, err := s.locker.TryAcquire(ctx, key, s.opts.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire draw lock %s: %w", key, err)
	}
	if !ok {
		return ErrDrawInProgress
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.logger.ErrorContext(ctx, "failed to release draw lock", slog.String("key", key), slog.Any("error", err))
		}
	}()
	return fn()
}

func (s *drawService) getTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *drawService) StartTournament(ctx context.Context, tournamentID string) (*StartResult, error) {
	var result *StartResult
	err := s.withDrawLock(ctx, DrawLockKey(tournamentID, "start"), func() error {
		tournament, err := s.getTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusRegistration {
			return ErrTournamentNotRegistering
		}

		var teams []*models.Team
		if tournament.Mode.ConstitutesTeams() {
			teams, err = s.constituteStartingTeams(ctx, tournament)
		} else {
			teams, err = s.teamRepo.ListActive(ctx, tournamentID)
			if err == nil && len(teams) < 2 {
				err = ErrNotEnoughCompetitors
			}
		}
		if err != nil {
			return err
		}

		err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
			if tournament.Mode.ConstitutesTeams() {
				for _, team := range teams {
					if err := s.teamRepo.Create(ctx, tx, team); err != nil {
						return fmt.Errorf("failed to create team %d: %w", team.DrawNumber, err)
					}
				}
			}
			return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusInProgress)
		})
		if err != nil {
			return err
		}

		tournament.Status = models.StatusInProgress
		result = &StartResult{Tournament: tournament, Teams: teams}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament started",
		slog.String("tournament_id", tournamentID),
		slog.Int("teams", len(result.Teams)))
	s.broadcast(tournamentID, realtime.MessageTournamentStarted, result)
	return result, nil
}

// constituteStartingTeams groups the registered players of a mêlée tournament.
func (s *drawService) constituteStartingTeams(ctx context.Context, tournament *models.Tournament) ([]*models.Team, error) {
	players, err := s.playerRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	if len(players) < 2 {
		return nil, ErrNotEnoughCompetitors
	}
	teams, err := s.buildTeams(tournament, 1, players)
	if err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, ErrNotEnoughCompetitors
	}
	return teams, nil
}

// buildTeams draws players into new, unsaved teams for the given round.
// Teams get their ids now so they can be paired before being stored.
func (s *drawService) buildTeams(tournament *models.Tournament, round int, players []*models.Player) ([]*models.Team, error) {
	size := tournament.TeamType.TeamSize()
	if size == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTeamType, tournament.TeamType)
	}

	byID := make(map[string]*models.Player, len(players))
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	groups, err := brackets.ConstituteTeams(ids, size, constitutionSeed(tournament.ID, round, s.opts.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to constitute teams: %w", err)
	}

	teams := make([]*models.Team, len(groups))
	for i, group := range groups {
		team := &models.Team{
			ID:           xid.New().String(),
			TournamentID: tournament.ID,
			Name:         fmt.Sprintf("Team %d", i+1),
			DrawNumber:   i + 1,
			Status:       models.TeamStatusActive,
			Members:      make([]models.Player, len(group)),
		}
		for j, playerID := range group {
			team.Members[j] = *byID[playerID]
		}
		teams[i] = team
	}
	return teams, nil
}

// roundSnapshot is everything a mêlée round draw reads.
type roundSnapshot struct {
	tournament *models.Tournament
	teams      []*models.Team
	matches    []*models.Match
	wins       map[string]int
	terrains   []*models.Terrain
	drawn      bool
}

func (s *drawService) loadRoundSnapshot(ctx context.Context, tournamentID string, round int) (*roundSnapshot, error) {
	snap := &roundSnapshot{}
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
		matches, err := s.matchRepo.ListByTournament(gCtx, tournamentID, repositories.MatchFilter{})
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		snap.matches = matches
		return nil
	})
	g.Go(func() error {
		wins, err := s.standings.Wins(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		snap.wins = wins
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
		drawn, err := s.drawLogRepo.Exists(gCtx, tournamentID, models.DrawKindMelee, round)
		if err != nil {
			return fmt.Errorf("failed to check previous draws: %w", err)
		}
		snap.drawn = drawn
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *drawService) LaunchMeleeRound(ctx context.Context, tournamentID string, round int) (*RoundDraw, error) {
	if round < 1 {
		return nil, ErrInvalidRound
	}

	var result *RoundDraw
	var drawLog *models.DrawLog
	err := s.withDrawLock(ctx, DrawLockKey(tournamentID, strconv.Itoa(round)), func() error {
		snap, err := s.loadRoundSnapshot(ctx, tournamentID, round)
		if err != nil {
			return err
		}
		if err := checkRoundPreconditions(snap, round); err != nil {
			return err
		}

		var regrouped []*models.Team
		if snap.tournament.Mode == models.ModeMeleeDemelee && round > 1 {
			if regrouped, err = s.regroupTeams(snap.tournament, round, snap.teams); err != nil {
				return err
			}
			snap.teams = regrouped
		}
		if len(snap.teams) < 2 {
			return ErrNotEnoughCompetitors
		}

		competitors := buildCompetitors(snap.teams, snap.wins, priorOpponents(snap.matches))
		seed := s.opts.Seed(s.opts.Now())
		avoidSameClub := round <= 2
		pairing, err := brackets.PairRound(competitors, round, seed, brackets.PairingOptions{
			AvoidSameClub:  avoidSameClub,
			MaxSearchSteps: s.opts.MaxSearchSteps,
		})
		if err != nil {
			return fmt.Errorf("failed to pair round %d: %w", round, err)
		}

		drawLog = &models.DrawLog{
			TournamentID: tournamentID,
			Kind:         models.DrawKindMelee,
			Round:        round,
			Seed:         seed,
			Constraints: models.DrawConstraints{
				AvoidSameClub:  avoidSameClub,
				AvoidRematches: true,
				MaxSearchSteps: s.opts.MaxSearchSteps,
			},
			Competitors: make([]models.DrawCompetitor, len(competitors)),
			Pairings:    pairing.Pairings,
		}
		for i, c := range competitors {
			drawLog.Competitors[i] = models.NewDrawCompetitor(c)
		}

		matches := roundMatches(tournamentID, round, pairing.Pairings, snap.terrains)
		err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
			if regrouped != nil {
				if err := s.replaceTeams(ctx, tx, tournamentID, regrouped); err != nil {
					return fmt.Errorf("failed to regroup teams for round %d: %w", round, err)
				}
			}
			if err := s.drawLogRepo.Create(ctx, tx, drawLog); err != nil {
				if errors.Is(err, repositories.ErrDrawLogConflict) {
					return ErrRoundAlreadyDrawn
				}
				return err
			}
			for _, m := range matches {
				if err := s.matchRepo.Create(ctx, tx, m); err != nil {
					return fmt.Errorf("failed to create match: %w", err)
				}
			}
			return s.tournamentRepo.UpdateCurrentRound(ctx, tx, tournamentID, round)
		})
		if err != nil {
			return err
		}

		result = &RoundDraw{
			TournamentID: tournamentID,
			Round:        round,
			Seed:         seed,
			ByeTeamID:    pairing.ByeCompetitorID,
			Matches:      matches,
			DrawLogID:    drawLog.ID,
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "melee round draw failed",
			slog.String("tournament_id", tournamentID), slog.Int("round", round), slog.Any("error", err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "melee round drawn",
		slog.String("tournament_id", tournamentID),
		slog.Int("round", round),
		slog.String("seed", result.Seed),
		slog.Int("matches", len(result.Matches)))
	s.archive(ctx, drawLog)
	s.broadcast(tournamentID, realtime.MessageRoundStarted, result)
	return result, nil
}

func checkRoundPreconditions(snap *roundSnapshot, round int) error {
	if snap.tournament.Status != models.StatusInProgress {
		return ErrTournamentNotInProgress
	}
	if snap.drawn {
		return ErrRoundAlreadyDrawn
	}
	if round > snap.tournament.CurrentRound+1 {
		return fmt.Errorf("%w: round %d requested, current round is %d", ErrRoundOutOfSequence, round, snap.tournament.CurrentRound)
	}
	for _, m := range snap.matches {
		if m.Round == round-1 && m.BracketUID == nil && !m.Status.IsFinished() {
			return ErrPreviousRoundUnfinished
		}
	}
	return nil
}

// regroupTeams draws new teams from the members of the current ones.
func (s *drawService) regroupTeams(tournament *models.Tournament, round int, current []*models.Team) ([]*models.Team, error) {
	players := make([]*models.Player, 0, len(current)*3)
	for _, team := range current {
		for i := range team.Members {
			players = append(players, &team.Members[i])
		}
	}
	if len(players) < 2 {
		return nil, ErrNotEnoughCompetitors
	}
	return s.buildTeams(tournament, round, players)
}

// replaceTeams swaps the active teams for teams. Teams that never played are
// deleted, the others are kept as dissolved for their score history.
func (s *drawService) replaceTeams(ctx context.Context, tx repositories.SQLExecutor, tournamentID string, teams []*models.Team) error {
	deleted, err := s.teamRepo.DeleteWithoutMatches(ctx, tx, tournamentID)
	if err != nil {
		return err
	}
	dissolved, err := s.teamRepo.DissolveActive(ctx, tx, tournamentID)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "previous teams removed",
		slog.String("tournament_id", tournamentID),
		slog.Int64("deleted", deleted),
		slog.Int64("dissolved", dissolved))

	for _, team := range teams {
		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			return fmt.Errorf("failed to create team %d: %w", team.DrawNumber, err)
		}
	}
	return nil
}

func buildCompetitors(teams []*models.Team, wins map[string]int, opponents map[string][]string) []brackets.Competitor {
	competitors := make([]brackets.Competitor, len(teams))
	for i, team := range teams {
		competitors[i] = brackets.NewCompetitor(team.ID, team.Club(), wins[team.ID], opponents[team.ID]...)
	}
	return competitors
}

// roundMatches turns pairings into match records. A bye is a completed
// walkover against itself; other matches get terrains in turn.
func roundMatches(tournamentID string, round int, pairings []brackets.Pairing, terrains []*models.Terrain) []*models.Match {
	matches := make([]*models.Match, 0, len(pairings))
	for i, p := range pairings {
		sideA := p.SideA
		m := &models.Match{
			TournamentID: tournamentID,
			Round:        round,
			SideAID:      &sideA,
		}
		if p.IsBye {
			scoreA, scoreB := models.WalkoverScore, 0
			m.SideBID = &sideA
			m.ScoreA = &scoreA
			m.ScoreB = &scoreB
			m.Status = models.MatchStatusCompleted
			m.IsBye = true
		} else {
			sideB := p.SideB
			m.SideBID = &sideB
			m.Status = models.MatchStatusScheduled
			m.Terrain = terrainFor(terrains, i)
		}
		matches = append(matches, m)
	}
	return matches
}

func terrainFor(terrains []*models.Terrain, i int) *string {
	if len(terrains) == 0 {
		return nil
	}
	name := terrains[i%len(terrains)].Name
	return &name
}

func (s *drawService) archive(ctx context.Context, log *models.DrawLog) {
	if s.archiver == nil || log == nil {
		return
	}
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	key, err := s.archiver.Archive(archiveCtx, log)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to archive draw log",
			slog.String("draw_log_id", log.ID), slog.Any("error", err))
		return
	}
	s.logger.DebugContext(ctx, "draw log archived", slog.String("key", key))
}

func (s *drawService) broadcast(tournamentID, messageType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	room := realtime.TournamentRoom(tournamentID)
	s.broadcaster.BroadcastToRoom(room, realtime.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  room,
	})
}
