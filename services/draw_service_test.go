package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/petanque-system/brackets"
	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tid = "t1"

var fixedNow = time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)

type harness struct {
	db          *memDB
	tx          *fakeTransactor
	matchRepo   *fakeMatchRepo
	locker      *fakeLocker
	broadcaster *fakeBroadcaster
	archiver    *fakeArchiver
	seed        string
	svc         DrawService
}

func newHarness(t *testing.T, tournament models.Tournament) *harness {
	t.Helper()
	db := newMemDB()
	tournament.ID = tid
	db.tournaments[tid] = &tournament

	h := &harness{
		db:          db,
		tx:          &fakeTransactor{},
		matchRepo:   &fakeMatchRepo{db: db},
		locker:      newFakeLocker(),
		broadcaster: &fakeBroadcaster{},
		archiver:    &fakeArchiver{},
		seed:        "fixed-seed",
	}
	h.svc = NewDrawService(
		h.tx,
		fakeTournamentRepo{db: db},
		fakePlayerRepo{db: db},
		fakeTeamRepo{db: db},
		h.matchRepo,
		fakeTerrainRepo{db: db},
		fakeDrawLogRepo{db: db},
		h.locker,
		NewMatchStandingsProvider(h.matchRepo),
		h.archiver,
		h.broadcaster,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		DrawOptions{
			Now:  func() time.Time { return fixedNow },
			Seed: func(time.Time) string { return h.seed },
		},
	)
	return h
}

func inProgress(mode models.TournamentMode, currentRound int) models.Tournament {
	return models.Tournament{
		Name:         "Open du Vieux Port",
		Mode:         mode,
		TeamType:     models.TeamTypeDoublette,
		Status:       models.StatusInProgress,
		CurrentRound: currentRound,
	}
}

func (h *harness) addTeams(ids ...string) {
	for _, id := range ids {
		h.db.teams = append(h.db.teams, &models.Team{
			ID:           id,
			TournamentID: tid,
			Name:         "Team " + id,
			DrawNumber:   len(h.db.teams) + 1,
			Status:       models.TeamStatusActive,
		})
	}
}

func (h *harness) addTerrains(names ...string) {
	for i, name := range names {
		h.db.terrains = append(h.db.terrains, &models.Terrain{ID: name, TournamentID: tid, Name: name, Position: i + 1})
	}
}

func (h *harness) addResult(round int, a, b string, scoreA, scoreB int) {
	h.db.matches = append(h.db.matches, &models.Match{
		ID:           fmt.Sprintf("old-%d-%s-%s", round, a, b),
		TournamentID: tid,
		Round:        round,
		SideAID:      &a,
		SideBID:      &b,
		ScoreA:       &scoreA,
		ScoreB:       &scoreB,
		Status:       models.MatchStatusCompleted,
	})
}

func (h *harness) messageTypes() []string {
	types := make([]string, 0, len(h.broadcaster.sent))
	for _, s := range h.broadcaster.sent {
		types = append(types, s.message.(realtime.WebSocketMessage).Type)
	}
	return types
}

func TestLaunchMeleeRoundPersistsMatchesAndBye(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B", "C", "D", "E")
	h.addTerrains("T1", "T2")

	draw, err := h.svc.LaunchMeleeRound(context.Background(), tid, 1)
	require.NoError(t, err)

	competitors := []brackets.Competitor{
		brackets.NewCompetitor("A", nil, 0),
		brackets.NewCompetitor("B", nil, 0),
		brackets.NewCompetitor("C", nil, 0),
		brackets.NewCompetitor("D", nil, 0),
		brackets.NewCompetitor("E", nil, 0),
	}
	expected, err := brackets.PairRound(competitors, 1, "fixed-seed", brackets.PairingOptions{AvoidSameClub: true})
	require.NoError(t, err)

	assert.Equal(t, "fixed-seed", draw.Seed)
	assert.Equal(t, expected.ByeCompetitorID, draw.ByeTeamID)
	require.Len(t, draw.Matches, 3)
	for i, p := range expected.Pairings {
		m := draw.Matches[i]
		assert.Equal(t, p.SideA, *m.SideAID)
		assert.Equal(t, 1, m.Round)
		if p.IsBye {
			assert.True(t, m.IsBye)
			assert.Equal(t, models.MatchStatusCompleted, m.Status)
			assert.Equal(t, p.SideA, *m.SideBID)
			assert.Equal(t, 13, *m.ScoreA)
			assert.Equal(t, 0, *m.ScoreB)
			assert.Nil(t, m.Terrain)
			continue
		}
		assert.Equal(t, p.SideB, *m.SideBID)
		assert.Equal(t, models.MatchStatusScheduled, m.Status)
		assert.Nil(t, m.ScoreA)
	}
	assert.Equal(t, "T1", *draw.Matches[0].Terrain)
	assert.Equal(t, "T2", *draw.Matches[1].Terrain)

	assert.Len(t, h.db.matches, 3)
	require.Len(t, h.db.logs, 1)
	assert.Equal(t, expected.Pairings, h.db.logs[0].Pairings)
	assert.True(t, h.db.logs[0].Constraints.AvoidSameClub)
	assert.Equal(t, brackets.DefaultMaxSearchSteps, h.db.logs[0].Constraints.MaxSearchSteps)
	assert.Equal(t, 1, h.db.tournaments[tid].CurrentRound)

	assert.Equal(t, []string{"draw:lock:t1:1"}, h.locker.released)
	assert.Len(t, h.archiver.archived, 1)
	assert.Equal(t, []string{realtime.MessageRoundStarted}, h.messageTypes())
	assert.Equal(t, "tournament_t1", h.broadcaster.sent[0].room)
}

func TestLaunchMeleeRoundUsesStandingsAndHistory(t *testing.T) {
	for _, seed := range []string{"s1", "s2", "s3", "s4"} {
		h := newHarness(t, inProgress(models.ModeFormed, 1))
		h.addTeams("A", "B", "C", "D")
		h.addResult(1, "A", "B", 13, 7)
		h.addResult(1, "C", "D", 13, 11)
		h.seed = seed

		draw, err := h.svc.LaunchMeleeRound(context.Background(), tid, 2)
		require.NoError(t, err)

		pairs := map[string]string{}
		for _, m := range draw.Matches {
			pairs[*m.SideAID] = *m.SideBID
			pairs[*m.SideBID] = *m.SideAID
		}
		assert.Equal(t, "C", pairs["A"], "seed %s: winners meet", seed)
		assert.Equal(t, "D", pairs["B"], "seed %s: losers meet", seed)

		wins := map[string]int{}
		for _, c := range h.db.logs[0].Competitors {
			wins[c.ID] = c.Wins
		}
		assert.Equal(t, map[string]int{"A": 1, "B": 0, "C": 1, "D": 0}, wins)
		assert.True(t, h.db.logs[0].Constraints.AvoidSameClub)
		assert.Equal(t, 2, h.db.tournaments[tid].CurrentRound)
	}
}

func TestLaunchMeleeRoundLockHeld(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B")
	h.locker.held["draw:lock:t1:1"] = true

	_, err := h.svc.LaunchMeleeRound(context.Background(), tid, 1)
	assert.ErrorIs(t, err, ErrDrawInProgress)
	assert.Empty(t, h.db.matches)
	assert.Empty(t, h.db.logs)
	assert.Zero(t, h.tx.calls)
}

func TestLaunchMeleeRoundReleasesLockOnFailure(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B")
	h.matchRepo.createErr = errors.New("connection reset")

	_, err := h.svc.LaunchMeleeRound(context.Background(), tid, 1)
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, []string{"draw:lock:t1:1"}, h.locker.released)
	assert.Empty(t, h.locker.held)
	assert.Empty(t, h.broadcaster.sent)
}

func TestLaunchMeleeRoundPreconditions(t *testing.T) {
	cases := map[string]struct {
		tournament models.Tournament
		setup      func(h *harness)
		round      int
		want       error
	}{
		"round zero": {
			tournament: inProgress(models.ModeFormed, 0),
			round:      0,
			want:       ErrInvalidRound,
		},
		"not started": {
			tournament: models.Tournament{Mode: models.ModeFormed, TeamType: models.TeamTypeDoublette, Status: models.StatusRegistration},
			round:      1,
			want:       ErrTournamentNotInProgress,
		},
		"single team": {
			tournament: inProgress(models.ModeFormed, 0),
			setup:      func(h *harness) { h.addTeams("A") },
			round:      1,
			want:       ErrNotEnoughCompetitors,
		},
		"already drawn": {
			tournament: inProgress(models.ModeFormed, 1),
			setup: func(h *harness) {
				h.addTeams("A", "B")
				h.db.logs = append(h.db.logs, &models.DrawLog{ID: "l1", TournamentID: tid, Kind: models.DrawKindMelee, Round: 1})
			},
			round: 1,
			want:  ErrRoundAlreadyDrawn,
		},
		"skipped round": {
			tournament: inProgress(models.ModeFormed, 0),
			setup:      func(h *harness) { h.addTeams("A", "B") },
			round:      3,
			want:       ErrRoundOutOfSequence,
		},
		"previous round unfinished": {
			tournament: inProgress(models.ModeFormed, 1),
			setup: func(h *harness) {
				h.addTeams("A", "B")
				a, b := "A", "B"
				h.db.matches = append(h.db.matches, &models.Match{
					ID: "m1", TournamentID: tid, Round: 1, SideAID: &a, SideBID: &b, Status: models.MatchStatusInProgress,
				})
			},
			round: 2,
			want:  ErrPreviousRoundUnfinished,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, tc.tournament)
			if tc.setup != nil {
				tc.setup(h)
			}
			_, err := h.svc.LaunchMeleeRound(context.Background(), tid, tc.round)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, h.locker.held)
			assert.Empty(t, h.broadcaster.sent)
		})
	}
}

func TestLaunchMeleeRoundTournamentNotFound(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	_, err := h.svc.LaunchMeleeRound(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestLaunchMeleeRoundRegroupsMeleeDemelee(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeMeleeDemelee, 1))
	club := "Boule Lyonnaise"
	players := make([]models.Player, 4)
	for i := range players {
		players[i] = models.Player{ID: fmt.Sprintf("p%d", i+1), TournamentID: tid, FirstName: "P", LastName: fmt.Sprint(i + 1), Club: &club}
	}
	h.db.teams = []*models.Team{
		{ID: "old1", TournamentID: tid, DrawNumber: 1, Status: models.TeamStatusActive, Members: players[:2]},
		{ID: "old2", TournamentID: tid, DrawNumber: 2, Status: models.TeamStatusActive, Members: players[2:]},
	}
	h.addResult(1, "old1", "old2", 13, 5)

	draw, err := h.svc.LaunchMeleeRound(context.Background(), tid, 2)
	require.NoError(t, err)

	var active, dissolved []*models.Team
	for _, team := range h.db.teams {
		switch team.Status {
		case models.TeamStatusActive:
			active = append(active, team)
		case models.TeamStatusDissolved:
			dissolved = append(dissolved, team)
		}
	}
	require.Len(t, active, 2)
	assert.Len(t, dissolved, 2)

	var members []string
	activeIDs := map[string]bool{}
	for _, team := range active {
		assert.Len(t, team.Members, 2)
		members = append(members, team.MemberIDs()...)
		activeIDs[team.ID] = true
	}
	assert.ElementsMatch(t, []string{"p1", "p2", "p3", "p4"}, members)

	require.Len(t, draw.Matches, 1)
	assert.True(t, activeIDs[*draw.Matches[0].SideAID])
	assert.True(t, activeIDs[*draw.Matches[0].SideBID])
}

func TestStartTournamentConstitutesTeams(t *testing.T) {
	h := newHarness(t, models.Tournament{Mode: models.ModeMelee, TeamType: models.TeamTypeTriplette, Status: models.StatusRegistration})
	for i := 1; i <= 7; i++ {
		h.db.players = append(h.db.players, &models.Player{ID: fmt.Sprintf("p%d", i), TournamentID: tid})
	}

	res, err := h.svc.StartTournament(context.Background(), tid)
	require.NoError(t, err)

	sizes := make([]int, len(res.Teams))
	for i, team := range res.Teams {
		sizes[i] = len(team.Members)
		assert.Equal(t, i+1, team.DrawNumber)
		assert.NotEmpty(t, team.ID)
	}
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Len(t, h.db.teams, 3)
	assert.Equal(t, models.StatusInProgress, h.db.tournaments[tid].Status)
	assert.Equal(t, models.StatusInProgress, res.Tournament.Status)
	assert.Equal(t, []string{realtime.MessageTournamentStarted}, h.messageTypes())
	assert.Equal(t, []string{"draw:lock:t1:start"}, h.locker.released)

	_, err = h.svc.StartTournament(context.Background(), tid)
	assert.ErrorIs(t, err, ErrTournamentNotRegistering)
}

func TestStartTournamentFormedNeedsTwoTeams(t *testing.T) {
	h := newHarness(t, models.Tournament{Mode: models.ModeFormed, TeamType: models.TeamTypeDoublette, Status: models.StatusRegistration})
	h.addTeams("A")

	_, err := h.svc.StartTournament(context.Background(), tid)
	assert.ErrorIs(t, err, ErrNotEnoughCompetitors)
	assert.Equal(t, models.StatusRegistration, h.db.tournaments[tid].Status)

	h.addTeams("B")
	res, err := h.svc.StartTournament(context.Background(), tid)
	require.NoError(t, err)
	assert.Len(t, res.Teams, 2)
	assert.Len(t, h.db.teams, 2)
}

func TestStartTournamentRejectsUnknownTeamType(t *testing.T) {
	h := newHarness(t, models.Tournament{Mode: models.ModeMelee, TeamType: "quadrette", Status: models.StatusRegistration})
	for i := 1; i <= 4; i++ {
		h.db.players = append(h.db.players, &models.Player{ID: fmt.Sprintf("p%d", i), TournamentID: tid})
	}
	_, err := h.svc.StartTournament(context.Background(), tid)
	assert.ErrorIs(t, err, ErrInvalidTeamType)
}

func TestDrawBracketLinksMatches(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B", "C", "D", "E")
	h.addTerrains("T1")
	h.seed = "bracket"

	draw, err := h.svc.DrawBracket(context.Background(), tid)
	require.NoError(t, err)

	assert.Len(t, draw.Slots, 8)
	require.Len(t, draw.Matches, 4)
	byUID := map[string]*models.Match{}
	for _, m := range draw.Matches {
		byUID[*m.BracketUID] = m
	}
	r1m1, r2m1, r2m2, r3m1 := byUID["R1M1"], byUID["R2M1"], byUID["R2M2"], byUID["R3M1"]
	require.NotNil(t, r1m1)
	require.NotNil(t, r2m1)
	require.NotNil(t, r2m2)
	require.NotNil(t, r3m1)

	assert.Equal(t, "A", *r1m1.SideAID)
	assert.Equal(t, "E", *r1m1.SideBID)
	assert.Equal(t, "T1", *r1m1.Terrain)
	assert.Equal(t, r2m1.ID, *r1m1.NextMatchID)
	assert.Equal(t, 1, *r1m1.WinnerToSlot)
	assert.Equal(t, r3m1.ID, *r2m1.NextMatchID)
	assert.Equal(t, 1, *r2m1.WinnerToSlot)
	assert.Equal(t, r3m1.ID, *r2m2.NextMatchID)
	assert.Equal(t, 2, *r2m2.WinnerToSlot)
	assert.Nil(t, r3m1.NextMatchID)
	assert.Nil(t, r2m1.SideAID)
	assert.Equal(t, "C", *r2m1.SideBID)

	require.Len(t, h.db.logs, 1)
	log := h.db.logs[0]
	assert.Equal(t, models.DrawKindBracket, log.Kind)
	assert.Len(t, log.Pairings, 4)
	assert.Equal(t, []string{realtime.MessageBracketDrawn}, h.messageTypes())

	_, err = h.svc.DrawBracket(context.Background(), tid)
	assert.ErrorIs(t, err, ErrBracketAlreadyDrawn)
}

func TestDrawPools(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	for i := 1; i <= 10; i++ {
		h.addTeams(fmt.Sprint(i))
	}
	h.seed = "2024-05-01-xyz"

	draw, err := h.svc.DrawPools(context.Background(), tid, PoolDrawInput{PoolSize: 3})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"8", "6", "4", "2"}, {"3", "7", "10"}, {"1", "9", "5"}}, draw.Pools)
	require.Len(t, draw.Matches, 12)
	perPool := map[int]int{}
	for _, m := range draw.Matches {
		require.NotNil(t, m.Pool)
		perPool[*m.Pool]++
		assert.Equal(t, models.MatchStatusScheduled, m.Status)
	}
	assert.Equal(t, map[int]int{1: 6, 2: 3, 3: 3}, perPool)

	require.Len(t, h.db.logs, 1)
	assert.Equal(t, models.DrawConstraints{PoolSize: 3, Legs: 1}, h.db.logs[0].Constraints)
	assert.Equal(t, []string{realtime.MessagePoolsDrawn}, h.messageTypes())

	_, err = h.svc.DrawPools(context.Background(), tid, PoolDrawInput{PoolSize: 3})
	assert.ErrorIs(t, err, ErrPoolsAlreadyDrawn)
}

func TestDrawPoolsValidatesInput(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B", "C")

	_, err := h.svc.DrawPools(context.Background(), tid, PoolDrawInput{PoolSize: 2})
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = h.svc.DrawPools(context.Background(), tid, PoolDrawInput{Legs: 3})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Empty(t, h.locker.acquired)
}

func TestVerifyDraw(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B", "C", "D", "E", "F", "G")

	_, err := h.svc.LaunchMeleeRound(context.Background(), tid, 1)
	require.NoError(t, err)

	v, err := h.svc.VerifyDraw(context.Background(), tid, 1)
	require.NoError(t, err)
	assert.True(t, v.Consistent)
	assert.Equal(t, "fixed-seed", v.Seed)
	assert.Equal(t, v.Stored, v.Replayed)

	stored := h.db.logs[0]
	stored.Pairings[0], stored.Pairings[1] = stored.Pairings[1], stored.Pairings[0]
	v, err = h.svc.VerifyDraw(context.Background(), tid, 1)
	require.NoError(t, err)
	assert.False(t, v.Consistent)

	_, err = h.svc.VerifyDraw(context.Background(), tid, 2)
	assert.ErrorIs(t, err, ErrDrawLogNotFound)
	_, err = h.svc.GetDrawLog(context.Background(), tid, models.DrawKindPools, 0)
	assert.ErrorIs(t, err, ErrDrawLogNotFound)
}

func TestReplayMeleeDrawRejectsOtherKinds(t *testing.T) {
	_, err := ReplayMeleeDraw(&models.DrawLog{Kind: models.DrawKindBracket})
	assert.ErrorIs(t, err, ErrDrawNotVerifiable)
}

func TestArchiveFailureDoesNotFailDraw(t *testing.T) {
	h := newHarness(t, inProgress(models.ModeFormed, 0))
	h.addTeams("A", "B")
	h.archiver.err = errors.New("bucket unavailable")

	_, err := h.svc.LaunchMeleeRound(context.Background(), tid, 1)
	require.NoError(t, err)
	assert.Len(t, h.db.logs, 1)
	assert.Equal(t, []string{realtime.MessageRoundStarted}, h.messageTypes())
}
