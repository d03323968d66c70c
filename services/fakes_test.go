package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/repositories"
)

// memDB backs every fake repository of the package tests.
type memDB struct {
	mu          sync.Mutex
	tournaments map[string]*models.Tournament
	players     []*models.Player
	teams       []*models.Team
	matches     []*models.Match
	terrains    []*models.Terrain
	logs        []*models.DrawLog
	seq         int
}

func newMemDB() *memDB {
	return &memDB{tournaments: map[string]*models.Tournament{}}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s%d", prefix, db.seq)
}

type fakeTournamentRepo struct{ db *memDB }

func (r fakeTournamentRepo) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id string, status models.TournamentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tournaments[id].Status = status
	return nil
}

func (r fakeTournamentRepo) UpdateCurrentRound(_ context.Context, _ repositories.SQLExecutor, id string, round int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tournaments[id].CurrentRound = max(r.db.tournaments[id].CurrentRound, round)
	return nil
}

type fakePlayerRepo struct{ db *memDB }

func (r fakePlayerRepo) ListByTournament(_ context.Context, tournamentID string) ([]*models.Player, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var players []*models.Player
	for _, p := range r.db.players {
		if p.TournamentID == tournamentID {
			players = append(players, p)
		}
	}
	return players, nil
}

type fakeTeamRepo struct{ db *memDB }

func (r fakeTeamRepo) ListActive(_ context.Context, tournamentID string) ([]*models.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var teams []*models.Team
	for _, t := range r.db.teams {
		if t.TournamentID == tournamentID && t.Status == models.TeamStatusActive {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

func (r fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if team.ID == "" {
		team.ID = r.db.nextID("team-")
	}
	r.db.teams = append(r.db.teams, team)
	return nil
}

func (r fakeTeamRepo) DeleteWithoutMatches(_ context.Context, _ repositories.SQLExecutor, tournamentID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	played := map[string]bool{}
	for _, m := range r.db.matches {
		if m.SideAID != nil {
			played[*m.SideAID] = true
		}
		if m.SideBID != nil {
			played[*m.SideBID] = true
		}
	}
	var deleted int64
	kept := r.db.teams[:0]
	for _, t := range r.db.teams {
		if t.TournamentID == tournamentID && t.Status == models.TeamStatusActive && !played[t.ID] {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	r.db.teams = kept
	return deleted, nil
}

func (r fakeTeamRepo) DissolveActive(_ context.Context, _ repositories.SQLExecutor, tournamentID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, t := range r.db.teams {
		if t.TournamentID == tournamentID && t.Status == models.TeamStatusActive {
			t.Status = models.TeamStatusDissolved
			n++
		}
	}
	return n, nil
}

type fakeMatchRepo struct {
	db        *memDB
	createErr error
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if m.ID == "" {
		m.ID = r.db.nextID("match-")
	}
	r.db.matches = append(r.db.matches, m)
	return nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID string, filter repositories.MatchFilter) ([]*models.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matches []*models.Match
	for _, m := range r.db.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Round != nil && m.Round != *filter.Round {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, m.Status) {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *fakeMatchRepo) UpdateNextMatchInfo(_ context.Context, _ repositories.SQLExecutor, matchID string, nextMatchID *string, winnerToSlot *int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.matches {
		if m.ID == matchID {
			m.NextMatchID = nextMatchID
			m.WinnerToSlot = winnerToSlot
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

type fakeTerrainRepo struct{ db *memDB }

func (r fakeTerrainRepo) ListByTournament(_ context.Context, tournamentID string) ([]*models.Terrain, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var terrains []*models.Terrain
	for _, t := range r.db.terrains {
		if t.TournamentID == tournamentID {
			terrains = append(terrains, t)
		}
	}
	return terrains, nil
}

type fakeDrawLogRepo struct{ db *memDB }

func (r fakeDrawLogRepo) find(tournamentID string, kind models.DrawKind, round int) *models.DrawLog {
	for _, l := range r.db.logs {
		if l.TournamentID == tournamentID && l.Kind == kind && l.Round == round {
			return l
		}
	}
	return nil
}

func (r fakeDrawLogRepo) Create(_ context.Context, _ repositories.SQLExecutor, log *models.DrawLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.find(log.TournamentID, log.Kind, log.Round) != nil {
		return repositories.ErrDrawLogConflict
	}
	if log.ID == "" {
		log.ID = r.db.nextID("log-")
	}
	r.db.logs = append(r.db.logs, log)
	return nil
}

func (r fakeDrawLogRepo) GetByRound(_ context.Context, tournamentID string, kind models.DrawKind, round int) (*models.DrawLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if l := r.find(tournamentID, kind, round); l != nil {
		return l, nil
	}
	return nil, repositories.ErrDrawLogNotFound
}

func (r fakeDrawLogRepo) Exists(_ context.Context, tournamentID string, kind models.DrawKind, round int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(tournamentID, kind, round) != nil, nil
}

type fakeTransactor struct{ calls int }

func (f *fakeTransactor) RunInTx(_ context.Context, fn func(tx repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired []string
	released []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) TryAcquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return "", false, nil
	}
	l.held[key] = true
	l.acquired = append(l.acquired, key)
	return "token-" + key, true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != "token-"+key {
		return fmt.Errorf("wrong token %q for %s", token, key)
	}
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

type sentMessage struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{room: roomID, message: message})
}

type fakeArchiver struct {
	archived []*models.DrawLog
	err      error
}

func (a *fakeArchiver) Archive(_ context.Context, log *models.DrawLog) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.archived = append(a.archived, log)
	return DrawArchiveKey(log), nil
}
