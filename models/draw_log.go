package models

import (
	"sort"
	"time"

	"github.com/Dosada05/petanque-system/brackets"
)

type DrawKind string

const (
	DrawKindMelee   DrawKind = "melee"
	DrawKindBracket DrawKind = "bracket"
	DrawKindPools   DrawKind = "pools"
)

// DrawConstraints are the options a draw ran with.
type DrawConstraints struct {
	AvoidSameClub  bool `json:"avoid_same_club"`
	AvoidRematches bool `json:"avoid_rematches"`
	MaxSearchSteps int  `json:"max_search_steps,omitempty"`
	PoolSize       int  `json:"pool_size,omitempty"`
	Legs           int  `json:"legs,omitempty"`
}

// DrawCompetitor is the stored snapshot of one competitor at draw time.
type DrawCompetitor struct {
	ID             string   `json:"id"`
	Club           *string  `json:"club,omitempty"`
	Wins           int      `json:"wins"`
	PriorOpponents []string `json:"prior_opponents"`
}

func NewDrawCompetitor(c brackets.Competitor) DrawCompetitor {
	opponents := make([]string, 0, len(c.PriorOpponents))
	for id := range c.PriorOpponents {
		opponents = append(opponents, id)
	}
	sort.Strings(opponents)
	return DrawCompetitor{ID: c.ID, Club: c.Club, Wins: c.Wins, PriorOpponents: opponents}
}

func (d DrawCompetitor) Competitor() brackets.Competitor {
	return brackets.NewCompetitor(d.ID, d.Club, d.Wins, d.PriorOpponents...)
}

// DrawLog keeps what is needed to replay a draw for an audit.
type DrawLog struct {
	ID           string             `json:"id" db:"id"`
	TournamentID string             `json:"tournament_id" db:"tournament_id"`
	Kind         DrawKind           `json:"kind" db:"kind"`
	Round        int                `json:"round" db:"round"`
	Seed         string             `json:"seed" db:"seed"`
	Constraints  DrawConstraints    `json:"constraints" db:"constraints"`
	Competitors  []DrawCompetitor   `json:"competitors" db:"competitors"`
	Pairings     []brackets.Pairing `json:"pairings" db:"pairings"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}
