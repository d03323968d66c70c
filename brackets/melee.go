package brackets

import (
	"fmt"
	"sort"
)

// ByeID is the reserved opponent id of a bye pairing.
const ByeID = "BYE"

// DefaultMaxSearchSteps bounds each conflict-free matching search.
const DefaultMaxSearchSteps = 50000

// Competitor is the per-round snapshot of a team consumed by PairRound.
type Competitor struct {
	ID             string              `json:"id"`
	Club           *string             `json:"club,omitempty"`
	Wins           int                 `json:"wins"`
	PriorOpponents map[string]struct{} `json:"-"`
}

// NewCompetitor builds a Competitor from a plain opponent list.
func NewCompetitor(id string, club *string, wins int, opponents ...string) Competitor {
	prior := make(map[string]struct{}, len(opponents))
	for _, o := range opponents {
		prior[o] = struct{}{}
	}
	return Competitor{ID: id, Club: club, Wins: wins, PriorOpponents: prior}
}

func (c *Competitor) hasMet(id string) bool {
	_, ok := c.PriorOpponents[id]
	return ok
}

func (c *Competitor) clubName() string {
	if c.Club == nil {
		return ""
	}
	return *c.Club
}

// Pairing is one match of a round. A bye has IsBye set and SideB == ByeID.
type Pairing struct {
	SideA string `json:"side_a"`
	SideB string `json:"side_b"`
	IsBye bool   `json:"is_bye,omitempty"`
}

type PairingResult struct {
	Pairings        []Pairing `json:"pairings"`
	Seed            string    `json:"seed"`
	ByeCompetitorID *string   `json:"bye_competitor_id,omitempty"`
}

type PairingOptions struct {
	// AvoidSameClub keeps clubmates apart during rounds 1 and 2.
	AvoidSameClub bool
	// MaxSearchSteps caps each backtracking search. Zero means DefaultMaxSearchSteps.
	MaxSearchSteps int
}

// PairRound draws the matches of a mêlée round.
//
// Competitors are stratified by win count (highest first) and shuffled within
// each stratum. With an odd count, a competitor of the lowest stratum gets the
// bye. The rest is paired avoiding rematches and, in rounds 1-2 when asked,
// clubmates; when no such matching exists the constraints are relaxed
// one anchor at a time, ending with forced rematches.
func PairRound(competitors []Competitor, round int, seed string, opts PairingOptions) (*PairingResult, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: round must be at least 1, got %d", ErrInvalidInput, round)
	}

	lookup := make(map[string]*Competitor, len(competitors))
	ids := make([]string, len(competitors))
	for i := range competitors {
		c := &competitors[i]
		if c.Wins < 0 {
			return nil, fmt.Errorf("%w: competitor %q has negative wins", ErrInvalidInput, c.ID)
		}
		if c.ID == ByeID {
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidInput, ByeID)
		}
		ids[i] = c.ID
		lookup[c.ID] = c
	}
	if err := checkIDs(ids); err != nil {
		return nil, err
	}

	result := &PairingResult{Pairings: []Pairing{}, Seed: seed}
	if len(competitors) == 0 {
		return result, nil
	}

	rng := NewSeededStream(seed)

	strata := make(map[int][]string)
	for _, c := range competitors {
		strata[c.Wins] = append(strata[c.Wins], c.ID)
	}
	levels := make([]int, 0, len(strata))
	for wins := range strata {
		levels = append(levels, wins)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))

	ordered := make([]string, 0, len(competitors))
	for _, wins := range levels {
		ordered = append(ordered, Shuffle(strata[wins], rng)...)
	}

	var byeID string
	if len(ordered)%2 == 1 {
		lowest := Shuffle(strata[levels[len(levels)-1]], rng)
		byeID = lowest[0]
		remaining := make([]string, 0, len(ordered)-1)
		for _, id := range ordered {
			if id != byeID {
				remaining = append(remaining, id)
			}
		}
		ordered = remaining
	}

	maxSteps := opts.MaxSearchSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSearchSteps
	}
	p := &pairer{
		lookup:        lookup,
		avoidSameClub: opts.AvoidSameClub && round <= 2,
		maxSteps:      maxSteps,
	}
	result.Pairings = p.pairAll(ordered)

	if byeID != "" {
		result.Pairings = append(result.Pairings, Pairing{SideA: byeID, SideB: ByeID, IsBye: true})
		result.ByeCompetitorID = &byeID
	}
	return result, nil
}

type constraint int

const (
	noRematchNoClubmate constraint = iota
	noRematch
)

type pairer struct {
	lookup        map[string]*Competitor
	avoidSameClub bool
	maxSteps      int
}

func (p *pairer) allowed(a, b string, c constraint) bool {
	ca, cb := p.lookup[a], p.lookup[b]
	if ca.hasMet(b) || cb.hasMet(a) {
		return false
	}
	if c == noRematchNoClubmate && p.avoidSameClub {
		club := ca.clubName()
		if club != "" && club == cb.clubName() {
			return false
		}
	}
	return true
}

// pairAll pairs an even-length list anchor by anchor. While a complete
// matching without rematches (and clubmates, when asked) exists it is taken
// whole. Otherwise the anchor meets its first allowed partner in list order,
// relaxing the club rule and then the rematch rule, and the remainder is
// handled the same way.
func (p *pairer) pairAll(ids []string) []Pairing {
	pairings := make([]Pairing, 0, len(ids)/2)
	for len(ids) >= 2 {
		if p.avoidSameClub {
			if found, ok := p.strict(ids, noRematchNoClubmate); ok {
				return append(pairings, found...)
			}
		}
		if found, ok := p.strict(ids, noRematch); ok {
			return append(pairings, found...)
		}

		partner := p.firstAllowed(ids)
		pairings = append(pairings, Pairing{SideA: ids[0], SideB: ids[partner]})

		rest := make([]string, 0, len(ids)-2)
		rest = append(rest, ids[1:partner]...)
		ids = append(rest, ids[partner+1:]...)
	}
	return pairings
}

// firstAllowed returns the index of the anchor's partner once no complete
// strict matching is left. 1 means a forced pairing with the next competitor.
func (p *pairer) firstAllowed(ids []string) int {
	anchor := ids[0]
	tiers := []constraint{noRematch}
	if p.avoidSameClub {
		tiers = []constraint{noRematchNoClubmate, noRematch}
	}
	for _, c := range tiers {
		for i := 1; i < len(ids); i++ {
			if p.allowed(anchor, ids[i], c) {
				return i
			}
		}
	}
	return 1
}

func (p *pairer) strict(ids []string, c constraint) ([]Pairing, bool) {
	s := &search{p: p, c: c}
	return s.solve(ids, make([]Pairing, 0, len(ids)/2))
}

type search struct {
	p         *pairer
	c         constraint
	steps     int
	exhausted bool
}

func (s *search) solve(ids []string, acc []Pairing) ([]Pairing, bool) {
	if len(ids) == 0 {
		return acc, true
	}
	s.steps++
	if s.steps > s.p.maxSteps {
		s.exhausted = true
		return nil, false
	}

	anchor, rest := ids[0], ids[1:]
	for i, candidate := range rest {
		if !s.p.allowed(anchor, candidate, s.c) {
			continue
		}
		remaining := make([]string, 0, len(rest)-1)
		remaining = append(remaining, rest[:i]...)
		remaining = append(remaining, rest[i+1:]...)

		if found, ok := s.solve(remaining, append(acc, Pairing{SideA: anchor, SideB: candidate})); ok {
			return found, true
		}
		if s.exhausted {
			return nil, false
		}
	}
	return nil, false
}
