package brackets

import (
	"context"
	"fmt"
	"sort"
)

const PoolPlayName = "PoolPlay"

// RoundRobinPairs lists every unordered pair of ids once, in index order.
func RoundRobinPairs(ids []string) [][2]string {
	n := len(ids)
	if n < 2 {
		return [][2]string{}
	}
	pairs := make([][2]string, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]string{ids[i], ids[j]})
		}
	}
	return pairs
}

type PoolPlayGenerator struct{}

func NewPoolPlayGenerator() BracketGenerator {
	return &PoolPlayGenerator{}
}

func (g *PoolPlayGenerator) GetName() string {
	return PoolPlayName
}

// GenerateBracket splits the competitors into pools and schedules a round
// robin inside each pool. With two legs every pairing is played again with
// the sides swapped.
func (g *PoolPlayGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if len(params.CompetitorIDs) < 2 {
		return nil, fmt.Errorf("%w: pool play needs at least 2 competitors, got %d", ErrInvalidInput, len(params.CompetitorIDs))
	}
	legs := params.Legs
	if legs != 2 {
		legs = 1
	}

	pools, err := AssignPools(params.CompetitorIDs, params.PoolSize, params.Seed)
	if err != nil {
		return nil, err
	}

	matches := make([]*BracketMatch, 0)
	for p, pool := range pools {
		poolNumber := p + 1
		pairs := RoundRobinPairs(pool)
		for k, pair := range pairs {
			p1, p2 := pair[0], pair[1]
			matches = append(matches, &BracketMatch{
				UID:            fmt.Sprintf("P%dM%d", poolNumber, k+1),
				Round:          1,
				OrderInRound:   k + 1,
				Pool:           &poolNumber,
				Participant1ID: &p1,
				Participant2ID: &p2,
			})
			if legs == 2 {
				matches = append(matches, &BracketMatch{
					UID:            fmt.Sprintf("P%dM%dL2", poolNumber, k+1),
					Round:          2,
					OrderInRound:   k + 1,
					Pool:           &poolNumber,
					Participant1ID: &p2,
					Participant2ID: &p1,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return *matches[i].Pool < *matches[j].Pool
	})
	return matches, nil
}
