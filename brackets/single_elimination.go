package brackets

import (
	"context"
	"fmt"
	"math/bits"
	"sort"
)

const SingleEliminationName = "SingleElimination"

type node struct {
	participantID    *string
	sourceMatchUID   *string
	isByePlaceholder bool
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return SingleEliminationName
}

// GenerateBracket builds the whole elimination tree from BuildBracket slots.
// First-round match k opposes slot k and slot k+size/2, so every bye (always
// in the tail of the slots) faces a real competitor and advances it directly.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	n := len(params.CompetitorIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w: single elimination needs at least 2 competitors, got %d", ErrInvalidInput, n)
	}

	slots, err := BuildBracket(params.CompetitorIDs, params.Seed)
	if err != nil {
		return nil, err
	}
	size := len(slots)
	numRounds := bits.TrailingZeros(uint(size))
	half := size / 2

	currentRoundNodes := make([]*node, 0, size)
	for k := 0; k < half; k++ {
		for _, slot := range []BracketSlot{slots[k], slots[k+half]} {
			if slot.IsBye {
				currentRoundNodes = append(currentRoundNodes, &node{isByePlaceholder: true})
			} else {
				currentRoundNodes = append(currentRoundNodes, &node{participantID: slot.CompetitorID})
			}
		}
	}

	allGeneratedMatches := make([]*BracketMatch, 0, size-1)
	for r := 1; r <= numRounds; r++ {
		nextRoundNodes := make([]*node, 0, len(currentRoundNodes)/2)

		for i := 0; i < len(currentRoundNodes); i += 2 {
			node1, node2 := currentRoundNodes[i], currentRoundNodes[i+1]
			order := i/2 + 1
			currentMatchUID := fmt.Sprintf("R%dM%d", r, order)

			bm := &BracketMatch{
				UID:          currentMatchUID,
				Round:        r,
				OrderInRound: order,
			}

			switch {
			case node1.isByePlaceholder && node2.isByePlaceholder:
				return nil, fmt.Errorf("internal error: two byes met in match %s", currentMatchUID)

			case node1.participantID != nil && node2.isByePlaceholder,
				node2.participantID != nil && node1.isByePlaceholder:
				advancing := node1.participantID
				if advancing == nil {
					advancing = node2.participantID
				}
				bm.IsBye = true
				bm.ByeParticipantID = advancing
				bm.Participant1ID = advancing
				nextRoundNodes = append(nextRoundNodes, &node{participantID: advancing})

			default:
				bm.Participant1ID = node1.participantID
				bm.Participant2ID = node2.participantID
				bm.SourceMatch1UID = node1.sourceMatchUID
				bm.SourceMatch2UID = node2.sourceMatchUID
				bm.IsPlaceholder = node1.participantID == nil || node2.participantID == nil
				uid := currentMatchUID
				nextRoundNodes = append(nextRoundNodes, &node{sourceMatchUID: &uid})
			}

			allGeneratedMatches = append(allGeneratedMatches, bm)
		}
		currentRoundNodes = nextRoundNodes
	}

	sort.Slice(allGeneratedMatches, func(i, j int) bool {
		if allGeneratedMatches[i].Round != allGeneratedMatches[j].Round {
			return allGeneratedMatches[i].Round < allGeneratedMatches[j].Round
		}
		return allGeneratedMatches[i].OrderInRound < allGeneratedMatches[j].OrderInRound
	})

	return allGeneratedMatches, nil
}
