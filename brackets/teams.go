package brackets

import "fmt"

// TeamGroup is an ordered list of player ids forming one team.
type TeamGroup []string

// ConstituteTeams groups individually registered players into teams of
// teamSize. The shuffled ids are cut into consecutive runs; when the count
// does not divide evenly, the last group takes every remaining player.
func ConstituteTeams(playerIDs []string, teamSize int, seed string) ([]TeamGroup, error) {
	if teamSize < 1 {
		return nil, fmt.Errorf("%w: team size must be at least 1, got %d", ErrInvalidInput, teamSize)
	}
	if err := checkIDs(playerIDs); err != nil {
		return nil, err
	}
	if len(playerIDs) == 0 {
		return []TeamGroup{}, nil
	}

	if teamSize == 1 {
		groups := make([]TeamGroup, len(playerIDs))
		for i, id := range playerIDs {
			groups[i] = TeamGroup{id}
		}
		return groups, nil
	}

	shuffled := Shuffle(playerIDs, NewSeededStream(seed))

	groups := make([]TeamGroup, 0, (len(shuffled)+teamSize-1)/teamSize)
	for start := 0; start < len(shuffled); start += teamSize {
		end := min(start+teamSize, len(shuffled))
		group := make(TeamGroup, end-start)
		copy(group, shuffled[start:end])
		groups = append(groups, group)
	}
	return groups, nil
}
