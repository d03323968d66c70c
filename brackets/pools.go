package brackets

import "fmt"

// MinPoolSize is the smallest accepted target pool size.
const MinPoolSize = 3

// AssignPools deals shuffled ids cyclically into len(ids)/poolSize pools
// (at least one). Pools left with fewer than two members are dropped.
func AssignPools(ids []string, poolSize int, seed string) ([][]string, error) {
	if poolSize < MinPoolSize {
		return nil, fmt.Errorf("%w: pool size must be at least %d, got %d", ErrInvalidInput, MinPoolSize, poolSize)
	}
	if err := checkIDs(ids); err != nil {
		return nil, err
	}

	shuffled := Shuffle(ids, NewSeededStream(seed))
	poolCount := max(1, len(shuffled)/poolSize)

	pools := make([][]string, poolCount)
	for i, id := range shuffled {
		pools[i%poolCount] = append(pools[i%poolCount], id)
	}

	kept := make([][]string, 0, poolCount)
	for _, pool := range pools {
		if len(pool) >= 2 {
			kept = append(kept, pool)
		}
	}
	return kept, nil
}
