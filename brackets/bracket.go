package brackets

// BracketSlot is one leaf position of a single-elimination bracket.
type BracketSlot struct {
	Position     int     `json:"position"`
	CompetitorID *string `json:"competitor_id"`
	IsBye        bool    `json:"is_bye"`
}

// NextPowerOfTwo returns the smallest power of two >= n. NextPowerOfTwo(0) is 1.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// BuildBracket shuffles ids into the leaves of a power-of-two bracket.
// Leaves past the last competitor are byes. No ids gives an empty bracket.
func BuildBracket(ids []string, seed string) ([]BracketSlot, error) {
	if err := checkIDs(ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	shuffled := Shuffle(ids, NewSeededStream(seed))
	size := NextPowerOfTwo(len(shuffled))
	slots := make([]BracketSlot, size)
	for i := range slots {
		slots[i].Position = i
		if i < len(shuffled) {
			id := shuffled[i]
			slots[i].CompetitorID = &id
		} else {
			slots[i].IsBye = true
		}
	}
	return slots, nil
}
