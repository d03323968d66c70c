package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i+1)
	}
	return ids
}

func TestConstituteTeamsSingletons(t *testing.T) {
	groups, err := ConstituteTeams([]string{"a", "b", "c"}, 1, "seed")
	require.NoError(t, err)
	assert.Equal(t, []TeamGroup{{"a"}, {"b"}, {"c"}}, groups)
}

func TestConstituteTeamsKnownSeed(t *testing.T) {
	groups, err := ConstituteTeams([]string{"A", "B", "C", "D", "E", "F", "G", "H"}, 3, "s1")
	require.NoError(t, err)
	assert.Equal(t, []TeamGroup{{"G", "E", "D"}, {"C", "F", "B"}, {"H", "A"}}, groups)
}

func TestConstituteTeamsCompleteness(t *testing.T) {
	for k := 2; k <= 3; k++ {
		for n := 1; n <= 25; n++ {
			t.Run(fmt.Sprintf("n=%d/k=%d", n, k), func(t *testing.T) {
				ids := playerIDs(n)
				groups, err := ConstituteTeams(ids, k, "completeness")
				require.NoError(t, err)

				seen := map[string]int{}
				for i, g := range groups {
					require.NotEmpty(t, g)
					require.LessOrEqual(t, len(g), k)
					if i < len(groups)-1 {
						assert.Len(t, g, k, "only the last group may be short")
					}
					for _, id := range g {
						seen[id]++
					}
				}
				assert.Len(t, seen, n)
				for id, count := range seen {
					assert.Equal(t, 1, count, "player %s", id)
				}
				assert.Len(t, groups, (n+k-1)/k)
			})
		}
	}
}

func TestConstituteTeamsRemainderGoesToLastGroup(t *testing.T) {
	cases := []struct {
		players  int
		teamSize int
		want     []int
	}{
		{players: 7, teamSize: 3, want: []int{3, 3, 1}},
		{players: 10, teamSize: 4, want: []int{4, 4, 2}},
		{players: 11, teamSize: 3, want: []int{3, 3, 3, 2}},
		{players: 2, teamSize: 3, want: []int{2}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d", tc.players, tc.teamSize), func(t *testing.T) {
			groups, err := ConstituteTeams(playerIDs(tc.players), tc.teamSize, "s")
			require.NoError(t, err)

			sizes := make([]int, len(groups))
			for i, g := range groups {
				sizes[i] = len(g)
			}
			assert.Equal(t, tc.want, sizes)
		})
	}
}

func TestConstituteTeamsSlicesShuffledOrder(t *testing.T) {
	ids := playerIDs(7)
	groups, err := ConstituteTeams(ids, 3, "s")
	require.NoError(t, err)

	shuffled := Shuffle(ids, NewSeededStream("s"))
	var flat []string
	for _, g := range groups {
		flat = append(flat, g...)
	}
	assert.Equal(t, shuffled, flat)
}

func TestConstituteTeamsDeterministic(t *testing.T) {
	a, err := ConstituteTeams(playerIDs(12), 2, "same")
	require.NoError(t, err)
	b, err := ConstituteTeams(playerIDs(12), 2, "same")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConstituteTeamsRejectsInvalidInput(t *testing.T) {
	_, err := ConstituteTeams(playerIDs(4), 0, "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ConstituteTeams([]string{"a", "a"}, 2, "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
