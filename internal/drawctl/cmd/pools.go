package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Dosada05/petanque-system/brackets"
)

// drawctl pools
func Pools() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools [file]",
		Short: "Split teams into round robin pools",
		Long: heredoc.Doc(`pools deals a JSON array of team ids into pools of about
			--size teams and schedules a round robin in each pool.`),
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []string
			if err := readInput(cmd, args, &ids); err != nil {
				return err
			}
			size, _ := cmd.Flags().GetInt("size")
			legs, _ := cmd.Flags().GetInt("legs")
			seed := seedFlag(cmd)

			pools, err := brackets.AssignPools(ids, size, seed)
			if err != nil {
				return err
			}
			matches, err := brackets.NewPoolPlayGenerator().GenerateBracket(cmd.Context(), brackets.GenerateBracketParams{
				CompetitorIDs: ids,
				Seed:          seed,
				PoolSize:      size,
				Legs:          legs,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, map[string]interface{}{"seed": seed, "pools": pools, "matches": matches})
		},
	}

	cmd.Flags().IntP("size", "n", 4, "Target pool size")
	cmd.Flags().Int("legs", 1, "1 for a single round robin, 2 for home and away")
	addSeedFlag(cmd)
	return cmd
}

// drawctl roundrobin
func RoundRobin() *cobra.Command {
	return &cobra.Command{
		Use:   "roundrobin [file]",
		Short: "List every pairing of a round robin",
		Args:  cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []string
			if err := readInput(cmd, args, &ids); err != nil {
				return err
			}
			return writeOutput(cmd, brackets.RoundRobinPairs(ids))
		},
	}
}
