package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dosada05/petanque-system/brackets"
)

// drawctl teams
func Teams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams [file]",
		Short: "Group players into teams",
		Long: heredoc.Doc(`teams groups a JSON array of player ids into teams of
			--size players. When the count does not divide evenly,
			the last team takes the remaining players.`),
		Example: heredoc.Doc(`
			$ echo '["ana","bob","cyd","dan","eve","fay","gus"]' | drawctl teams --size 3 --seed s1
		`),
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			var players []string
			if err := readInput(cmd, args, &players); err != nil {
				return err
			}
			size, _ := cmd.Flags().GetInt("size")
			seed := seedFlag(cmd)

			groups, err := brackets.ConstituteTeams(players, size, seed)
			if err != nil {
				return err
			}
			logrus.Debugf("%d players grouped into %d teams", len(players), len(groups))
			return writeOutput(cmd, map[string]interface{}{"seed": seed, "teams": groups})
		},
	}

	cmd.Flags().IntP("size", "n", 3, "Players per team (1, 2 or 3)")
	addSeedFlag(cmd)
	return cmd
}
