package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Dosada05/petanque-system/brackets"
)

// drawctl bracket
func Bracket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bracket [file]",
		Short: "Draw a single elimination bracket",
		Long: heredoc.Doc(`bracket shuffles a JSON array of team ids into a bracket
			sized to the next power of two, byes filling the tail,
			and prints the slots along with every match of the tree.`),
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []string
			if err := readInput(cmd, args, &ids); err != nil {
				return err
			}
			seed := seedFlag(cmd)

			slots, err := brackets.BuildBracket(ids, seed)
			if err != nil {
				return err
			}
			matches, err := brackets.NewSingleEliminationGenerator().GenerateBracket(cmd.Context(), brackets.GenerateBracketParams{
				CompetitorIDs: ids,
				Seed:          seed,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, map[string]interface{}{"seed": seed, "slots": slots, "matches": matches})
		},
	}

	addSeedFlag(cmd)
	return cmd
}
