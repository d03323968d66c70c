package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dosada05/petanque-system/brackets"
	"github.com/Dosada05/petanque-system/models"
)

// drawctl pair
func Pair() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair [file]",
		Short: "Draw the matches of a melee round",
		Long: heredoc.Doc(`pair draws one melee round. The input is the competitor
			snapshot stored with every draw log:

			  [{"id": "A", "club": "Marseille", "wins": 1, "prior_opponents": ["B"]}]

			Teams with the same number of wins meet first, rematches
			are avoided whenever possible and, with --avoid-same-club,
			clubmates are kept apart in rounds 1 and 2.`),
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			var snapshot []models.DrawCompetitor
			if err := readInput(cmd, args, &snapshot); err != nil {
				return err
			}
			round, _ := cmd.Flags().GetInt("round")
			avoidSameClub, _ := cmd.Flags().GetBool("avoid-same-club")
			maxSteps, _ := cmd.Flags().GetInt("max-steps")
			seed := seedFlag(cmd)

			competitors := make([]brackets.Competitor, len(snapshot))
			for i, c := range snapshot {
				competitors[i] = c.Competitor()
			}

			result, err := brackets.PairRound(competitors, round, seed, brackets.PairingOptions{
				AvoidSameClub:  avoidSameClub,
				MaxSearchSteps: maxSteps,
			})
			if err != nil {
				return err
			}
			logrus.Debugf("round %d: %d pairings", round, len(result.Pairings))
			return writeOutput(cmd, result)
		},
	}

	cmd.Flags().IntP("round", "r", 1, "Round number")
	cmd.Flags().Bool("avoid-same-club", false, "Keep clubmates apart in rounds 1 and 2")
	cmd.Flags().Int("max-steps", brackets.DefaultMaxSearchSteps, "Search budget of each matching attempt")
	addSeedFlag(cmd)
	return cmd
}
