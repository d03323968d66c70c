package cmd

import (
	"errors"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/services"
)

var errDrawMismatch = errors.New("replayed pairings differ from the stored ones")

// drawctl replay
func Replay() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [file]",
		Short: "Replay an archived melee draw log",
		Long: heredoc.Doc(`replay reads a draw log, as archived by the server, draws
			the round again from its seed and competitor snapshot and
			compares the result with the stored pairings. It exits
			with an error when they differ.`),
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			var log models.DrawLog
			if err := readInput(cmd, args, &log); err != nil {
				return err
			}

			replayed, err := services.ReplayMeleeDraw(&log)
			if err != nil {
				return err
			}
			consistent := slices.Equal(log.Pairings, replayed)
			if err := writeOutput(cmd, map[string]interface{}{
				"tournament_id": log.TournamentID,
				"round":         log.Round,
				"seed":          log.Seed,
				"consistent":    consistent,
				"replayed":      replayed,
			}); err != nil {
				return err
			}
			if !consistent {
				return errDrawMismatch
			}
			logrus.Debugf("draw %s of round %d is consistent", log.ID, log.Round)
			return nil
		},
	}
}
