package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dosada05/petanque-system/services"
)

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "drawctl",
		Short: "Run petanque draws offline",
		Long: heredoc.Doc(`drawctl runs the draw algorithms of the server on JSON
			files, without a database. Every command reads its input
			from the file given as argument, or from stdin when the
			argument is omitted or "-", and prints JSON on stdout.

			Given the same input and seed, drawctl prints exactly what
			the server drew, which makes it the tool of choice to
			audit a contested draw.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flag("verbose").Changed {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Show debug information")

	root.AddCommand(Teams())
	root.AddCommand(Pair())
	root.AddCommand(Bracket())
	root.AddCommand(Pools())
	root.AddCommand(RoundRobin())
	root.AddCommand(Replay())

	return root
}

// readInput decodes the JSON input of a command into dst.
func readInput(cmd *cobra.Command, args []string, dst interface{}) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

func writeOutput(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// seedFlag returns the --seed value, drawing a fresh one when it is empty.
func seedFlag(cmd *cobra.Command) string {
	seed, _ := cmd.Flags().GetString("seed")
	if seed == "" {
		seed = services.NewSeed(time.Now())
		logrus.Infof("no seed given, using %s", seed)
	}
	return seed
}

func addSeedFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("seed", "s", "", "Seed of the draw (random when empty)")
}
