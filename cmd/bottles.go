package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/sander-remitly/knapsnack/internal/models"
	"github.com/spf13/cobra"
)

// bottlesCmd represents the bottles command
var bottlesCmd = &cobra.Command{
	Use:   "bottles",
	Short: "Show the stored bottle inventory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		repository, err := openRepository(cfg.DBPath)
		if err != nil {
			return err
		}
		defer repository.Close()

		bottles, err := repository.GetBottles()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, weight := range algorithm.SortedWeights(bottles) {
			fmt.Fprintf(out, "%6d g  x %d\n", weight, bottles[weight])
		}
		return nil
	},
}

// bottlesSetCmd replaces the stored inventory
var bottlesSetCmd = &cobra.Command{
	Use:     "set <grams>=<count>...",
	Short:   "Replace the stored bottle inventory",
	Example: "  knapsnack bottles set 330=4 500=3 1000=2",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		bottles, err := parseBottleArgs(args)
		if err != nil {
			return err
		}

		repository, err := openRepository(cfg.DBPath)
		if err != nil {
			return err
		}
		defer repository.Close()

		if err := repository.SetBottles(bottles); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d bottle sizes\n", len(bottles))
		return nil
	},
}

func init() {
	bottlesCmd.AddCommand(bottlesSetCmd)
	rootCmd.AddCommand(bottlesCmd)
}

func parseBottleArgs(args []string) (map[int]int, error) {
	raw := make(map[string]int, len(args))
	for _, arg := range args {
		weight, count, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected <grams>=<count>, got %q", arg)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid count in %q", arg)
		}
		raw[strings.TrimSpace(weight)] = n
	}
	return models.ParseBottles(raw)
}
