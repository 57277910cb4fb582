package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/sander-remitly/knapsnack/internal/mass"
	"github.com/sander-remitly/knapsnack/internal/models"
	"github.com/sander-remitly/knapsnack/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var solveFlags struct {
	bottlesFile string
	target      string
	bag         string
	noOvershoot bool
	ratio       float64
	penalty     int
	verify      bool
}

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Pick bottles for a target weight",
	Long: `Pick the bottle combination closest to a target weight and print a report.

The target and bag weights are prompted for unless given with --target and
--bag. Plain target numbers are kilograms, plain bag numbers are grams; both
accept kg, g and lb suffixes. An empty bag weight uses the configured default.`,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveFlags.bottlesFile, "bottles", "b", "", `JSON file of {"<grams>": count} (defaults to the stored inventory)`)
	f.StringVarP(&solveFlags.target, "target", "t", "", "Target weight (e.g. 10kg, 22lb)")
	f.StringVar(&solveFlags.bag, "bag", "", "Bag weight (e.g. 770g, 1.7lb)")
	f.BoolVar(&solveFlags.noOvershoot, "no-overshoot", false, "Never exceed the target weight")
	f.Float64Var(&solveFlags.ratio, "ratio", 0.5, "Overshoot ratio")
	f.IntVar(&solveFlags.penalty, "penalty", 50, "Penalty per bottle in grams")
	f.BoolVar(&solveFlags.verify, "verify", false, "Cross-check the result by exhaustive search")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	bottles, err := loadBottles(solveFlags.bottlesFile)
	if err != nil {
		return err
	}

	params := cfg.Solver
	flags := cmd.Flags()
	if solveFlags.noOvershoot {
		params.AllowOvershoot = false
	}
	if flags.Changed("ratio") {
		params.OvershootRatio = solveFlags.ratio
	}
	if flags.Changed("penalty") {
		params.BottlePenalty = solveFlags.penalty
	}

	in := solveInput{
		target:    solveFlags.target,
		bag:       solveFlags.bag,
		hasTarget: flags.Changed("target"),
		hasBag:    flags.Changed("bag"),
	}
	return solve(cmd.InOrStdin(), cmd.OutOrStdout(), bottles, in, params, solveFlags.verify)
}

type solveInput struct {
	target, bag       string
	hasTarget, hasBag bool
}

// solve prompts for whatever in leaves unset, solves and writes the report.
func solve(r io.Reader, w io.Writer, bottles map[int]int, in solveInput, params algorithm.Params, verify bool) error {
	scanner := bufio.NewScanner(r)
	prompt := func(label string) (string, error) {
		fmt.Fprint(w, label)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return scanner.Text(), nil
	}

	if !in.hasTarget {
		s, err := prompt("Target  Weight [kg] (e.g. 10kg / 22lb ): ")
		if err != nil {
			return fmt.Errorf("read target weight: %w", err)
		}
		in.target = s
	}
	targetKg, err := mass.ParseKilograms(in.target)
	if err != nil {
		return err
	}
	target := mass.KilogramsToGrams(targetKg)

	if !in.hasBag {
		s, err := prompt("Bag     Weight [g]  (e.g. 770g / 1.7lb): ")
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("read bag weight: %w", err)
		}
		in.bag = s
	}
	bag, err := mass.ParseGrams(in.bag, cfg.DefaultBagWeight)
	if err != nil {
		return err
	}

	result, err := algorithm.Solve(bottles, target, bag, params)
	if err != nil {
		return err
	}

	if verify {
		if err := verifyResult(bottles, target, bag, params, result); err != nil {
			return err
		}
	}

	return report.Write(w, target, bag, result)
}

// verifyResult re-solves by exhaustive search and compares the outcome.
func verifyResult(bottles map[int]int, target, bag int, params algorithm.Params, result algorithm.Result) error {
	expected, err := algorithm.SolveBruteForce(bottles, target, bag, params)
	if errors.Is(err, algorithm.ErrSearchSpaceTooLarge) {
		logger.Log.Warn("Skipping verification", zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	if expected.Score != result.Score || expected.BottlesUsed != result.BottlesUsed ||
		expected.TotalWeight != result.TotalWeight {
		return fmt.Errorf("verification failed: exhaustive search found %v (%d g, score %d), solver found %v (%d g, score %d)",
			expected.Combo, expected.TotalWeight, expected.Score,
			result.Combo, result.TotalWeight, result.Score)
	}

	logger.Log.Debug("Verified against exhaustive search",
		zap.Int("search_space", algorithm.SearchSpace(bottles)),
	)
	return nil
}

// loadBottles reads a {"<grams>": count} file, or the stored inventory when path is empty.
func loadBottles(path string) (map[int]int, error) {
	if path == "" {
		repository, err := openRepository(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		defer repository.Close()
		return repository.GetBottles()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bottles file: %w", err)
	}
	return parseBottlesJSON(data)
}

func parseBottlesJSON(data []byte) (map[int]int, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse bottles file: %w", err)
	}
	for k, n := range raw {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count %d for %q", algorithm.ErrInvalidInput, n, strings.TrimSpace(k))
		}
	}
	return models.ParseBottles(raw)
}
