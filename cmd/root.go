package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sander-remitly/knapsnack/internal/config"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	port       int
	dbPath     string
	verbose    bool
	configFile string
	bagWeight  string

	// cfg is resolved before any subcommand runs
	cfg config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "knapsnack",
	Short: "Knapsnack - Pack bottles to a target weight",
	Long: `Knapsnack picks the combination of bottles from an inventory whose total
weight, bag included, comes closest to a target weight while using as few
bottles as possible.

It provides a command-line solver, an API and a web UI.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8080, "Server port")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "./data/knapsnack.db", "Database file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&bagWeight, "bag-weight", "", "Default bag weight (e.g. 770g, 1.7lb)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	// A missing .env file is fine
	_ = godotenv.Load()

	logger.Initialize(verbose)

	overrides := &config.Overrides{ConfigFile: configFile}
	flags := cmd.Flags()
	if flags.Changed("port") {
		overrides.Port = &port
	}
	if flags.Changed("db") {
		overrides.DBPath = &dbPath
	}
	if flags.Changed("bag-weight") {
		overrides.DefaultBagWeight = &bagWeight
	}

	loaded, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded
	return nil
}
