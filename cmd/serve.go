package cmd

import (
	"github.com/go-chi/chi/v5"
	"github.com/sander-remitly/knapsnack/internal/web"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and API server",
	Long:  `Start both the web UI and REST API server together.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	return runServer("Server", func(router *chi.Mux) error {
		webHandler, err := web.NewHandler(cfg.DefaultBagWeight, cfg.Solver)
		if err != nil {
			return err
		}
		return webHandler.SetupRoutes(router)
	})
}
