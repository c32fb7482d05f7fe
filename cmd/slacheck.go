package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/campops/campops/internal/config"
	"github.com/campops/campops/internal/db"
	"github.com/campops/campops/internal/hiring"
	"github.com/campops/campops/internal/housing"
	"github.com/campops/campops/internal/maintenance"
	"github.com/campops/campops/internal/sla"
)

var slaCheckCmd = &cobra.Command{
	Use:   "sla-check",
	Short: "Run one SLA check cycle and print the report",
	Long: `Evaluates every active SLA policy against its open requests once,
persists the escalation state, sends any due notifications, and prints
the run report as JSON. Intended for cron when the server is not running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		dbPath := filepath.Join(cfg.DataDir, "campops.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		housingStore := housing.NewStore(database)
		maintenanceStore := maintenance.NewStore(database)
		hiringStore := hiring.NewStore(database)

		runner := sla.NewRunner(
			sla.NewPolicyStore(database),
			sla.NewLogStore(database),
			sla.DefaultSources(housingStore, maintenanceStore, hiringStore),
			buildSender(cfg, database),
		)

		report, err := runner.Run(context.Background())
		if err != nil {
			return fmt.Errorf("running sla check: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(slaCheckCmd)
}
