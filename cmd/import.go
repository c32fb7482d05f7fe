package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/campops/campops/internal/config"
	"github.com/campops/campops/internal/db"
	"github.com/campops/campops/internal/personnel"
	"github.com/campops/campops/internal/progress"
)

var importCmd = &cobra.Command{
	Use:   "import <roster.csv>",
	Short: "Import an employee roster from a CSV file",
	Long: `Imports employees from a roster CSV, matching rows to existing
employees by badge number. The header must contain at least badge_no,
first_name, and last_name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening roster: %w", err)
		}
		defer f.Close()

		database, err := db.Open(filepath.Join(cfg.DataDir, "campops.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := personnel.NewStore(database)
		result, err := store.ImportCSV(context.Background(), f, progress.NewReporter("Importing roster"))
		if err != nil {
			return fmt.Errorf("importing roster: %w", err)
		}

		fmt.Printf("Imported %d employees, skipped %d\n", result.Imported, result.Skipped)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
