package cmd

import (
	"github.com/spf13/cobra"

	"github.com/campops/campops/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize campops configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure campops and generates a .campops.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
