package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rome-export",
	Short: "Look up ROME occupations and export them as spreadsheets",
	Long: `rome-export queries the France Travail ROME 4.0 occupation API.

Each record is flattened into one row with three derived columns:
  - risque_penibilite   hazard keyword found in the working conditions
  - conditions_travail  CONDITIONS_TRAVAIL context labels
  - horaires_travail    HORAIRE_ET_DUREE_TRAVAIL context labels

Credentials are read from FT_CLIENT_ID and FT_CLIENT_SECRET
(a .env file in the working directory is loaded first if present).`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "optional YAML config file (keys are the lower-case env names)",
	)

	rootCmd.AddCommand(serveCmd, exportCmd, refreshCmd, watchCmd)
}
