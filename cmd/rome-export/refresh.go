package main

import (
	"github.com/spf13/cobra"

	"jobmate/rome-service/internal/scheduler"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch and archive every watched code once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.archive == nil {
			return errNoDatabase
		}
		scheduler.New(a.archive, a.svc, a.cfg.RefreshIntervalHours).RunOnce(cmd.Context())
		return nil
	},
}
