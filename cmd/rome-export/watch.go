package main

import (
	"log"

	"github.com/spf13/cobra"

	"jobmate/rome-service/internal/metier"
)

var watchCmd = &cobra.Command{
	Use:   "watch CODE...",
	Short: "Add codes to the watch list refreshed by the scheduler",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var codes []string
		for _, arg := range args {
			for _, raw := range metier.SplitCodes(arg) {
				code, err := metier.ParseCode(raw)
				if err != nil {
					return err
				}
				codes = append(codes, code)
			}
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.archive == nil {
			return errNoDatabase
		}
		if err := a.archive.Watch(cmd.Context(), codes...); err != nil {
			return err
		}
		log.Printf("[rome-export] Watching %d code(s)", len(codes))
		return nil
	},
}
