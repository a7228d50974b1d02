package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"jobmate/rome-service/internal/export"
	"jobmate/rome-service/internal/lookup"
	"jobmate/rome-service/internal/metier"
	"jobmate/rome-service/internal/model"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export CODE...",
	Short: "Fetch occupation codes and write them to an XLSX or CSV file",
	Long: `Fetch one or more ROME codes and write the assembled table to a file.

Codes may be separated by spaces, commas or semicolons. Codes that cannot be
fetched are reported on stderr and left out of the file.

Examples:
  rome-export export A1413
  rome-export export A1413,K2204 M1805 --format csv
  rome-export export A1413 --out chef.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		var codes []string
		for _, arg := range args {
			codes = append(codes, metier.SplitCodes(arg)...)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := exportCodes(cmd.Context(), a.svc, codes, f, exportOut, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		log.Printf("[rome-export] Wrote export to %s", path)
		return nil
	},
}

// exportCodes fetches codes through Refresh, so the server's latest batch
// session is left untouched, and writes the table to path (or to a name
// derived from the result when path is empty). Failed codes go to errOut.
func exportCodes(ctx context.Context, svc *lookup.Service, codes []string, f export.Format, path string, errOut io.Writer) (string, error) {
	table, err := svc.Refresh(ctx, codes)
	if err != nil {
		return "", err
	}
	for _, s := range table.Statuses {
		if !s.OK {
			fmt.Fprintf(errOut, "%s: %s\n", s.Code, s.Error)
		}
	}
	if len(table.Rows) == 0 {
		return "", fmt.Errorf("no code could be fetched")
	}

	if path == "" {
		path = defaultFilename(table, f)
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := export.Write(out, table, f); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// defaultFilename names single-code exports after the occupation and
// multi-code exports after the batch time.
func defaultFilename(t *model.Table, f export.Format) string {
	if len(t.Statuses) == 1 && t.Statuses[0].OK {
		return export.MetierFilename(t.Statuses[0].Code, t.Statuses[0].Libelle, f)
	}
	return export.BatchFilename(t.CreatedAt, f)
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: derived from code or time)")
}
