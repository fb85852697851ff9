package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/osr-alliance/backend-lead-tracker/internal/importer"
)

var (
	dryRun bool

	importCmd = &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Validate a lead spreadsheet and insert its valid rows",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
)

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only validate and print the preview; nothing is written")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithField("cmd", "import")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, err := importer.Parse(filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	rows := importer.Validate(sheet)

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")

	if dryRun {
		return out.Encode(rows)
	}

	st, c, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	res := importer.InsertValid(cmd.Context(), st, rows, log)
	if err := out.Encode(res); err != nil {
		return err
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d valid rows failed to insert", len(res.Failed), res.Inserted+len(res.Failed))
	}
	return nil
}
