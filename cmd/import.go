package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/missing-middle/internal/config"
	"github.com/sells-group/missing-middle/internal/dataset"
)

var importCSV string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the NHGIS CSV extract into the configured postgres or sqlite table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), cmd.OutOrStdout(), cfg.Data, importCSV)
	},
}

func runImport(ctx context.Context, out io.Writer, data config.DataConfig, csvPath string) error {
	if csvPath == "" {
		csvPath = data.CSVFile
	}
	if data.Table == "" {
		return eris.New("import: data.table is required")
	}

	t, err := (&dataset.CSVSource{Path: csvPath}).Load(ctx)
	if err != nil {
		return err
	}
	n, err := dataset.Import(ctx, data, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %s rows into %s (%s)\n", humanize.Comma(n), data.Table, data.Driver)
	return nil
}

func init() {
	importCmd.Flags().StringVar(&importCSV, "csv", "", "CSV file to import (default data.csv_file)")
	rootCmd.AddCommand(importCmd)
}
