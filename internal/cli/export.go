package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tonyg-mp/pubchem/internal/consolidate"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/table"
)

var (
	exportInDir   string
	exportOut     string
	exportSQLite  string
	exportPreview string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Consolidate pulled tables into one wide row per CID",
	Long: `Read every category written by pull (and import) from --in-dir and join
them into one row per CID found in the core properties table.

The full table is written to --out, as parquet when the path ends in
.parquet and as JSON lines otherwise. Optionally it is also loaded into a
SQLite database (table pubchem_wide), and a truncated xlsx preview is
written for spreadsheet use.

Example:
  pubchem export --in-dir out/ --out wide.parquet --out-preview preview.xlsx
  pubchem export --in-dir out/ --out wide.jsonl --out-sqlite wide.db`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	defaults := model.DefaultConfig().Export
	f := exportCmd.Flags()
	f.StringVar(&exportInDir, "in-dir", "", "directory written by pull (required)")
	f.StringVar(&exportOut, "out", "", "wide table output: .parquet, otherwise JSON lines (required)")
	f.StringVar(&exportSQLite, "out-sqlite", "", "also write the wide table to this SQLite database")
	f.StringVar(&exportPreview, "out-preview", "", "write a truncated xlsx preview to this file")
	f.Int("preview-rows", defaults.PreviewRows, "rows in the preview (0 = all)")
	f.Int("cell-limit", defaults.CellLimit, "maximum characters per preview cell")

	_ = exportCmd.MarkFlagRequired("in-dir")
	_ = exportCmd.MarkFlagRequired("out")

	bindFlags(exportCmd, map[string]string{
		"export.preview_rows": "preview-rows",
		"export.cell_limit":   "cell-limit",
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  PubChem export\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "Input:   %s\n", exportInDir)
	fmt.Fprintf(os.Stderr, "Output:  %s\n\n", exportOut)

	wide, err := consolidate.NewEngine(table.NewStore(exportInDir), logger).Build()
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}

	if err := consolidate.WriteTableFile(exportOut, wide); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %d rows, %d columns: %s\n", len(wide.Rows), len(wide.Columns), exportOut)

	if exportSQLite != "" {
		if err := consolidate.WriteSQLite(ctx, exportSQLite, wide); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote SQLite table %s: %s\n", consolidate.SQLiteTable, exportSQLite)
	}

	if exportPreview != "" {
		n, err := consolidate.WritePreviewFile(exportPreview, wide, cfg.Export.PreviewRows, cfg.Export.CellLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote preview (%d rows): %s\n", n, exportPreview)
	}

	return nil
}
