package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonyg-mp/pubchem/internal/bulk"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/table"
	"github.com/tonyg-mp/pubchem/internal/worker"
)

var (
	importCIDList    string
	importOutDir     string
	importSynonymGz  string
	importLogEvery   int
	importExtrasDir  string
	importMeSHCIDs   string
	importMeSHOutDir string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load child records from PubChem bulk extras files",
	Long: `Load synonyms or MeSH classes from the PubChem FTP extras dumps instead of
per-CID heading requests. Each import appends one fragment to the matching
category under --outdir, so export picks the rows up alongside pulled ones.`,
}

var importSynonymsCmd = &cobra.Command{
	Use:   "synonyms",
	Short: "Import synonyms from CID-Synonym-filtered.gz",
	Long: `Stream a gzip CID<TAB>synonym dump and keep the distinct synonyms of the
CIDs in --cid-list.

Example:
  pubchem import synonyms --cid-list cids.txt --cid-synonym-gz CID-Synonym-filtered.gz --outdir out/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		wanted, err := readWanted(importCIDList)
		if err != nil {
			return err
		}

		rows, stats, err := bulk.ReadSynonymsFile(importSynonymGz, wanted, logger, importLogEvery)
		if err != nil {
			return err
		}

		path, err := table.WriteFragment(table.NewStore(importOutDir), model.CategorySynonyms, rows)
		if err != nil {
			return fmt.Errorf("write synonyms: %w", err)
		}

		printImportSummary("Synonym import", stats, path)
		return nil
	},
}

var importMeSHCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Import MeSH pharmacological classes from CID-MeSH and MeSH-Pharm",
	Long: `Join the CID-MeSH and MeSH-Pharm extras files and emit one MeSH class row
per (CID, class, term) for the CIDs in --cid-list.

Example:
  pubchem import mesh --cid-list cids.txt --extras-dir extras/ --outdir out/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wanted, err := readWanted(importMeSHCIDs)
		if err != nil {
			return err
		}

		rows, stats, err := bulk.ReadMeSHExtras(importExtrasDir, wanted)
		if err != nil {
			return err
		}

		path, err := table.WriteFragment(table.NewStore(importMeSHOutDir), model.CategoryMeSH, rows)
		if err != nil {
			return fmt.Errorf("write mesh classes: %w", err)
		}

		printImportSummary("MeSH import", stats, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importSynonymsCmd)
	importCmd.AddCommand(importMeSHCmd)

	sf := importSynonymsCmd.Flags()
	sf.StringVar(&importCIDList, "cid-list", "", "text file with one CID per line (required)")
	sf.StringVar(&importSynonymGz, "cid-synonym-gz", "", "path to CID-Synonym-filtered.gz (required)")
	sf.StringVar(&importOutDir, "outdir", "", "output directory shared with pull (required)")
	sf.IntVar(&importLogEvery, "log-every", 5_000_000, "log progress every N lines (0 = never)")
	for _, name := range []string{"cid-list", "cid-synonym-gz", "outdir"} {
		_ = importSynonymsCmd.MarkFlagRequired(name)
	}

	mf := importMeSHCmd.Flags()
	mf.StringVar(&importMeSHCIDs, "cid-list", "", "text file with one CID per line (required)")
	mf.StringVar(&importExtrasDir, "extras-dir", "", "directory holding CID-MeSH and MeSH-Pharm (required)")
	mf.StringVar(&importMeSHOutDir, "outdir", "", "output directory shared with pull (required)")
	for _, name := range []string{"cid-list", "extras-dir", "outdir"} {
		_ = importMeSHCmd.MarkFlagRequired(name)
	}
}

func readWanted(path string) (map[model.CID]struct{}, error) {
	ids, err := worker.ReadIDsFromFile(path, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read CID list: %w", err)
	}
	return bulk.WantedSet(ids), nil
}

func printImportSummary(title string, stats bulk.Stats, path string) {
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "Lines read:   %d\n", stats.Lines)
	fmt.Fprintf(os.Stderr, "Rows kept:    %d\n", stats.Rows)
	fmt.Fprintf(os.Stderr, "Unique CIDs:  %d\n", stats.UniqueCIDs)
	if path != "" {
		fmt.Fprintf(os.Stderr, "Fragment:     %s\n", path)
	} else {
		fmt.Fprintf(os.Stderr, "Fragment:     none (no matching rows)\n")
	}
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
}
