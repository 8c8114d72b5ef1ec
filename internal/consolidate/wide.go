package consolidate

import (
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// Wide column names
const (
	ColCID                = "cid"
	ColPrimaryName        = "primary_name"
	ColInChIKey           = "inchikey"
	ColSMILES             = "smiles"
	ColConnectivitySMILES = "connectivity_smiles"
	ColMolecularFormula   = "molecular_formula"
	ColMolecularWeight    = "molecular_weight"
	ColSynonymsJSON       = "synonyms_json"
	ColSynonymsN          = "synonyms_n"
	ColSynonymsPreview    = "synonyms_preview"
	ColPatentIDsJSON      = "patent_ids_json"
	ColPatentIDsN         = "patent_ids_n"
	ColPatentIDsPreview   = "patent_ids_preview"
	ColMeSHJSON           = "mesh_classes_json"
	ColMeSHN              = "mesh_classes_n"
	ColMeSHPreview        = "mesh_classes_preview"
	ColFDAJSON            = "fda_classes_json"
	ColFDAN               = "fda_classes_n"
	ColFDAPreview         = "fda_classes_preview"
	ColClinicalTrials     = "clinicaltrials_count"
	ColIUPHARHID          = "iuphar_hid"
	ColHeadingCodes       = "heading_http_codes_json"
)

// Wide is the consolidated table: one row per compound, cells aligned
// with Columns. Cells are null, string or number values.
type Wide struct {
	Columns []string
	Rows    [][]tree.Value
}

// Index returns the position of column name, or -1
func (w *Wide) Index(name string) int {
	for i, c := range w.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value of column name in row i
func (w *Wide) Cell(i int, name string) tree.Value {
	idx := w.Index(name)
	if idx < 0 || i < 0 || i >= len(w.Rows) {
		return tree.NullValue()
	}
	return w.Rows[i][idx]
}

// Record returns row i as an object in column order
func (w *Wide) Record(i int) tree.Value {
	members := make([]tree.Member, len(w.Columns))
	for j, c := range w.Columns {
		members[j] = tree.Member{Key: c, Value: w.Rows[i][j]}
	}
	return tree.ObjectValue(members...)
}
