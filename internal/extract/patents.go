package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

var usPatentRe = regexp.MustCompile(`^US\d+$`)

// PatentIDExtractor extracts US patent identifiers
type PatentIDExtractor struct{}

// Name returns the extractor name
func (e *PatentIDExtractor) Name() string { return "patent_ids" }

// Extract returns the distinct strings that are exactly "US" plus digits,
// sorted ascending. Identifiers embedded in longer text are not taken.
func (e *PatentIDExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	seen := make(map[string]bool)
	for _, s := range FlattenStrings(doc) {
		t := strings.TrimSpace(s)
		if usPatentRe.MatchString(t) {
			seen[t] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]model.PatentID, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, model.PatentID{CID: cid, PatentID: id})
	}
	return model.Records{PatentIDs: rows}
}
