package extract

import (
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// navigationMarker flags "Link to all ..." boilerplate that is not a name.
const navigationMarker = "link to all"

// SynonymExtractor extracts depositor-supplied synonyms
type SynonymExtractor struct{}

// Name returns the extractor name
func (e *SynonymExtractor) Name() string { return "synonyms" }

// Extract keeps every non-empty flattened string in encountered order,
// duplicates included.
func (e *SynonymExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	var rows []model.Synonym
	for _, s := range FlattenStrings(doc) {
		t := strings.TrimSpace(s)
		if t == "" {
			continue
		}
		if strings.Contains(strings.ToLower(t), navigationMarker) {
			continue
		}
		rows = append(rows, model.Synonym{CID: cid, Synonym: t})
	}
	return model.Records{Synonyms: rows}
}
