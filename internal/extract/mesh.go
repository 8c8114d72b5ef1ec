package extract

import (
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// MeSHExtractor extracts MeSH pharmacological classifications from the
// Record.Section[].Section[].Information[] hierarchy.
type MeSHExtractor struct{}

// Name returns the extractor name
func (e *MeSHExtractor) Name() string { return "mesh" }

// Extract emits one row per Information item two section levels down.
// Structure that does not match yields nothing.
func (e *MeSHExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	var rows []model.MeSHClass

	for _, sec := range doc.Path("Record", "Section").Items() {
		for _, subsec := range sec.Field("Section").Items() {
			for _, info := range subsec.Field("Information").Items() {
				if info.Kind() != tree.Object {
					continue
				}
				rows = append(rows, model.MeSHClass{
					CID:             cid,
					Name:            info.OptString("Name"),
					Description:     firstMarkupString(info.Field("Value")),
					ReferenceNumber: info.OptInt("ReferenceNumber"),
					RawInfoJSON:     info.String(),
				})
			}
		}
	}

	return model.Records{MeSH: rows}
}

// firstMarkupString returns the String of the first StringWithMarkup item.
func firstMarkupString(value tree.Value) *string {
	items := value.Field("StringWithMarkup").Items()
	if len(items) == 0 {
		return nil
	}
	return items[0].OptString("String")
}
