package extract

import (
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// FlattenStrings collects the String payload of every StringWithMarkup
// item in doc, in document order. All other structure is ignored.
func FlattenStrings(doc tree.Value) []string {
	var out []string

	tree.Walk(doc, func(v tree.Value) bool {
		for _, item := range v.Field("StringWithMarkup").Items() {
			if s, ok := item.Field("String").Str(); ok {
				out = append(out, s)
			}
		}
		return true
	})

	return out
}
