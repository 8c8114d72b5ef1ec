package extract

import (
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// RawExtractor stores the whole response as JSON text under one column
type RawExtractor struct {
	source model.Source
	column string
}

// NewRawExtractor creates a pass-through extractor for source
func NewRawExtractor(source model.Source, column string) *RawExtractor {
	return &RawExtractor{source: source, column: column}
}

// Name returns the extractor name
func (e *RawExtractor) Name() string { return "raw:" + e.column }

// Extract returns exactly one row holding the serialized document.
func (e *RawExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	return model.Records{RawHeadings: []model.RawHeading{{
		CID:        cid,
		Heading:    string(e.source),
		ColumnName: e.column,
		JSON:       doc.String(),
	}}}
}
