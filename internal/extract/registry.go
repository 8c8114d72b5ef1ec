package extract

import (
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// Extractor maps one decoded heading response to child records
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// Extract returns the records found in doc for the compound
	Extract(cid model.CID, doc tree.Value) model.Records
}

// Registry maps each heading to its extractor
type Registry struct {
	extractors map[model.Source]Extractor
}

// NewRegistry creates a registry with every built-in extractor
func NewRegistry() *Registry {
	registry := &Registry{
		extractors: make(map[model.Source]Extractor),
	}

	registry.Register(model.SourceSynonyms, &SynonymExtractor{})
	registry.Register(model.SourcePatentIDs, &PatentIDExtractor{})
	registry.Register(model.SourceMeSHPharmClass, &MeSHExtractor{})
	registry.Register(model.SourceFDAPharmClass, &FDAExtractor{})
	registry.Register(model.SourceClinicalTrials, &ClinicalTrialsExtractor{})
	registry.Register(model.SourceIUPHARTargetClass, &IUPHARExtractor{})

	for source, column := range model.RawColumns {
		registry.Register(source, NewRawExtractor(source, column))
	}

	return registry
}

// Register registers an extractor for source, replacing any previous one
func (r *Registry) Register(source model.Source, extractor Extractor) {
	r.extractors[source] = extractor
}

// For returns the extractor registered for source
func (r *Registry) For(source model.Source) (Extractor, bool) {
	e, ok := r.extractors[source]
	return e, ok
}
