package model

// Source names a PUG-View heading fetched once per compound.
type Source string

const (
	SourceConformer3D       Source = "3D Conformer"
	SourceSynonyms          Source = "Depositor-Supplied Synonyms"
	SourcePatentIDs         Source = "Depositor-Supplied Patent Identifiers"
	SourceMeSHPharmClass    Source = "MeSH Pharmacological Classification"
	SourceFDAPharmClass     Source = "FDA Pharmacological Classification"
	SourceRelatedRecords    Source = "Related Records"
	SourceChemicalVendors   Source = "Chemical Vendors"
	SourcePatents           Source = "Patents"
	SourceClinicalTrials    Source = "ClinicalTrials.gov"
	SourceIUPHARTargetClass Source = "IUPHAR/BPS Guide to PHARMACOLOGY Target Classification"
)

// FetchOrder is the fixed per-compound heading order.
var FetchOrder = []Source{
	SourceConformer3D,
	SourceSynonyms,
	SourcePatentIDs,
	SourceMeSHPharmClass,
	SourceFDAPharmClass,
	SourceRelatedRecords,
	SourceChemicalVendors,
	SourcePatents,
}

// ExtraSources are appended to FetchOrder when extra headings are enabled.
var ExtraSources = []Source{
	SourceClinicalTrials,
	SourceIUPHARTargetClass,
}

// RawColumns maps pass-through headings to their wide-table column.
var RawColumns = map[Source]string{
	SourceConformer3D:     "pugview_3d_conformer_json",
	SourceRelatedRecords:  "pugview_related_records_json",
	SourceChemicalVendors: "pugview_chemical_vendors_json",
	SourcePatents:         "pugview_patents_heading_json",
}

// Sources returns the fetch order, optionally including extra headings.
func Sources(extra bool) []Source {
	out := make([]Source, 0, len(FetchOrder)+len(ExtraSources))
	out = append(out, FetchOrder...)
	if extra {
		out = append(out, ExtraSources...)
	}
	return out
}

// Category names a partitioned table directory.
type Category string

const (
	CategoryCore           Category = "core_properties"
	CategoryTitles         Category = "cid_title"
	CategoryHeadingMeta    Category = "heading_meta"
	CategorySynonyms       Category = "depositor_synonyms"
	CategoryPatentIDs      Category = "depositor_patent_ids"
	CategoryMeSH           Category = "mesh_pharm_class"
	CategoryFDA            Category = "fda_pharm_class"
	CategoryRawHeadings    Category = "pugview_raw_headings"
	CategoryClinicalTrials Category = "clinical_trials"
	CategoryIUPHAR         Category = "iuphar_targets"
)

// Categories lists every category in flush order.
var Categories = []Category{
	CategoryCore,
	CategoryTitles,
	CategoryHeadingMeta,
	CategorySynonyms,
	CategoryPatentIDs,
	CategoryMeSH,
	CategoryFDA,
	CategoryRawHeadings,
	CategoryClinicalTrials,
	CategoryIUPHAR,
}
