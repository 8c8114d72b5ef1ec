package model

// CID is a PubChem compound identifier.
type CID int64

// CoreRecord holds the scalar properties of one compound. Every field is
// null when the property lookup had nothing for the compound.
type CoreRecord struct {
	CID                CID     `json:"cid"`
	InChIKey           *string `json:"inchikey"`
	SMILES             *string `json:"smiles"`
	ConnectivitySMILES *string `json:"connectivity_smiles"`
	MolecularFormula   *string `json:"molecular_formula"`
	MolecularWeight    *string `json:"molecular_weight"`
}

// Title is the record title reported alongside the core properties.
type Title struct {
	CID   CID    `json:"cid"`
	Title string `json:"title"`
}

// HeadingMeta records the HTTP outcome of one heading request.
type HeadingMeta struct {
	CID      CID    `json:"cid"`
	Heading  string `json:"heading"`
	HTTPCode int    `json:"http_code"`
	Bytes    int    `json:"bytes"`
}

// Synonym is one depositor-supplied name.
type Synonym struct {
	CID     CID    `json:"cid"`
	Synonym string `json:"synonym"`
}

// PatentID is one US patent identifier.
type PatentID struct {
	CID      CID    `json:"cid"`
	PatentID string `json:"patent_id"`
}

// MeSHClass is one MeSH pharmacological classification entry.
type MeSHClass struct {
	CID             CID     `json:"cid"`
	Name            *string `json:"mesh_name"`
	Description     *string `json:"mesh_description"`
	ReferenceNumber *int64  `json:"reference_number"`
	RawInfoJSON     string  `json:"raw_info_json"`
}

// FDAClass is one FDA established pharmacologic class entry.
type FDAClass struct {
	CID        CID     `json:"cid"`
	ClassType  *string `json:"class_type"`
	ClassGroup *string `json:"class_group"`
	ClassName  *string `json:"class_name"`
	RawText    string  `json:"raw_text"`
}

// RawHeading keeps a whole heading response as JSON text.
type RawHeading struct {
	CID        CID    `json:"cid"`
	Heading    string `json:"heading"`
	ColumnName string `json:"column_name"`
	JSON       string `json:"json"`
}

// ClinicalTrials summarises the ClinicalTrials.gov heading.
type ClinicalTrials struct {
	CID   CID    `json:"cid"`
	Count *int64 `json:"clinicaltrials_count"`
	JSON  string `json:"clinicaltrials_json"`
}

// IUPHARTarget summarises the IUPHAR/BPS target classification heading.
type IUPHARTarget struct {
	CID  CID    `json:"cid"`
	HID  *int64 `json:"iuphar_hid"`
	JSON string `json:"iuphar_json"`
}

// Records bundles the child records produced for compounds. Extractors
// return one, and the fetch loop accumulates them until a flush.
type Records struct {
	Core           []CoreRecord
	Titles         []Title
	HeadingMeta    []HeadingMeta
	Synonyms       []Synonym
	PatentIDs      []PatentID
	MeSH           []MeSHClass
	FDA            []FDAClass
	RawHeadings    []RawHeading
	ClinicalTrials []ClinicalTrials
	IUPHAR         []IUPHARTarget
}

// Append adds every record of o to r.
func (r *Records) Append(o Records) {
	r.Core = append(r.Core, o.Core...)
	r.Titles = append(r.Titles, o.Titles...)
	r.HeadingMeta = append(r.HeadingMeta, o.HeadingMeta...)
	r.Synonyms = append(r.Synonyms, o.Synonyms...)
	r.PatentIDs = append(r.PatentIDs, o.PatentIDs...)
	r.MeSH = append(r.MeSH, o.MeSH...)
	r.FDA = append(r.FDA, o.FDA...)
	r.RawHeadings = append(r.RawHeadings, o.RawHeadings...)
	r.ClinicalTrials = append(r.ClinicalTrials, o.ClinicalTrials...)
	r.IUPHAR = append(r.IUPHAR, o.IUPHAR...)
}

// Len returns the total number of records.
func (r *Records) Len() int {
	return len(r.Core) + len(r.Titles) + len(r.HeadingMeta) + len(r.Synonyms) +
		len(r.PatentIDs) + len(r.MeSH) + len(r.FDA) + len(r.RawHeadings) +
		len(r.ClinicalTrials) + len(r.IUPHAR)
}

// Reset empties every slice while keeping capacity.
func (r *Records) Reset() {
	r.Core = r.Core[:0]
	r.Titles = r.Titles[:0]
	r.HeadingMeta = r.HeadingMeta[:0]
	r.Synonyms = r.Synonyms[:0]
	r.PatentIDs = r.PatentIDs[:0]
	r.MeSH = r.MeSH[:0]
	r.FDA = r.FDA[:0]
	r.RawHeadings = r.RawHeadings[:0]
	r.ClinicalTrials = r.ClinicalTrials[:0]
	r.IUPHAR = r.IUPHAR[:0]
}
