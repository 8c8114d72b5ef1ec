package extract

import (
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

var (
	clinicalTrialsRowsPath = jp.MustParseString(
		`$.Record.Section[*].Section[*].Section[?(@.TOCHeading == 'ClinicalTrials.gov')].Information[*].Value.ExternalTableNumRows`)
	subsectionsPath = jp.MustParseString(`$.Record.Section[*].Section[*]`)
)

// ClinicalTrialsExtractor reads the ClinicalTrials.gov trial count
type ClinicalTrialsExtractor struct{}

// Name returns the extractor name
func (e *ClinicalTrialsExtractor) Name() string { return "clinical_trials" }

// Extract records the first ExternalTableNumRows found under a
// ClinicalTrials.gov section together with the raw document.
func (e *ClinicalTrialsExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	row := model.ClinicalTrials{CID: cid, JSON: doc.String()}

	for _, found := range clinicalTrialsRowsPath.Get(doc.Interface()) {
		if n, ok := tree.FromInterface(found).Int(); ok {
			row.Count = &n
			break
		}
	}

	return model.Records{ClinicalTrials: []model.ClinicalTrials{row}}
}

// IUPHARExtractor reads the IUPHAR/BPS target classification HID
type IUPHARExtractor struct{}

// Name returns the extractor name
func (e *IUPHARExtractor) Name() string { return "iuphar" }

// Extract records the first number of the HID item under a subsection
// whose TOCHeading mentions IUPHAR.
func (e *IUPHARExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	row := model.IUPHARTarget{CID: cid, JSON: doc.String()}

	for _, found := range subsectionsPath.Get(doc.Interface()) {
		subsec := tree.FromInterface(found)
		heading, _ := subsec.Field("TOCHeading").Str()
		if !strings.Contains(heading, "IUPHAR") {
			continue
		}
		if hid := findHID(subsec); hid != nil {
			row.HID = hid
			break
		}
	}

	return model.Records{IUPHAR: []model.IUPHARTarget{row}}
}

func findHID(subsec tree.Value) *int64 {
	for _, info := range subsec.Field("Information").Items() {
		if name, _ := info.Field("Name").Str(); name != "HID" {
			continue
		}
		nums := info.Path("Value", "Number").Items()
		if len(nums) == 0 {
			continue
		}
		if n, ok := nums[0].Int(); ok {
			return &n
		}
	}
	return nil
}
