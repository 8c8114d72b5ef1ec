package extract

import (
	"reflect"
	"testing"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

func mustParse(t *testing.T, s string) tree.Value {
	t.Helper()
	v, err := tree.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return v
}

// markup wraps strings in the PUG-View StringWithMarkup shape.
func markup(strs ...string) string {
	out := `{"StringWithMarkup":[`
	for i, s := range strs {
		if i > 0 {
			out += ","
		}
		out += `{"String":` + string(tree.EncodeString(s)) + `}`
	}
	return out + `]}`
}

func TestFlattenStrings_DocumentOrder(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Section":[
		{"Information":[{"Value":`+markup("a", "b")+`}]},
		{"Section":[{"Information":[{"Value":`+markup("c")+`},{"Value":{"Number":[1]}}]}]},
		{"Information":[{"Value":{"StringWithMarkup":[{"String":5},{"Markup":[]},{"String":"d"}]}}]}
	]}}`)

	got := FlattenStrings(doc)
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenStrings = %v, want %v", got, want)
	}
}

func TestSynonymExtractor(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Section":[{"Information":[{"Value":`+
		markup(" Aspirin ", "", "ASA", "Aspirin", "Link to all deposited patent identifiers", "see LINK TO ALL synonyms")+`}]}]}}`)

	recs := (&SynonymExtractor{}).Extract(100, doc)

	var got []string
	for _, s := range recs.Synonyms {
		if s.CID != 100 {
			t.Errorf("unexpected cid %d", s.CID)
		}
		got = append(got, s.Synonym)
	}
	want := []string{"Aspirin", "ASA", "Aspirin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("synonyms = %v, want %v", got, want)
	}
}

func TestPatentIDExtractor_ExactTokensOnly(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Information":[{"Value":`+
		markup("US1234567", "US1234567", "see US7654321", " US0000001 ", "EP1234567", "US")+`}]}}`)

	recs := (&PatentIDExtractor{}).Extract(7, doc)

	var got []string
	for _, p := range recs.PatentIDs {
		got = append(got, p.PatentID)
	}
	want := []string{"US0000001", "US1234567"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("patent ids = %v, want %v", got, want)
	}
}

func TestMeSHExtractor(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Section":[{"TOCHeading":"Pharmacology","Section":[{
		"TOCHeading":"MeSH Pharmacological Classification",
		"Information":[
			{"ReferenceNumber":12,"Name":"Cyclooxygenase Inhibitors","Value":`+markup("Compounds that inhibit COX.", "second")+`},
			{"Name":"Platelet Aggregation Inhibitors","Value":{}},
			{"ReferenceNumber":13}
		]}]}]}}`)

	recs := (&MeSHExtractor{}).Extract(2244, doc)
	if len(recs.MeSH) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(recs.MeSH))
	}

	first := recs.MeSH[0]
	if first.Name == nil || *first.Name != "Cyclooxygenase Inhibitors" {
		t.Errorf("name = %v", first.Name)
	}
	if first.Description == nil || *first.Description != "Compounds that inhibit COX." {
		t.Errorf("description = %v", first.Description)
	}
	if first.ReferenceNumber == nil || *first.ReferenceNumber != 12 {
		t.Errorf("reference = %v", first.ReferenceNumber)
	}
	if first.RawInfoJSON[:18] != `{"ReferenceNumber"` {
		t.Errorf("raw info should keep member order, got %s", first.RawInfoJSON)
	}

	if recs.MeSH[1].Description != nil || recs.MeSH[1].ReferenceNumber != nil {
		t.Errorf("expected null description/reference, got %+v", recs.MeSH[1])
	}
	if recs.MeSH[2].Name != nil {
		t.Errorf("expected null name, got %v", *recs.MeSH[2].Name)
	}
}

func TestMeSHExtractor_UnmatchedStructure(t *testing.T) {
	for _, in := range []string{
		`{}`,
		`{"Record":{}}`,
		`{"Record":{"Section":"nope"}}`,
		`{"Record":{"Section":[{"Information":[{"Name":"top level only"}]}]}}`,
		`{"error":{"message":"PUGVIEW.NotFound"}}`,
	} {
		recs := (&MeSHExtractor{}).Extract(1, mustParse(t, in))
		if len(recs.MeSH) != 0 {
			t.Errorf("Extract(%s) produced %d rows", in, len(recs.MeSH))
		}
	}
}

func strp(s string) *string { return &s }

func TestClassifyFDA(t *testing.T) {
	tests := []struct {
		in      string
		ok      bool
		typ     *string
		group   *string
		name    *string
		comment string
	}{
		{"Kinase Inhibitor [EPC] - Tyrosine Kinase Inhibitor", true, strp("EPC"), strp("Kinase Inhibitor"), strp("Tyrosine Kinase Inhibitor"), "group form"},
		{"Anti-inflammatory [EPC]", true, strp("EPC"), nil, strp("Anti-inflammatory"), "suffix form"},
		{"Cyclooxygenase Inhibitors [MoA]", true, strp("MoA"), nil, strp("Cyclooxygenase Inhibitors"), "mixed case type"},
		{"Nonsteroidal Anti-inflammatory Drug [EPC]-Platelet", true, strp("EPC"), strp("Nonsteroidal Anti-inflammatory Drug"), strp("Platelet"), "no spaces around dash"},
		{"just text", false, nil, nil, nil, "no bracket"},
		{"Thing [E2C]", false, nil, nil, nil, "non alphabetic type"},
		{"[EPC]", false, nil, nil, nil, "no name"},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			row, ok := ClassifyFDA(1, tt.in)
			if ok != tt.ok {
				t.Fatalf("ClassifyFDA(%q) ok=%v, want %v", tt.in, ok, tt.ok)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(row.ClassType, tt.typ) || !reflect.DeepEqual(row.ClassGroup, tt.group) || !reflect.DeepEqual(row.ClassName, tt.name) {
				t.Errorf("got type=%v group=%v name=%v", deref(row.ClassType), deref(row.ClassGroup), deref(row.ClassName))
			}
			if row.RawText != tt.in {
				t.Errorf("raw text = %q", row.RawText)
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestFDAExtractor_SplitsOnSemicolon(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Information":[{"Value":`+
		markup("Anti-inflammatory [EPC]; just text ; Kinase Inhibitor [EPC] - Tyrosine Kinase Inhibitor;;")+`}]}}`)

	recs := (&FDAExtractor{}).Extract(5, doc)
	if len(recs.FDA) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recs.FDA))
	}
	if recs.FDA[0].RawText != "Anti-inflammatory [EPC]" {
		t.Errorf("first raw text = %q", recs.FDA[0].RawText)
	}
	if recs.FDA[1].ClassGroup == nil || *recs.FDA[1].ClassGroup != "Kinase Inhibitor" {
		t.Errorf("second group = %v", deref(recs.FDA[1].ClassGroup))
	}
}

func TestRawExtractor(t *testing.T) {
	doc := mustParse(t, `{"Record":{"RecordNumber":2244,"Section":[]}}`)
	recs := NewRawExtractor(model.SourcePatents, "pugview_patents_heading_json").Extract(2244, doc)

	if len(recs.RawHeadings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(recs.RawHeadings))
	}
	row := recs.RawHeadings[0]
	if row.ColumnName != "pugview_patents_heading_json" || row.Heading != "Patents" {
		t.Errorf("unexpected row %+v", row)
	}
	if row.JSON != `{"Record":{"RecordNumber":2244,"Section":[]}}` {
		t.Errorf("json = %s", row.JSON)
	}
}

func TestClinicalTrialsExtractor(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Section":[{"Section":[{"Section":[
		{"TOCHeading":"Other","Information":[{"Value":{"ExternalTableNumRows":1}}]},
		{"TOCHeading":"ClinicalTrials.gov","Information":[{"Value":{"ExternalTableName":"clinicaltrials","ExternalTableNumRows":42}}]}
	]}]}]}}`)

	recs := (&ClinicalTrialsExtractor{}).Extract(3, doc)
	if len(recs.ClinicalTrials) != 1 {
		t.Fatalf("expected 1 row, got %d", len(recs.ClinicalTrials))
	}
	row := recs.ClinicalTrials[0]
	if row.Count == nil || *row.Count != 42 {
		t.Errorf("count = %v", row.Count)
	}
	if row.JSON == "" {
		t.Error("expected raw json")
	}

	empty := (&ClinicalTrialsExtractor{}).Extract(3, mustParse(t, `{"Record":{}}`))
	if empty.ClinicalTrials[0].Count != nil {
		t.Error("expected null count for missing section")
	}
}

func TestIUPHARExtractor(t *testing.T) {
	doc := mustParse(t, `{"Record":{"Section":[{"Section":[
		{"TOCHeading":"Something else","Information":[{"Name":"HID","Value":{"Number":[1]}}]},
		{"TOCHeading":"IUPHAR/BPS Guide to PHARMACOLOGY Target Classification","Information":[
			{"Name":"Other","Value":{"Number":[2]}},
			{"Name":"HID","Value":{"Number":[101,102]}}
		]}
	]}]}}`)

	recs := (&IUPHARExtractor{}).Extract(9, doc)
	row := recs.IUPHAR[0]
	if row.HID == nil || *row.HID != 101 {
		t.Errorf("hid = %v", row.HID)
	}
}

func TestRegistry_CoversFetchOrder(t *testing.T) {
	r := NewRegistry()
	for _, src := range model.Sources(true) {
		if _, ok := r.For(src); !ok {
			t.Errorf("no extractor registered for %q", src)
		}
	}
	if _, ok := r.For("Unknown Heading"); ok {
		t.Error("unexpected extractor for unknown heading")
	}
}
