// Package consolidate joins the partitioned child tables into one wide
// row per compound and writes the full and preview exports.
package consolidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/table"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

var (
	// ErrNoCoreTable is returned when core_properties has no rows
	ErrNoCoreTable = errors.New("core_properties missing or empty")
	// ErrNoSubjectKey is returned when no core row carries a cid
	ErrNoSubjectKey = errors.New("core_properties has no cid column")
)

// Preview sizes per category
const (
	synonymPreviewK = 25
	patentPreviewK  = 25
	meshPreviewK    = 25
	fdaPreviewK     = 15
)

const previewSep = "; "

// Engine builds the wide table from a partitioned store
type Engine struct {
	store  *table.Store
	logger *slog.Logger
}

// NewEngine creates an engine reading from store
func NewEngine(store *table.Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// inputs holds every category as read from the store
type inputs struct {
	core     []model.CoreRecord
	titles   []model.Title
	meta     []model.HeadingMeta
	synonyms []model.Synonym
	patents  []model.PatentID
	mesh     []model.MeSHClass
	fda      []model.FDAClass
	raw      []model.RawHeading
	trials   []model.ClinicalTrials
	iuphar   []model.IUPHARTarget
}

func (e *Engine) read() (*inputs, error) {
	in := &inputs{}
	var err error
	if in.core, err = table.ReadAll[model.CoreRecord](e.store, model.CategoryCore); err != nil {
		return nil, err
	}
	if in.titles, err = table.ReadAll[model.Title](e.store, model.CategoryTitles); err != nil {
		return nil, err
	}
	if in.meta, err = table.ReadAll[model.HeadingMeta](e.store, model.CategoryHeadingMeta); err != nil {
		return nil, err
	}
	if in.synonyms, err = table.ReadAll[model.Synonym](e.store, model.CategorySynonyms); err != nil {
		return nil, err
	}
	if in.patents, err = table.ReadAll[model.PatentID](e.store, model.CategoryPatentIDs); err != nil {
		return nil, err
	}
	if in.mesh, err = table.ReadAll[model.MeSHClass](e.store, model.CategoryMeSH); err != nil {
		return nil, err
	}
	if in.fda, err = table.ReadAll[model.FDAClass](e.store, model.CategoryFDA); err != nil {
		return nil, err
	}
	if in.raw, err = table.ReadAll[model.RawHeading](e.store, model.CategoryRawHeadings); err != nil {
		return nil, err
	}
	if in.trials, err = table.ReadAll[model.ClinicalTrials](e.store, model.CategoryClinicalTrials); err != nil {
		return nil, err
	}
	if in.iuphar, err = table.ReadAll[model.IUPHARTarget](e.store, model.CategoryIUPHAR); err != nil {
		return nil, err
	}
	return in, nil
}

// Build reads every category and returns the wide table. Compounds are
// the distinct cids of core_properties in first-seen order; child rows
// for other compounds are ignored.
func (e *Engine) Build() (*Wide, error) {
	in, err := e.read()
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	if len(in.core) == 0 {
		return nil, ErrNoCoreTable
	}

	var core []model.CoreRecord
	universe := make(map[model.CID]struct{})
	for _, c := range in.core {
		if c.CID <= 0 {
			continue
		}
		if _, dup := universe[c.CID]; dup {
			continue
		}
		universe[c.CID] = struct{}{}
		core = append(core, c)
	}
	if len(core) == 0 {
		return nil, ErrNoSubjectKey
	}

	titles := firstTitles(in.titles, universe)
	synonyms := group(in.synonyms, universe, func(s model.Synonym) model.CID { return s.CID }, func(s model.Synonym) string { return s.Synonym })
	patents := group(in.patents, universe, func(p model.PatentID) model.CID { return p.CID }, func(p model.PatentID) string { return p.PatentID })
	mesh := group(in.mesh, universe, func(m model.MeSHClass) model.CID { return m.CID }, rowKey[model.MeSHClass])
	fda := group(in.fda, universe, func(f model.FDAClass) model.CID { return f.CID }, rowKey[model.FDAClass])
	raw := group(in.raw, universe, func(r model.RawHeading) model.CID { return r.CID }, func(r model.RawHeading) string { return r.ColumnName })
	trials := group(in.trials, universe, func(t model.ClinicalTrials) model.CID { return t.CID }, func(model.ClinicalTrials) string { return "" })
	iuphar := group(in.iuphar, universe, func(t model.IUPHARTarget) model.CID { return t.CID }, func(model.IUPHARTarget) string { return "" })
	codes := headingCodes(in.meta, universe)

	rawCols := rawColumns(in.raw, universe)

	wide := &Wide{Columns: columns(rawCols)}
	for _, c := range core {
		syns := synonyms[c.CID]
		row := make([]tree.Value, 0, len(wide.Columns))

		row = append(row,
			tree.NumberValue(json.Number(strconv.FormatInt(int64(c.CID), 10))),
			primaryName(titles[c.CID], syns),
			optString(c.InChIKey),
			optString(c.SMILES),
			optString(c.ConnectivitySMILES),
			optString(c.MolecularFormula),
			optString(c.MolecularWeight),
		)

		synNames := make([]*string, len(syns))
		for i := range syns {
			synNames[i] = &syns[i].Synonym
		}
		row = append(row, listColumns(stringsJSON(synNames), synNames, synonymPreviewK)...)

		pats := patents[c.CID]
		patIDs := make([]*string, len(pats))
		for i := range pats {
			patIDs[i] = &pats[i].PatentID
		}
		row = append(row, listColumns(stringsJSON(patIDs), patIDs, patentPreviewK)...)

		meshRows := mesh[c.CID]
		meshObjs := make([]tree.Value, len(meshRows))
		meshNames := make([]*string, len(meshRows))
		for i, m := range meshRows {
			meshObjs[i] = meshObject(m)
			meshNames[i] = m.Name
		}
		row = append(row, listColumns(tree.ArrayValue(meshObjs...), meshNames, meshPreviewK)...)

		fdaRows := fda[c.CID]
		fdaObjs := make([]tree.Value, len(fdaRows))
		fdaTexts := make([]*string, len(fdaRows))
		for i, f := range fdaRows {
			fdaObjs[i] = fdaObject(f)
			fdaTexts[i] = &fdaRows[i].RawText
		}
		row = append(row, listColumns(tree.ArrayValue(fdaObjs...), fdaTexts, fdaPreviewK)...)

		trialCount := tree.NullValue()
		if rows := trials[c.CID]; len(rows) > 0 {
			trialCount = optInt(rows[0].Count)
		}
		hid := tree.NullValue()
		if rows := iuphar[c.CID]; len(rows) > 0 {
			hid = optInt(rows[0].HID)
		}
		row = append(row, trialCount, hid)

		byColumn := make(map[string]string)
		for _, r := range raw[c.CID] {
			byColumn[r.ColumnName] = r.JSON
		}
		for _, col := range rawCols {
			if text, ok := byColumn[col]; ok {
				row = append(row, tree.StringValue(text))
			} else {
				row = append(row, tree.NullValue())
			}
		}

		row = append(row, tree.StringValue(codes[c.CID].String()))
		wide.Rows = append(wide.Rows, row)
	}

	e.logger.Info("consolidated",
		"rows", len(wide.Rows),
		"columns", len(wide.Columns),
		"core_rows_read", len(in.core),
		"raw_columns", len(rawCols))
	return wide, nil
}

func columns(rawCols []string) []string {
	cols := []string{
		ColCID, ColPrimaryName, ColInChIKey, ColSMILES, ColConnectivitySMILES,
		ColMolecularFormula, ColMolecularWeight,
		ColSynonymsJSON, ColSynonymsN, ColSynonymsPreview,
		ColPatentIDsJSON, ColPatentIDsN, ColPatentIDsPreview,
		ColMeSHJSON, ColMeSHN, ColMeSHPreview,
		ColFDAJSON, ColFDAN, ColFDAPreview,
		ColClinicalTrials, ColIUPHARHID,
	}
	cols = append(cols, rawCols...)
	return append(cols, ColHeadingCodes)
}

// group dedups rows by (cid, key) and groups them by cid, keeping
// first-seen order. Rows of compounds outside universe are dropped.
func group[T any](rows []T, universe map[model.CID]struct{}, cidOf func(T) model.CID, key func(T) string) map[model.CID][]T {
	out := make(map[model.CID][]T)
	seen := make(map[model.CID]map[string]struct{})
	for _, r := range rows {
		cid := cidOf(r)
		if _, ok := universe[cid]; !ok {
			continue
		}
		k := key(r)
		keys := seen[cid]
		if keys == nil {
			keys = make(map[string]struct{})
			seen[cid] = keys
		}
		if _, dup := keys[k]; dup {
			continue
		}
		keys[k] = struct{}{}
		out[cid] = append(out[cid], r)
	}
	return out
}

// rowKey keys a row by every field
func rowKey[T any](r T) string {
	data, _ := json.Marshal(r)
	return string(data)
}

func firstTitles(rows []model.Title, universe map[model.CID]struct{}) map[model.CID]string {
	out := make(map[model.CID]string)
	for _, t := range rows {
		if _, ok := universe[t.CID]; !ok || t.Title == "" {
			continue
		}
		if _, ok := out[t.CID]; !ok {
			out[t.CID] = t.Title
		}
	}
	return out
}

// headingCodes pivots heading metadata into one object per compound.
// Headings keep first-seen order; a repeated heading takes the latest
// status.
func headingCodes(rows []model.HeadingMeta, universe map[model.CID]struct{}) map[model.CID]tree.Value {
	type entry struct {
		order []string
		codes map[string]int
	}
	byCID := make(map[model.CID]*entry)
	for _, m := range rows {
		if _, ok := universe[m.CID]; !ok || m.Heading == "" {
			continue
		}
		e := byCID[m.CID]
		if e == nil {
			e = &entry{codes: make(map[string]int)}
			byCID[m.CID] = e
		}
		if _, ok := e.codes[m.Heading]; !ok {
			e.order = append(e.order, m.Heading)
		}
		e.codes[m.Heading] = m.HTTPCode
	}

	out := make(map[model.CID]tree.Value, len(universe))
	for cid := range universe {
		e := byCID[cid]
		if e == nil {
			out[cid] = tree.ObjectValue()
			continue
		}
		members := make([]tree.Member, len(e.order))
		for i, h := range e.order {
			members[i] = tree.Member{Key: h, Value: tree.NumberValue(json.Number(strconv.Itoa(e.codes[h])))}
		}
		out[cid] = tree.ObjectValue(members...)
	}
	return out
}

// rawColumns returns the distinct destination columns, sorted
func rawColumns(rows []model.RawHeading, universe map[model.CID]struct{}) []string {
	set := make(map[string]struct{})
	for _, r := range rows {
		if _, ok := universe[r.CID]; !ok || r.ColumnName == "" {
			continue
		}
		set[r.ColumnName] = struct{}{}
	}
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func primaryName(title string, synonyms []model.Synonym) tree.Value {
	if title != "" {
		return tree.StringValue(title)
	}
	if len(synonyms) > 0 {
		return tree.StringValue(synonyms[0].Synonym)
	}
	return tree.NullValue()
}

// listColumns returns the json, count and preview cells of one category
func listColumns(items tree.Value, labels []*string, k int) []tree.Value {
	n := len(items.Items())
	return []tree.Value{
		tree.StringValue(items.String()),
		tree.NumberValue(json.Number(strconv.Itoa(n))),
		tree.StringValue(Preview(labels, k)),
	}
}

// Preview joins the first k non-empty labels with "; "
func Preview(labels []*string, k int) string {
	var out []string
	for _, l := range labels {
		if len(out) == k {
			break
		}
		if l == nil || *l == "" {
			continue
		}
		out = append(out, *l)
	}
	return strings.Join(out, previewSep)
}

func stringsJSON(vals []*string) tree.Value {
	items := make([]tree.Value, len(vals))
	for i, v := range vals {
		items[i] = optString(v)
	}
	return tree.ArrayValue(items...)
}

func meshObject(m model.MeSHClass) tree.Value {
	rawInfo := tree.NullValue()
	if m.RawInfoJSON != "" {
		if v, err := tree.Parse([]byte(m.RawInfoJSON)); err == nil {
			rawInfo = v
		}
	}
	return tree.ObjectValue(
		tree.Member{Key: "name", Value: optString(m.Name)},
		tree.Member{Key: "description", Value: optString(m.Description)},
		tree.Member{Key: "reference_number", Value: optInt(m.ReferenceNumber)},
		tree.Member{Key: "raw_info", Value: rawInfo},
	)
}

func fdaObject(f model.FDAClass) tree.Value {
	return tree.ObjectValue(
		tree.Member{Key: "class_type", Value: optString(f.ClassType)},
		tree.Member{Key: "class_group", Value: optString(f.ClassGroup)},
		tree.Member{Key: "class_name", Value: optString(f.ClassName)},
		tree.Member{Key: "raw_text", Value: tree.StringValue(f.RawText)},
	)
}

func optString(s *string) tree.Value {
	if s == nil {
		return tree.NullValue()
	}
	return tree.StringValue(*s)
}

func optInt(n *int64) tree.Value {
	if n == nil {
		return tree.NullValue()
	}
	return tree.NumberValue(json.Number(strconv.FormatInt(*n, 10)))
}
