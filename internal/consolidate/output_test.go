package consolidate

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/table"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"abcdef", 3, "abc…"},
		{"ééééé", 2, "éé…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func largeRawStore(t *testing.T) (*table.Store, string) {
	t.Helper()
	s := table.NewStore(t.TempDir())
	payload := `{"x":"` + strings.Repeat("a", 40000-8) + `"}`
	if len(payload) != 40000 {
		t.Fatalf("fixture length %d", len(payload))
	}
	mustWrite(t, s, model.CategoryCore, []model.CoreRecord{{CID: 1, InChIKey: strp("KEY")}, {CID: 2}, {CID: 3}})
	mustWrite(t, s, model.CategoryRawHeadings, []model.RawHeading{{CID: 1, ColumnName: "pugview_patents_heading_json", JSON: payload}})
	return s, payload
}

func TestPreview_TruncatesOnlyPreview(t *testing.T) {
	s, payload := largeRawStore(t)
	w := build(t, s)

	var full bytes.Buffer
	if err := WriteJSONL(&full, w); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(full.String(), strings.Repeat("a", 40000-8)) {
		t.Error("Expected full table to keep the payload intact")
	}

	var out bytes.Buffer
	n, err := WritePreviewXLSX(&out, w, 2, 30000)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Expected 2 preview rows, got %d", n)
	}

	book, err := excelize.OpenReader(&out)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = book.Close() }()
	records, err := book.GetRows(PreviewSheet)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(records))
	}

	header := records[0]
	col := -1
	for i, h := range header {
		if h == "pugview_patents_heading_json" {
			col = i
		}
	}
	if col < 0 {
		t.Fatalf("raw column missing from preview header %v", header)
	}
	cell := records[1][col]
	if utf8.RuneCountInString(cell) != 30001 || !strings.HasSuffix(cell, Ellipsis) || cell[:30000] != payload[:30000] {
		t.Errorf("Expected 30000 characters plus ellipsis, got %d runes", utf8.RuneCountInString(cell))
	}
	if col < len(records[2]) && records[2][col] != "" {
		t.Errorf("Expected null cell as empty, got %q", records[2][col])
	}
	if records[1][0] != "1" || records[2][0] != "2" {
		t.Errorf("Expected cid column first, got %q and %q", records[1][0], records[2][0])
	}

	// Building never mutates the wide table itself.
	if got := cellString(t, w, 0, "pugview_patents_heading_json"); got != payload {
		t.Error("Preview writing altered the wide table")
	}
}

func TestPreviewColumns(t *testing.T) {
	s, _ := largeRawStore(t)
	cols := PreviewColumns(build(t, s))

	if cols[0] != ColCID || cols[1] != ColPrimaryName {
		t.Errorf("Expected prioritized columns first, got %v", cols)
	}
	idx := map[string]int{}
	for i, c := range cols {
		idx[c] = i
	}
	if _, ok := idx[ColClinicalTrials]; ok {
		t.Error("Expected non-json extra columns left out of preview")
	}
	if idx[ColSynonymsJSON] <= idx[ColHeadingCodes] {
		t.Error("Expected remaining json columns after the prioritized list")
	}
	if _, ok := idx["pugview_patents_heading_json"]; !ok {
		t.Error("Expected raw json column in preview")
	}
}

func TestWriteFiles(t *testing.T) {
	s, _ := largeRawStore(t)
	w := build(t, s)
	dir := t.TempDir()

	full := filepath.Join(dir, "out", "wide.jsonl")
	if err := WriteTableFile(full, w); err != nil {
		t.Fatalf("WriteTableFile: %v", err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "\n") != 3 {
		t.Errorf("Expected 3 lines in %s", full)
	}

	if err := WriteTableFile(filepath.Join(dir, "out", "wide.parquet"), w); err != nil {
		t.Fatalf("WriteTableFile parquet: %v", err)
	}

	preview := filepath.Join(dir, "out", "preview.xlsx")
	n, err := WritePreviewFile(preview, w, 0, 100)
	if err != nil || n != 3 {
		t.Errorf("Expected all 3 rows written, got %d, %v", n, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "out"))
	if len(entries) != 3 {
		t.Errorf("Expected no temp files left, got %v", entries)
	}
}

func TestWriteParquet(t *testing.T) {
	s, payload := largeRawStore(t)
	w := build(t, s)
	path := filepath.Join(t.TempDir(), "wide.parquet")
	if err := WriteTableFile(path, w); err != nil {
		t.Fatalf("WriteTableFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	tbl, err := pqarrow.ReadTable(context.Background(), f, parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 3 {
		t.Fatalf("Expected 3 rows, got %d", tbl.NumRows())
	}
	if int(tbl.NumCols()) != len(w.Columns) {
		t.Fatalf("Expected %d columns, got %d", len(w.Columns), tbl.NumCols())
	}

	column := func(name string) arrow.Array {
		t.Helper()
		for i := 0; i < int(tbl.NumCols()); i++ {
			if tbl.Schema().Field(i).Name == name {
				return tbl.Column(i).Data().Chunk(0)
			}
		}
		t.Fatalf("column %s missing", name)
		return nil
	}

	cids, ok := column(ColCID).(*array.Int64)
	if !ok || cids.Value(0) != 1 || cids.Value(2) != 3 {
		t.Errorf("Unexpected cid column %v", column(ColCID))
	}
	counts, ok := column(ColSynonymsN).(*array.Int64)
	if !ok || counts.Value(0) != 0 {
		t.Errorf("Unexpected synonyms_n column %v", column(ColSynonymsN))
	}

	keys := column(ColInChIKey).(*array.String)
	if keys.Value(0) != "KEY" || !keys.IsNull(1) {
		t.Errorf("Expected KEY then null, got %q null=%v", keys.Value(0), keys.IsNull(1))
	}
	raw := column("pugview_patents_heading_json").(*array.String)
	if raw.Value(0) != payload {
		t.Error("Expected full payload in parquet, untruncated")
	}
}

func TestWriteSQLite(t *testing.T) {
	s, _ := largeRawStore(t)
	w := build(t, s)
	path := filepath.Join(t.TempDir(), "wide.db")

	// Written twice: the second export replaces the first.
	for i := 0; i < 2; i++ {
		if err := WriteSQLite(context.Background(), path, w); err != nil {
			t.Fatalf("WriteSQLite: %v", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	query, args, err := sq.Select("cid", "inchikey", "synonyms_n", "pugview_patents_heading_json").
		From(SQLiteTable).
		OrderBy("cid").
		ToSql()
	if err != nil {
		t.Fatal(err)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var got []int64
	for rows.Next() {
		var (
			cid      int64
			inchikey sql.NullString
			n        int64
			raw      sql.NullString
		)
		if err := rows.Scan(&cid, &inchikey, &n, &raw); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, cid)
		if cid == 1 && (!inchikey.Valid || inchikey.String != "KEY" || !raw.Valid || len(raw.String) != 40000) {
			t.Errorf("Unexpected row 1: %v %v", inchikey, len(raw.String))
		}
		if cid == 2 && (inchikey.Valid || raw.Valid) {
			t.Error("Expected nulls for row 2")
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 rows, got %v", got)
	}
}
