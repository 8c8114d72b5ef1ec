package consolidate

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/tonyg-mp/pubchem/internal/tree"
)

// ParquetExt is the extension that selects the parquet writer
const ParquetExt = ".parquet"

// ArrowSchema maps the wide columns to arrow fields: integer columns are
// int64, everything else is a nullable string. cid is never null.
func ArrowSchema(wide *Wide) *arrow.Schema {
	fields := make([]arrow.Field, len(wide.Columns))
	for i, c := range wide.Columns {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if integerColumns[c] {
			typ = arrow.PrimitiveTypes.Int64
		}
		fields[i] = arrow.Field{Name: c, Type: typ, Nullable: c != ColCID}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteParquet writes wide as a single-row-group parquet file
func WriteParquet(w io.Writer, wide *Wide) error {
	schema := ArrowSchema(wide)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for r, row := range wide.Rows {
		for i, cell := range row {
			switch fb := b.Field(i).(type) {
			case *array.Int64Builder:
				n, ok := cell.Int()
				if !ok {
					if cell.IsNull() {
						fb.AppendNull()
						continue
					}
					return fmt.Errorf("row %d column %s: %s is not an integer", r, wide.Columns[i], cell)
				}
				fb.Append(n)
			case *array.StringBuilder:
				if cell.IsNull() {
					fb.AppendNull()
					continue
				}
				fb.Append(cellText(cell))
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// The writer closes its sink; the caller owns w.
	fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w}, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet: %w", err)
	}
	return nil
}

// WriteTableFile writes the full table to path, as parquet when path ends
// in .parquet and as JSON lines otherwise.
func WriteTableFile(path string, wide *Wide) error {
	if strings.EqualFold(filepath.Ext(path), ParquetExt) {
		return writeFileAtomic(path, func(w io.Writer) error {
			return WriteParquet(w, wide)
		})
	}
	return WriteJSONLFile(path, wide)
}

// cellText renders a non-null cell as a string column value
func cellText(v tree.Value) string {
	if s, ok := v.Text(); ok {
		return s
	}
	return v.String()
}
