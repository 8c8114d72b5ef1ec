package consolidate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSONL writes one JSON object per row, members in column order
func WriteJSONL(w io.Writer, wide *Wide) error {
	bw := bufio.NewWriter(w)
	for i := range wide.Rows {
		data, err := wide.Record(i).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeFileAtomic writes path through a temp file in the same directory
// so readers never see a partial export.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteJSONLFile writes the full table to path
func WriteJSONLFile(path string, wide *Wide) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteJSONL(w, wide)
	})
}
