// Package table stores child records as append-only, numbered JSON-lines
// fragments, one directory per category.
package table

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/tonyg-mp/pubchem/internal/model"
)

// ErrBadCategory is returned for category names that are not plain
// directory names.
var ErrBadCategory = errors.New("invalid category name")

var fragmentRe = regexp.MustCompile(`^part-(\d{5,})\.jsonl$`)

// Store is a directory of partitioned tables
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store root
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) categoryDir(category model.Category) (string, error) {
	name := string(category)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadCategory, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Fragments returns the fragment paths of category in index order. A
// missing category has no fragments.
func (s *Store) Fragments(category model.Category) ([]string, error) {
	dir, err := s.categoryDir(category)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", category, err)
	}

	type frag struct {
		idx  int
		path string
	}
	var frags []frag
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fragmentRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		frags = append(frags, frag{idx: idx, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].idx < frags[j].idx })

	paths := make([]string, len(frags))
	for i, f := range frags {
		paths[i] = f.path
	}
	return paths, nil
}

// nextIndex returns one past the highest existing fragment index.
func (s *Store) nextIndex(category model.Category) (int, error) {
	paths, err := s.Fragments(category)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 1, nil
	}
	m := fragmentRe.FindStringSubmatch(filepath.Base(paths[len(paths)-1]))
	last, _ := strconv.Atoi(m[1])
	return last + 1, nil
}

// WriteFragment appends rows to category as a new numbered fragment and
// returns its path. Empty row sets write nothing and return "". Existing
// fragments are never overwritten.
func WriteFragment[T any](s *Store, category model.Category, rows []T) (path string, err error) {
	if len(rows) == 0 {
		return "", nil
	}

	dir, err := s.categoryDir(category)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", category, err)
	}

	idx, err := s.nextIndex(category)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".part-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create fragment: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = tmp.Close()
			return "", fmt.Errorf("encode row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write fragment: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync fragment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close fragment: %w", err)
	}

	// Link fails rather than replace an existing fragment; retry with the
	// next index in that case.
	for {
		path = filepath.Join(dir, fmt.Sprintf("part-%05d.jsonl", idx))
		err := os.Link(tmpName, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("publish fragment: %w", err)
		}
		idx++
	}
}

// ReadAll concatenates every fragment of category in index order. A
// category with no fragments yields no rows and no error.
func ReadAll[T any](s *Store, category model.Category) ([]T, error) {
	paths, err := s.Fragments(category)
	if err != nil {
		return nil, err
	}

	var rows []T
	for _, p := range paths {
		got, err := readFragment[T](p)
		if err != nil {
			return nil, err
		}
		rows = append(rows, got...)
	}
	return rows, nil
}

func readFragment[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fragment: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows []T
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var row T
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
