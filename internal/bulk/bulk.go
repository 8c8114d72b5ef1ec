// Package bulk imports child records from PubChem's bulk extras files
// instead of per-compound requests.
package bulk

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

const maxLineBytes = 16 << 20

// Stats summarises one import
type Stats struct {
	Lines      int
	Rows       int
	UniqueCIDs int
}

// WantedSet converts a compound list into a lookup set
func WantedSet(ids []model.CID) map[model.CID]struct{} {
	out := make(map[model.CID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineBytes)
	return s
}

func parseCID(tok string) (model.CID, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return model.CID(n), true
}

func uniqueCIDs[T any](rows []T, cidOf func(T) model.CID) int {
	seen := make(map[model.CID]struct{})
	for _, r := range rows {
		seen[cidOf(r)] = struct{}{}
	}
	return len(seen)
}

// ReadSynonyms streams CID<TAB>synonym lines and keeps distinct pairs for
// wanted compounds, in file order. Progress is logged every logEvery
// lines when logEvery > 0.
func ReadSynonyms(r io.Reader, wanted map[model.CID]struct{}, logger *slog.Logger, logEvery int) ([]model.Synonym, Stats, error) {
	var (
		stats Stats
		rows  []model.Synonym
	)
	type key struct {
		cid model.CID
		syn string
	}
	seen := make(map[key]struct{})

	scanner := newScanner(r)
	for scanner.Scan() {
		stats.Lines++
		if logEvery > 0 && stats.Lines%logEvery == 0 {
			logger.Info("streaming synonyms", "lines", stats.Lines, "matched", len(rows))
		}

		cidStr, syn, ok := strings.Cut(scanner.Text(), "\t")
		if !ok {
			continue
		}
		syn = strings.TrimSpace(syn)
		cid, ok := parseCID(cidStr)
		if !ok || syn == "" {
			continue
		}
		if _, ok := wanted[cid]; !ok {
			continue
		}
		k := key{cid, syn}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, model.Synonym{CID: cid, Synonym: syn})
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read synonyms: %w", err)
	}

	stats.Rows = len(rows)
	stats.UniqueCIDs = uniqueCIDs(rows, func(s model.Synonym) model.CID { return s.CID })
	return rows, stats, nil
}

// ReadSynonymsFile reads a gzip-compressed CID-Synonym dump
func ReadSynonymsFile(path string, wanted map[model.CID]struct{}, logger *slog.Logger, logEvery int) ([]model.Synonym, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open synonyms: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	return ReadSynonyms(gz, wanted, logger, logEvery)
}

// ReadMeSHPharm loads term<TAB>class[<TAB>class...] lines into a map from
// MeSH term to its pharmacological classes. Terms without classes are
// skipped.
func ReadMeSHPharm(r io.Reader) (map[string][]string, error) {
	out := make(map[string][]string)
	scanner := newScanner(r)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		term := strings.TrimSpace(parts[0])
		var classes []string
		for _, p := range parts[1:] {
			if c := strings.TrimSpace(p); c != "" {
				classes = append(classes, c)
			}
		}
		if term != "" && len(classes) > 0 {
			out[term] = classes
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read MeSH-Pharm: %w", err)
	}
	return out, nil
}

// ReadCIDMeSH streams cid<TAB>term[<TAB>term...] lines and emits one MeSH
// row per distinct (cid, class, term) for wanted compounds.
func ReadCIDMeSH(r io.Reader, pharm map[string][]string, wanted map[model.CID]struct{}) ([]model.MeSHClass, Stats, error) {
	var (
		stats Stats
		rows  []model.MeSHClass
	)
	type key struct {
		cid         model.CID
		class, term string
	}
	seen := make(map[key]struct{})

	scanner := newScanner(r)
	for scanner.Scan() {
		stats.Lines++
		parts := strings.Split(scanner.Text(), "\t")
		cid, ok := parseCID(parts[0])
		if !ok {
			continue
		}
		if _, ok := wanted[cid]; !ok {
			continue
		}
		for _, p := range parts[1:] {
			term := strings.TrimSpace(p)
			if term == "" {
				continue
			}
			for _, class := range pharm[term] {
				k := key{cid, class, term}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				rows = append(rows, meshRow(cid, class, term))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read CID-MeSH: %w", err)
	}

	stats.Rows = len(rows)
	stats.UniqueCIDs = uniqueCIDs(rows, func(m model.MeSHClass) model.CID { return m.CID })
	return rows, stats, nil
}

func meshRow(cid model.CID, class, term string) model.MeSHClass {
	name := class
	info := tree.ObjectValue(
		tree.Member{Key: "mesh_term", Value: tree.StringValue(term)},
		tree.Member{Key: "pharm_class", Value: tree.StringValue(class)},
	)
	return model.MeSHClass{
		CID:         cid,
		Name:        &name,
		RawInfoJSON: info.String(),
	}
}

// ReadMeSHExtras reads MeSH-Pharm and CID-MeSH from an extras directory
func ReadMeSHExtras(dir string, wanted map[model.CID]struct{}) ([]model.MeSHClass, Stats, error) {
	pharmFile, err := os.Open(filepath.Join(dir, "MeSH-Pharm"))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open MeSH-Pharm: %w", err)
	}
	pharm, err := ReadMeSHPharm(pharmFile)
	_ = pharmFile.Close()
	if err != nil {
		return nil, Stats{}, err
	}

	cidFile, err := os.Open(filepath.Join(dir, "CID-MeSH"))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open CID-MeSH: %w", err)
	}
	defer func() { _ = cidFile.Close() }()

	return ReadCIDMeSH(cidFile, pharm, wanted)
}
