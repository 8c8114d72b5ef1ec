package worker

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
)

// ReadIDsFromFile reads compound IDs from a file. Lines may hold several
// IDs separated by commas or semicolons; tokens that are not plain digits
// are skipped. The result is deduplicated, sorted ascending and truncated
// to maxIDs when maxIDs > 0.
func ReadIDsFromFile(filePath string, maxIDs int) ([]model.CID, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	seen := make(map[model.CID]bool)
	var ids []model.CID

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			cid, ok := parseID(strings.TrimSpace(part))
			if !ok || seen[cid] {
				continue
			}
			seen[cid] = true
			ids = append(ids, cid)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if maxIDs > 0 && len(ids) > maxIDs {
		ids = ids[:maxIDs]
	}
	return ids, nil
}

func parseID(tok string) (model.CID, bool) {
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return model.CID(n), true
}

// Chunk splits ids into consecutive groups of at most size.
func Chunk(ids []model.CID, size int) [][]model.CID {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]model.CID
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
