package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
)

// CheckpointFile is the checkpoint log name inside the output directory
const CheckpointFile = "processed_cids.txt"

// Checkpoint is the append-only log of fully processed compounds
type Checkpoint struct {
	path string
}

// NewCheckpoint opens the log at path; the file is created on first append
func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{path: path}
}

// Path returns the log location
func (c *Checkpoint) Path() string {
	return c.path
}

// Load reads every checkpointed CID. A missing log is empty. Lines that
// are not positive integers, such as a torn final line, are skipped.
func (c *Checkpoint) Load() (map[model.CID]struct{}, error) {
	done := make(map[model.CID]struct{})

	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return done, nil
		}
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		done[model.CID(n)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return done, nil
}

// Append durably adds ids to the log
func (c *Checkpoint) Append(ids []model.CID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}

	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(strconv.FormatInt(int64(id), 10))
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("append checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	return f.Close()
}
