package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tonyg-mp/pubchem/internal/extract"
	"github.com/tonyg-mp/pubchem/internal/metrics"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/table"
	"github.com/tonyg-mp/pubchem/internal/worker"
)

// progressEvery is the number of compounds between progress lines
const progressEvery = 25

// Options controls one run of the fetch loop
type Options struct {
	// FlushEvery is the number of compounds between flushes; <= 0 flushes
	// only at the end.
	FlushEvery int
	// BatchSize is the number of compounds per property lookup.
	BatchSize int
	// Sources are fetched for every compound, in order.
	Sources []model.Source
	// Resume skips compounds already in the checkpoint log.
	Resume bool
}

// Stats summarises a run
type Stats struct {
	Requested    int
	Skipped      int
	Processed    int
	Fragments    int
	Rows         int
	Checkpointed int
	Interrupted  bool
	Elapsed      time.Duration
}

// Loop drives the fetcher and extractors over a compound list and
// persists their records
type Loop struct {
	fetcher    *Fetcher
	properties *PropertyLookup
	registry   *extract.Registry
	store      *table.Store
	checkpoint *Checkpoint
	metrics    *metrics.Metrics
	logger     *slog.Logger
	opts       Options
}

// NewLoop creates a fetch loop
func NewLoop(fetcher *Fetcher, properties *PropertyLookup, registry *extract.Registry, store *table.Store, checkpoint *Checkpoint, m *metrics.Metrics, logger *slog.Logger, opts Options) *Loop {
	if len(opts.Sources) == 0 {
		opts.Sources = model.Sources(false)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = model.DefaultConfig().Pull.PropertiesBatchSize
	}
	return &Loop{
		fetcher:    fetcher,
		properties: properties,
		registry:   registry,
		store:      store,
		checkpoint: checkpoint,
		metrics:    m,
		logger:     logger,
		opts:       opts,
	}
}

// Run processes every compound of ids not yet checkpointed, in ascending
// order. Per-request failures are recorded, not returned. The returned
// error reports a storage failure or ctx cancellation; in the latter case
// the compounds completed so far are flushed first.
func (l *Loop) Run(ctx context.Context, ids []model.CID) (Stats, error) {
	start := time.Now()
	stats := Stats{Requested: len(ids)}

	todo, err := l.remaining(ids)
	if err != nil {
		return stats, err
	}
	stats.Skipped = len(ids) - len(todo)

	l.logger.Info("starting pull",
		"requested", len(ids),
		"skipped", stats.Skipped,
		"remaining", len(todo),
		"headings", len(l.opts.Sources),
		"checkpoint", l.checkpoint.Path())

	buf := &FlushBuffer{}
	flush := func() error {
		res, err := buf.Flush(l.store, l.checkpoint, l.metrics)
		stats.Fragments += res.Fragments
		stats.Rows += res.Rows
		stats.Checkpointed += res.Checkpointed
		if err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		l.logger.Info("flushed", "fragments", res.Fragments, "rows", res.Rows, "checkpointed", res.Checkpointed)
		return nil
	}

	var runErr error
	done := 0
batches:
	for _, batch := range worker.Chunk(todo, l.opts.BatchSize) {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		props, err := l.properties.Lookup(ctx, batch)
		if err != nil {
			runErr = err
			break
		}

		for _, cid := range batch {
			if runErr = ctx.Err(); runErr != nil {
				break batches
			}

			core, title := CoreRecordFrom(cid, props[cid])
			recs := model.Records{Core: []model.CoreRecord{core}}
			if title != nil {
				recs.Titles = append(recs.Titles, *title)
			}

			for _, source := range l.opts.Sources {
				outcome, err := l.fetcher.Fetch(ctx, cid, source)
				if err != nil {
					// The compound is incomplete; drop its records so it is
					// redone on resume.
					runErr = err
					break batches
				}
				recs.HeadingMeta = append(recs.HeadingMeta, outcome.HeadingMeta())
				if !outcome.OK() {
					continue
				}
				if ex, ok := l.registry.For(source); ok {
					recs.Append(ex.Extract(cid, outcome.Content))
				}
			}

			buf.Add(recs)
			buf.MarkProcessed(cid)
			l.metrics.ObserveSubject()
			stats.Processed++
			done++

			if done%progressEvery == 0 || done == len(todo) {
				rate := float64(done) / max(time.Since(start).Seconds(), 1e-9)
				l.logger.Info("progress", "processed", done, "total", len(todo), "rate", fmt.Sprintf("%.2f cid/s", rate))
			}

			if l.opts.FlushEvery > 0 && done%l.opts.FlushEvery == 0 {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	if runErr != nil {
		stats.Interrupted = true
		l.logger.Warn("pull interrupted", "processed", stats.Processed, "error", runErr)
		return stats, runErr
	}
	return stats, nil
}

// remaining returns the ascending, deduplicated ids still to process
func (l *Loop) remaining(ids []model.CID) ([]model.CID, error) {
	var done map[model.CID]struct{}
	if l.opts.Resume {
		var err error
		done, err = l.checkpoint.Load()
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[model.CID]struct{}, len(ids))
	todo := make([]model.CID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := done[id]; ok {
			continue
		}
		todo = append(todo, id)
	}
	sort.Slice(todo, func(i, j int) bool { return todo[i] < todo[j] })
	return todo, nil
}
