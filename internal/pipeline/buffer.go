package pipeline

import (
	"fmt"

	"github.com/tonyg-mp/pubchem/internal/metrics"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/table"
)

// FlushBuffer holds records and completed compounds between flushes. It
// is owned by the fetch loop and only emptied by Flush.
type FlushBuffer struct {
	records   model.Records
	processed []model.CID
}

// Add appends records to the buffer
func (b *FlushBuffer) Add(r model.Records) {
	b.records.Append(r)
}

// MarkProcessed records that every heading of cid was attempted
func (b *FlushBuffer) MarkProcessed(cid model.CID) {
	b.processed = append(b.processed, cid)
}

// Pending returns the number of buffered records and compounds
func (b *FlushBuffer) Pending() (records, subjects int) {
	return b.records.Len(), len(b.processed)
}

// FlushResult summarises one flush
type FlushResult struct {
	Fragments    int
	Rows         int
	Checkpointed int
}

// Flush writes one fragment per non-empty category, then appends the
// processed compounds to the checkpoint, then clears the buffer. The
// buffer is left intact when a write fails.
func (b *FlushBuffer) Flush(store *table.Store, cp *Checkpoint, m *metrics.Metrics) (FlushResult, error) {
	var res FlushResult

	write := func(category model.Category, n int, fn func() (string, error)) error {
		path, err := fn()
		if err != nil {
			return fmt.Errorf("write %s: %w", category, err)
		}
		if path != "" {
			res.Fragments++
			res.Rows += n
			m.ObserveFragment(string(category))
		}
		return nil
	}

	r := &b.records
	steps := []struct {
		category model.Category
		n        int
		fn       func() (string, error)
	}{
		{model.CategoryCore, len(r.Core), func() (string, error) { return table.WriteFragment(store, model.CategoryCore, r.Core) }},
		{model.CategoryTitles, len(r.Titles), func() (string, error) { return table.WriteFragment(store, model.CategoryTitles, r.Titles) }},
		{model.CategoryHeadingMeta, len(r.HeadingMeta), func() (string, error) {
			return table.WriteFragment(store, model.CategoryHeadingMeta, r.HeadingMeta)
		}},
		{model.CategorySynonyms, len(r.Synonyms), func() (string, error) { return table.WriteFragment(store, model.CategorySynonyms, r.Synonyms) }},
		{model.CategoryPatentIDs, len(r.PatentIDs), func() (string, error) {
			return table.WriteFragment(store, model.CategoryPatentIDs, r.PatentIDs)
		}},
		{model.CategoryMeSH, len(r.MeSH), func() (string, error) { return table.WriteFragment(store, model.CategoryMeSH, r.MeSH) }},
		{model.CategoryFDA, len(r.FDA), func() (string, error) { return table.WriteFragment(store, model.CategoryFDA, r.FDA) }},
		{model.CategoryRawHeadings, len(r.RawHeadings), func() (string, error) {
			return table.WriteFragment(store, model.CategoryRawHeadings, r.RawHeadings)
		}},
		{model.CategoryClinicalTrials, len(r.ClinicalTrials), func() (string, error) {
			return table.WriteFragment(store, model.CategoryClinicalTrials, r.ClinicalTrials)
		}},
		{model.CategoryIUPHAR, len(r.IUPHAR), func() (string, error) { return table.WriteFragment(store, model.CategoryIUPHAR, r.IUPHAR) }},
	}
	for _, step := range steps {
		if err := write(step.category, step.n, step.fn); err != nil {
			return res, err
		}
	}

	// Fragments are on disk before their compounds are checkpointed.
	if err := cp.Append(b.processed); err != nil {
		return res, err
	}
	res.Checkpointed = len(b.processed)

	b.records.Reset()
	b.processed = b.processed[:0]
	return res, nil
}
