package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tonyg-mp/pubchem/internal/metrics"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
	"github.com/tonyg-mp/pubchem/internal/worker"
)

// PropertyNames are requested for every compound in a batch
var PropertyNames = []string{"Title", "InChIKey", "SMILES", "ConnectivitySMILES", "MolecularFormula", "MolecularWeight"}

// PropertiesURL builds the PUG REST property request for ids
func PropertiesURL(baseURL string, ids []model.CID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return fmt.Sprintf("%s/rest/pug/compound/cid/%s/property/%s/JSON",
		strings.TrimRight(baseURL, "/"), strings.Join(parts, ","), strings.Join(PropertyNames, ","))
}

// PropertyLookup fetches scalar properties for a batch of compounds in
// one request
type PropertyLookup struct {
	client  *Client
	baseURL string
	timeout time.Duration
	limiter *worker.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPropertyLookup wires a lookup. A nil limiter disables pacing.
func NewPropertyLookup(client *Client, baseURL string, timeout time.Duration, limiter *worker.Limiter, m *metrics.Metrics, logger *slog.Logger) *PropertyLookup {
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1, 0)
	}
	return &PropertyLookup{
		client:  client,
		baseURL: baseURL,
		timeout: timeout,
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// Lookup returns the property record of every compound the service
// reported, keyed by CID. Any failure of the batch yields an empty map;
// the error is non-nil only when ctx is done.
func (p *PropertyLookup) Lookup(ctx context.Context, ids []model.CID) (map[model.CID]tree.Value, error) {
	out := make(map[model.CID]tree.Value)
	if len(ids) == 0 {
		return out, nil
	}

	rawURL := PropertiesURL(p.baseURL, ids)
	if err := p.limiter.Wait(ctx, rawURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.metrics.ObservePropertyBatch(metrics.OutcomeTransportError)
		p.logger.Warn("property batch failed", "first_cid", ids[0], "size", len(ids), "error", err)
		return out, nil
	}

	status, body, err := p.client.Get(ctx, rawURL, p.timeout)
	if pauseErr := p.limiter.Pause(ctx); pauseErr != nil {
		return nil, pauseErr
	}

	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.metrics.ObservePropertyBatch(metrics.OutcomeTransportError)
		p.logger.Warn("property batch failed", "first_cid", ids[0], "size", len(ids), "error", err)
		return out, nil
	case status != 200:
		p.metrics.ObservePropertyBatch(metrics.OutcomeHTTPError)
		p.logger.Warn("property batch failed", "first_cid", ids[0], "size", len(ids), "status", status)
		return out, nil
	}

	doc, err := tree.Parse(body)
	if err != nil {
		p.metrics.ObservePropertyBatch(metrics.OutcomeDecodeError)
		p.logger.Warn("property batch undecodable", "first_cid", ids[0], "size", len(ids), "error", err)
		return out, nil
	}

	for _, rec := range doc.Path("PropertyTable", "Properties").Items() {
		n, ok := rec.Field("CID").Int()
		if !ok || n <= 0 {
			continue
		}
		out[model.CID(n)] = rec
	}
	p.metrics.ObservePropertyBatch(metrics.OutcomeOK)
	return out, nil
}

// CoreRecordFrom converts a property record into the compound's core row
// and, when reported, its title. A zero rec yields an all-null core row.
func CoreRecordFrom(cid model.CID, rec tree.Value) (model.CoreRecord, *model.Title) {
	core := model.CoreRecord{
		CID:                cid,
		InChIKey:           rec.OptText("InChIKey"),
		SMILES:             rec.OptText("SMILES"),
		ConnectivitySMILES: rec.OptText("ConnectivitySMILES"),
		MolecularFormula:   rec.OptText("MolecularFormula"),
		MolecularWeight:    rec.OptText("MolecularWeight"),
	}

	title, ok := rec.Field("Title").Str()
	if !ok || strings.TrimSpace(title) == "" {
		return core, nil
	}
	return core, &model.Title{CID: cid, Title: title}
}
