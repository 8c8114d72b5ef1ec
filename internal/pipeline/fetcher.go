package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tonyg-mp/pubchem/internal/cache"
	"github.com/tonyg-mp/pubchem/internal/metrics"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
	"github.com/tonyg-mp/pubchem/internal/worker"
)

// HeadingURL builds the PUG-View request for one compound heading. Every
// reserved character of the heading is percent-encoded, spaces as %20.
func HeadingURL(baseURL string, cid model.CID, source model.Source) string {
	heading := strings.ReplaceAll(url.QueryEscape(string(source)), "+", "%20")
	return fmt.Sprintf("%s/rest/pug_view/data/compound/%d/JSON?heading=%s",
		strings.TrimRight(baseURL, "/"), cid, heading)
}

// Fetcher retrieves one heading per call through the response cache
type Fetcher struct {
	client  *Client
	baseURL string
	timeout time.Duration
	cache   *cache.Store
	limiter *worker.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewFetcher wires a fetcher. A nil store disables caching and a nil
// limiter disables pacing.
func NewFetcher(client *Client, baseURL string, timeout time.Duration, store *cache.Store, limiter *worker.Limiter, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	if store == nil {
		store = cache.NewStore(nil)
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1, 0)
	}
	return &Fetcher{
		client:  client,
		baseURL: baseURL,
		timeout: timeout,
		cache:   store,
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// Fetch returns the outcome for (cid, source). Failures of the request
// itself are recorded in the outcome; the returned error is non-nil only
// when ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, cid model.CID, source model.Source) (model.FetchOutcome, error) {
	rawURL := HeadingURL(f.baseURL, cid, source)

	networked := false
	entry, hit, err := f.cache.GetOrFetch(cache.CacheKey(rawURL), func() (cache.Entry, error) {
		networked = true
		return f.request(ctx, source, rawURL)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.FetchOutcome{}, ctxErr
		}
		f.logger.Warn("cache write failed", "cid", cid, "heading", source, "error", err)
	}

	if hit {
		f.metrics.ObserveCacheHit(string(source))
	}
	if networked {
		if err := f.limiter.Pause(ctx); err != nil {
			return model.FetchOutcome{}, err
		}
	}

	outcome := model.FetchOutcome{
		CID:    cid,
		Source: source,
		Meta: model.FetchMeta{
			StatusCode: entry.StatusCode,
			Bytes:      entry.Bytes,
			FromCache:  hit,
		},
	}
	if entry.HasBody() {
		if doc, err := tree.Parse(entry.Body); err == nil {
			outcome.Content = doc
			outcome.HasContent = true
		}
	}
	return outcome, nil
}

// request performs the network call and classifies the response into a
// cacheable entry.
func (f *Fetcher) request(ctx context.Context, source model.Source, rawURL string) (cache.Entry, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return f.failed(ctx, source, rawURL, err)
	}

	status, body, err := f.client.Get(ctx, rawURL, f.timeout)
	if err != nil {
		return f.failed(ctx, source, rawURL, err)
	}

	valid := json.Valid(body)
	switch {
	case status == 200 && valid:
		f.metrics.ObserveRequest(string(source), metrics.OutcomeOK)
		return cache.Entry{StatusCode: status, Bytes: len(body), Body: body}, nil
	case status == 200:
		f.metrics.ObserveRequest(string(source), metrics.OutcomeDecodeError)
		return cache.Entry{StatusCode: status, Bytes: len(body), Body: json.RawMessage("null")}, nil
	case valid:
		f.metrics.ObserveRequest(string(source), metrics.OutcomeHTTPError)
		return cache.Entry{StatusCode: status, Bytes: len(body), Body: body}, nil
	default:
		f.metrics.ObserveRequest(string(source), metrics.OutcomeHTTPError)
		return cache.Entry{StatusCode: status, Bytes: len(body), Body: errorJSON(fmt.Sprintf("HTTP %d", status))}, nil
	}
}

// failed records a request that produced no usable response as status 0
// with an error object. Cancellation is returned instead so nothing is
// cached for it.
func (f *Fetcher) failed(ctx context.Context, source model.Source, rawURL string, err error) (cache.Entry, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cache.Entry{}, ctxErr
	}
	f.metrics.ObserveRequest(string(source), metrics.OutcomeTransportError)
	f.logger.Debug("request failed", "url", rawURL, "error", err)
	return cache.Entry{StatusCode: 0, Body: errorJSON(err.Error())}, nil
}

func errorJSON(msg string) json.RawMessage {
	data, _ := model.ErrorBody(msg).MarshalJSON()
	return data
}
