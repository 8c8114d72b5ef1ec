package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tonyg-mp/pubchem/internal/cache"
	"github.com/tonyg-mp/pubchem/internal/metrics"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/worker"
)

func TestHeadingURL(t *testing.T) {
	got := HeadingURL("https://pubchem.example/", 2244, model.SourceConformer3D)
	want := "https://pubchem.example/rest/pug_view/data/compound/2244/JSON?heading=3D%20Conformer"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	iuphar := HeadingURL("https://pubchem.example", 1, model.SourceIUPHARTargetClass)
	if !strings.Contains(iuphar, "IUPHAR%2FBPS%20Guide%20to%20PHARMACOLOGY") {
		t.Errorf("Expected slash and spaces escaped, got %s", iuphar)
	}
}

func TestFetcher_ClassifiesResponses(t *testing.T) {
	fake := newFakePubChem()
	fake.heading = func(cid model.CID, heading string) (int, string) {
		switch cid {
		case 1:
			return http.StatusOK, `{"Record":{"RecordNumber":1}}`
		case 2:
			return http.StatusNotFound, `{"Fault":{"Code":"PUGVIEW.NotFound"}}`
		case 3:
			return http.StatusServiceUnavailable, `<html>busy</html>`
		default:
			return http.StatusOK, `{"Record":`
		}
	}
	srv := startFake(t, fake)

	f := NewFetcher(testClient(), srv.URL, 5*time.Second, nil, nil, metrics.New(), testLogger)
	ctx := context.Background()

	ok, err := f.Fetch(ctx, 1, model.SourcePatents)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok.OK() || ok.Meta.StatusCode != 200 || ok.Meta.Bytes != len(`{"Record":{"RecordNumber":1}}`) {
		t.Errorf("Unexpected success outcome: %+v", ok.Meta)
	}

	notFound, _ := f.Fetch(ctx, 2, model.SourcePatents)
	if notFound.OK() || notFound.Meta.StatusCode != 404 || !notFound.HasContent {
		t.Errorf("Expected parsed 404 body, got %+v", notFound.Meta)
	}

	busy, _ := f.Fetch(ctx, 3, model.SourcePatents)
	msg, found := busy.ErrorMessage()
	if !found || msg != "HTTP 503" {
		t.Errorf("Expected error object for non-JSON failure, got %q (found=%v)", msg, found)
	}

	broken, _ := f.Fetch(ctx, 4, model.SourcePatents)
	if broken.HasContent || broken.OK() || broken.Meta.StatusCode != 200 {
		t.Errorf("Expected undecodable success to carry no content, got %+v", broken)
	}
}

func TestFetcher_TransportFailure(t *testing.T) {
	srv := startFake(t, newFakePubChem())
	base := srv.URL
	srv.Close()

	f := NewFetcher(testClient(), base, 2*time.Second, nil, nil, nil, testLogger)
	outcome, err := f.Fetch(context.Background(), 7, model.SourceSynonyms)
	if err != nil {
		t.Fatalf("Expected transport failure to be recorded, got error %v", err)
	}
	if outcome.Meta.StatusCode != 0 {
		t.Errorf("Expected status 0, got %d", outcome.Meta.StatusCode)
	}
	if msg, ok := outcome.ErrorMessage(); !ok || msg == "" {
		t.Error("Expected error message in outcome")
	}
	if meta := outcome.HeadingMeta(); meta.CID != 7 || meta.Heading != string(model.SourceSynonyms) {
		t.Errorf("Unexpected heading meta %+v", meta)
	}
}

func TestFetcher_CacheHitSkipsNetwork(t *testing.T) {
	fake := newFakePubChem()
	fake.heading = func(model.CID, string) (int, string) {
		return http.StatusServiceUnavailable, `{"Fault":{"Code":"PUGREST.ServerBusy"}}`
	}
	srv := startFake(t, fake)

	store := cache.NewStore(cache.NewLayeredCache(t.TempDir()))
	f := NewFetcher(testClient(), srv.URL, 5*time.Second, store, nil, nil, testLogger)

	first, err := f.Fetch(context.Background(), 5, model.SourceFDAPharmClass)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Fetch(context.Background(), 5, model.SourceFDAPharmClass)
	if err != nil {
		t.Fatal(err)
	}

	if fake.hits(5) != 1 {
		t.Errorf("Expected 1 network request, got %d", fake.hits(5))
	}
	if first.Meta.FromCache || !second.Meta.FromCache {
		t.Errorf("Expected miss then hit, got %v then %v", first.Meta.FromCache, second.Meta.FromCache)
	}
	if second.Meta.StatusCode != 503 {
		t.Errorf("Expected cached error to stay sticky, got %d", second.Meta.StatusCode)
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv := startFake(t, newFakePubChem())
	store := cache.NewStore(cache.NewLayeredCache(t.TempDir()))
	f := NewFetcher(testClient(), srv.URL, 5*time.Second, store, nil, nil, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, 9, model.SourcePatents); err == nil {
		t.Fatal("Expected cancellation error")
	}

	// Nothing was cached for the aborted request.
	outcome, err := f.Fetch(context.Background(), 9, model.SourcePatents)
	if err != nil || outcome.Meta.FromCache {
		t.Errorf("Expected fresh request, got fromCache=%v err=%v", outcome.Meta.FromCache, err)
	}
}

func TestFetcher_ShortBodyIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, `{"Record":`)
	}))
	t.Cleanup(srv.Close)

	store := cache.NewStore(cache.NewLayeredCache(t.TempDir()))
	f := NewFetcher(testClient(), srv.URL, 5*time.Second, store, nil, nil, testLogger)

	outcome, err := f.Fetch(context.Background(), 1, model.SourcePatents)
	if err != nil {
		t.Fatalf("Expected failure to be recorded, got error %v", err)
	}
	if outcome.OK() || outcome.Meta.StatusCode != 0 {
		t.Errorf("Expected status 0 and not OK, got status %d OK=%v", outcome.Meta.StatusCode, outcome.OK())
	}
	if msg, ok := outcome.ErrorMessage(); !ok || !strings.Contains(msg, "read body") {
		t.Errorf("Expected read body error message, got %q (found=%v)", msg, ok)
	}

	cached, err := f.Fetch(context.Background(), 1, model.SourcePatents)
	if err != nil {
		t.Fatal(err)
	}
	if !cached.Meta.FromCache || cached.OK() || cached.Meta.StatusCode != 0 {
		t.Errorf("Expected cached failure, got %+v", cached.Meta)
	}
}

func TestFetcher_OversizedBodyIsTransportFailure(t *testing.T) {
	fake := newFakePubChem()
	fake.heading = func(model.CID, string) (int, string) {
		return http.StatusOK, `{"Record":{"RecordTitle":"` + strings.Repeat("x", 64) + `"}}`
	}
	srv := startFake(t, fake)

	client := NewClient(model.HTTPConfig{UserAgent: "pubchem-test", MaxBodyBytes: 32})
	f := NewFetcher(client, srv.URL, 5*time.Second, nil, nil, nil, testLogger)

	outcome, err := f.Fetch(context.Background(), 2, model.SourcePatents)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.OK() || outcome.Meta.StatusCode != 0 {
		t.Errorf("Expected status 0 and not OK, got %+v", outcome.Meta)
	}
	if msg, ok := outcome.ErrorMessage(); !ok || !strings.Contains(msg, "too large") {
		t.Errorf("Expected body limit message, got %q (found=%v)", msg, ok)
	}
}

func TestFetcher_LimiterErrorIsRecorded(t *testing.T) {
	limiter := worker.NewLimiter(100, 1, 0)
	f := NewFetcher(testClient(), "http://%zz", 5*time.Second, nil, limiter, nil, testLogger)

	outcome, err := f.Fetch(context.Background(), 3, model.SourceSynonyms)
	if err != nil {
		t.Fatalf("Expected failure to be recorded, got error %v", err)
	}
	if outcome.Meta.StatusCode != 0 {
		t.Errorf("Expected status 0, got %d", outcome.Meta.StatusCode)
	}
	if msg, ok := outcome.ErrorMessage(); !ok || msg == "" {
		t.Error("Expected error object in outcome")
	}
}
