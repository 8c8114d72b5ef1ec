package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/tonyg-mp/pubchem/internal/logging"
	"github.com/tonyg-mp/pubchem/internal/model"
)

// fakePubChem serves the two PubChem endpoints the pull uses.
type fakePubChem struct {
	mu sync.Mutex

	// heading returns status and body for one heading request.
	heading func(cid model.CID, heading string) (int, string)
	// props holds the property record per compound; absent compounds are
	// left out of batch responses.
	props      map[model.CID]string
	propStatus int

	headingHits   map[model.CID]int
	propertyCalls []string
	onHeading     func(cid model.CID, heading string)
}

func newFakePubChem() *fakePubChem {
	return &fakePubChem{
		heading: func(model.CID, string) (int, string) {
			return http.StatusNotFound, `{"Fault":{"Code":"PUGVIEW.NotFound"}}`
		},
		props:       make(map[model.CID]string),
		propStatus:  http.StatusOK,
		headingHits: make(map[model.CID]int),
	}
}

func (f *fakePubChem) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	switch {
	case strings.HasPrefix(r.URL.Path, "/rest/pug_view/data/compound/") && len(parts) > 5:
		n, _ := strconv.ParseInt(parts[5], 10, 64)
		cid := model.CID(n)
		heading := r.URL.Query().Get("heading")

		f.mu.Lock()
		f.headingHits[cid]++
		hook := f.onHeading
		f.mu.Unlock()
		if hook != nil {
			hook(cid, heading)
		}

		status, body := f.heading(cid, heading)
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)

	case strings.HasPrefix(r.URL.Path, "/rest/pug/compound/cid/") && len(parts) > 5:
		f.mu.Lock()
		f.propertyCalls = append(f.propertyCalls, parts[5])
		status := f.propStatus
		f.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = fmt.Fprint(w, `{"Fault":{"Code":"PUGREST.ServerBusy"}}`)
			return
		}

		var recs []string
		for _, tok := range strings.Split(parts[5], ",") {
			n, _ := strconv.ParseInt(tok, 10, 64)
			if rec, ok := f.props[model.CID(n)]; ok {
				recs = append(recs, rec)
			}
		}
		_, _ = fmt.Fprintf(w, `{"PropertyTable":{"Properties":[%s]}}`, strings.Join(recs, ","))

	default:
		http.NotFound(w, r)
	}
}

func (f *fakePubChem) hits(cid model.CID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headingHits[cid]
}

func (f *fakePubChem) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.propertyCalls...)
}

func startFake(t *testing.T, f *fakePubChem) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *Client {
	return NewClient(model.HTTPConfig{UserAgent: "pubchem-test"})
}

var testLogger = logging.Discard()
