package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmwn/skramble/pkg/cache"
	"github.com/cmwn/skramble/pkg/ledger"
	"github.com/cmwn/skramble/pkg/mediaapi"
	"github.com/cmwn/skramble/pkg/pipeline"
	"github.com/cmwn/skramble/pkg/skribbleapi"
)

// newTestServer wires a server against a fake spec API that serves an empty
// document, which renders to a bare canvas without touching the media API.
// It returns the server, its ledger, and the spec and postback base URLs.
func newTestServer(t *testing.T) (*Server, *ledger.Memory, string, string) {
	t.Helper()

	specSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"skribble_id":"any","rules":{"items":[],"messages":[]}}`))
	}))
	t.Cleanup(specSrv.Close)

	postSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(postSrv.Close)

	ldg := ledger.NewMemory()
	runner := pipeline.NewRunner(pipeline.Services{
		Specs: skribbleapi.New(skribbleapi.Config{}),
		Media: mediaapi.New(mediaapi.Config{
			BaseURL: "http://unused.invalid",
			Meta:    cache.NewMemoryStore(),
			Images:  cache.NewImages(),
		}),
		Ledger: ldg,
	}, nil)

	srv := New(runner, ldg, nil)
	return srv, ldg, specSrv.URL, postSrv.URL
}

func TestHealthz(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestRenderRejectsBadRequests(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing url", `{"post_back":"https://x/f/1"}`},
		{"missing postback", `{"skribble_url":"https://x/s/1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/skribbles/s1/render", "application/json",
				strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestRenderAcceptsAndRuns(t *testing.T) {
	srv, ldg, specURL, postURL := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := `{"skribble_url":"` + specURL + `/s/s2","post_back":"` + postURL + `/f/s2"}`
	resp, err := http.Post(ts.URL+"/v1/skribbles/s2/render", "application/json",
		strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var accepted map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted["skribble_id"] != "s2" || accepted["status"] != ledger.StatusProcessing {
		t.Errorf("accepted = %v", accepted)
	}

	// The run completes in the background; poll the ledger.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec, err := ldg.Get(context.Background(), "s2")
		if err == nil && rec.Status == ledger.StatusSuccess {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never completed, last record: %+v, err: %v", rec, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, ldg, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/skribbles/ghost")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown run status = %d, want 404", resp.StatusCode)
	}

	_ = ldg.Begin(context.Background(), "s3")
	_ = ldg.Complete(context.Background(), "s3", "s3.png")

	resp, err = http.Get(ts.URL + "/v1/skribbles/s3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rec ledger.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Status != ledger.StatusSuccess || rec.ObjectKey != "s3.png" {
		t.Errorf("record = %+v", rec)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "caller-chosen")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "caller-chosen" {
		t.Errorf("request id = %q, want caller-chosen", got)
	}
}
