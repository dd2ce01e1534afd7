package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cmwn/skramble/pkg/cache"
	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/ledger"
	"github.com/cmwn/skramble/pkg/mediaapi"
	"github.com/cmwn/skramble/pkg/skribbleapi"
)

// pngBytes encodes a solid-color PNG for use as test media.
func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// mediaFixture is one asset's metadata and pixel data on the fake media API.
type mediaFixture struct {
	assetType  string
	canOverlap bool
	data       []byte
}

type captureUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *captureUploader) Upload(_ context.Context, skribbleID string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	key := skribbleID + ".png"
	u.keys = append(u.keys, key)
	return key, nil
}

func (u *captureUploader) uploadedKeys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.keys...)
}

// harness wires a runner against fake spec, media, and postback servers.
// The specification document is set after construction so it can reference
// the media server's URL.
type harness struct {
	runner   *Runner
	uploader *captureUploader
	ledger   *ledger.Memory

	specSrv  *httptest.Server
	mediaSrv *httptest.Server
	postSrv  *httptest.Server

	specHits  atomic.Int64
	mediaHits atomic.Int64
	specFail  atomic.Bool

	mu       sync.Mutex
	spec     string
	statuses []string
}

func newHarness(t *testing.T, media map[string]mediaFixture) *harness {
	t.Helper()
	h := &harness{uploader: &captureUploader{}, ledger: ledger.NewMemory()}

	h.specSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.specHits.Add(1)
		if h.specFail.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		h.mu.Lock()
		spec := h.spec
		h.mu.Unlock()
		_, _ = w.Write([]byte(spec))
	}))
	t.Cleanup(h.specSrv.Close)

	h.mediaSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/a/"):
			id := strings.TrimPrefix(r.URL.Path, "/a/")
			fx, ok := media[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"media_id":    id,
				"can_overlap": fx.canOverlap,
				"asset_type":  fx.assetType,
				"mime_type":   "image/png",
			})
		case strings.HasPrefix(r.URL.Path, "/f/"):
			h.mediaHits.Add(1)
			id := strings.TrimPrefix(r.URL.Path, "/f/")
			fx, ok := media[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(fx.data)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.mediaSrv.Close)

	h.postSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		h.mu.Lock()
		h.statuses = append(h.statuses, body["status"])
		h.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(h.postSrv.Close)

	mediaClient := mediaapi.New(mediaapi.Config{
		BaseURL: h.mediaSrv.URL,
		Meta:    cache.NewMemoryStore(),
		Images:  cache.NewImages(),
	})
	h.runner = NewRunner(Services{
		Specs:    skribbleapi.New(skribbleapi.Config{}),
		Media:    mediaClient,
		Uploader: h.uploader,
		Ledger:   h.ledger,
	}, nil)
	return h
}

// setSpec installs the document the spec server will serve.
func (h *harness) setSpec(t *testing.T, id, background string, items []map[string]any) {
	t.Helper()
	doc := map[string]any{
		"skribble_id": id,
		"rules": map[string]any{
			"items":    items,
			"messages": []any{},
		},
	}
	if background != "" {
		doc["rules"].(map[string]any)["background"] = map[string]any{
			"media_id": background,
			"src":      h.mediaSrv.URL + "/f/" + background,
			"state":    map[string]any{},
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal spec: %v", err)
	}
	h.mu.Lock()
	h.spec = string(data)
	h.mu.Unlock()
}

func (h *harness) item(id string, left, top float64) map[string]any {
	return map[string]any{
		"media_id": id,
		"src":      h.mediaSrv.URL + "/f/" + id,
		"state":    map[string]any{"left": left, "top": top, "layer": 1},
	}
}

func (h *harness) options(id string) Options {
	return Options{
		SkribbleID:  id,
		SkribbleURL: h.specSrv.URL + "/s/" + id,
		PostbackURL: h.postSrv.URL + "/f/" + id,
	}
}

func (h *harness) reportedStatuses() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statuses...)
}

func TestExecuteSuccess(t *testing.T) {
	h := newHarness(t, map[string]mediaFixture{
		"bg": {assetType: "background", canOverlap: true,
			data: pngBytes(t, 1280, 720, color.NRGBA{R: 200, A: 255})},
		"i1": {assetType: "item", data: pngBytes(t, 20, 20, color.NRGBA{G: 200, A: 255})},
		"i2": {assetType: "item", data: pngBytes(t, 20, 20, color.NRGBA{B: 200, A: 255})},
	})
	h.setSpec(t, "run-1", "bg", []map[string]any{
		h.item("i1", 0, 0),
		h.item("i2", 500, 500),
	})

	result, err := h.runner.Execute(context.Background(), h.options("run-1"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ObjectKey != "run-1.png" {
		t.Errorf("object key = %q", result.ObjectKey)
	}
	if result.Stats.AssetCount != 3 {
		t.Errorf("asset count = %d, want 3", result.Stats.AssetCount)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(result.PNG))
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("composite = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}

	if got := h.reportedStatuses(); len(got) != 1 || got[0] != "success" {
		t.Errorf("statuses = %v, want exactly one success", got)
	}
	if got := h.uploader.uploadedKeys(); len(got) != 1 || got[0] != "run-1.png" {
		t.Errorf("uploads = %v", got)
	}
	rec, err := h.ledger.Get(context.Background(), "run-1")
	if err != nil || rec.Status != ledger.StatusSuccess || rec.ObjectKey != "run-1.png" {
		t.Errorf("ledger = %+v, err = %v", rec, err)
	}
}

func TestExecuteCollision(t *testing.T) {
	h := newHarness(t, map[string]mediaFixture{
		"i1": {assetType: "item", data: pngBytes(t, 50, 50, color.NRGBA{R: 255, A: 255})},
		"i2": {assetType: "item", data: pngBytes(t, 50, 50, color.NRGBA{B: 255, A: 255})},
	})
	h.setSpec(t, "run-2", "", []map[string]any{
		h.item("i1", 100, 100),
		h.item("i2", 120, 120),
	})

	_, err := h.runner.Execute(context.Background(), h.options("run-2"))
	if !errors.Is(err, errors.ErrCodeCollision) {
		t.Fatalf("err = %v, want LAYOUT_COLLISION", err)
	}

	if got := h.reportedStatuses(); len(got) != 1 || got[0] != "error" {
		t.Errorf("statuses = %v, want exactly one error", got)
	}
	if got := h.uploader.uploadedKeys(); len(got) != 0 {
		t.Errorf("uploads = %v, want none after collision", got)
	}
	rec, err := h.ledger.Get(context.Background(), "run-2")
	if err != nil || rec.Status != ledger.StatusError || rec.ErrorCode != "LAYOUT_COLLISION" {
		t.Errorf("ledger = %+v, err = %v", rec, err)
	}
}

func TestExecuteOverlapAllowed(t *testing.T) {
	h := newHarness(t, map[string]mediaFixture{
		"i1": {assetType: "item", canOverlap: true,
			data: pngBytes(t, 50, 50, color.NRGBA{R: 255, A: 255})},
		"i2": {assetType: "item", data: pngBytes(t, 50, 50, color.NRGBA{B: 255, A: 255})},
	})
	h.setSpec(t, "run-3", "", []map[string]any{
		h.item("i1", 100, 100),
		h.item("i2", 120, 120),
	})

	if _, err := h.runner.Execute(context.Background(), h.options("run-3")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := h.reportedStatuses(); len(got) != 1 || got[0] != "success" {
		t.Errorf("statuses = %v", got)
	}
}

func TestExecuteInputValidation(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name string
		opts Options
	}{
		{"missing id", Options{SkribbleURL: "u", PostbackURL: "p"}},
		{"missing url", Options{SkribbleID: "x", PostbackURL: "p"}},
		{"missing postback", Options{SkribbleID: "x", SkribbleURL: "u"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.runner.Execute(context.Background(), tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}

	if n := h.specHits.Load(); n != 0 {
		t.Errorf("spec fetches = %d, want 0 for invalid input", n)
	}
	if got := h.reportedStatuses(); len(got) != 0 {
		t.Errorf("statuses = %v, want none for invalid input", got)
	}
}

func TestExecuteSpecFetchFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.specFail.Store(true)

	_, err := h.runner.Execute(context.Background(), h.options("run-4"))
	if !errors.Is(err, errors.ErrCodeRemoteFetch) {
		t.Fatalf("err = %v, want REMOTE_FETCH", err)
	}
	if got := h.reportedStatuses(); len(got) != 1 || got[0] != "error" {
		t.Errorf("statuses = %v, want exactly one error", got)
	}
	rec, err := h.ledger.Get(context.Background(), "run-4")
	if err != nil || rec.Status != ledger.StatusError {
		t.Errorf("ledger = %+v, err = %v", rec, err)
	}
}

func TestExecuteUploadFailure(t *testing.T) {
	h := newHarness(t, map[string]mediaFixture{
		"i1": {assetType: "item", data: pngBytes(t, 10, 10, color.NRGBA{R: 255, A: 255})},
	})
	h.setSpec(t, "run-5", "", []map[string]any{h.item("i1", 0, 0)})
	h.uploader.err = errors.New(errors.ErrCodeUpload, "bucket gone")

	_, err := h.runner.Execute(context.Background(), h.options("run-5"))
	if !errors.Is(err, errors.ErrCodeUpload) {
		t.Fatalf("err = %v, want UPLOAD", err)
	}
	if got := h.reportedStatuses(); len(got) != 1 || got[0] != "error" {
		t.Errorf("statuses = %v, want exactly one error", got)
	}
}

func TestExecuteReusesCachesAcrossRuns(t *testing.T) {
	h := newHarness(t, map[string]mediaFixture{
		"i1": {assetType: "item", data: pngBytes(t, 10, 10, color.NRGBA{R: 255, A: 255})},
		"i2": {assetType: "item", data: pngBytes(t, 10, 10, color.NRGBA{B: 255, A: 255})},
	})
	h.setSpec(t, "run-6", "", []map[string]any{
		h.item("i1", 0, 0),
		h.item("i2", 500, 0),
	})

	for i := 0; i < 3; i++ {
		if _, err := h.runner.Execute(context.Background(), h.options("run-6")); err != nil {
			t.Fatalf("Execute #%d: %v", i, err)
		}
	}

	if n := h.mediaHits.Load(); n != 2 {
		t.Errorf("media downloads = %d, want 2 (one per asset across all runs)", n)
	}
	if n := h.specHits.Load(); n != 3 {
		t.Errorf("spec fetches = %d, want 3 (specifications are never cached)", n)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{SkribbleID: "x", SkribbleURL: "u", PostbackURL: "p"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	if opts.Logger == nil {
		t.Fatal("logger default not applied")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validation: %v", err)
	}
}

func TestOptionsJSONRoundTrip(t *testing.T) {
	in := `{"skribble_id":"s1","skribble_url":"https://a/s/s1","post_back":"https://a/f/s1","preview":true}`
	var opts Options
	if err := json.Unmarshal([]byte(in), &opts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if opts.SkribbleID != "s1" || !opts.Preview {
		t.Errorf("opts = %+v", opts)
	}
	if opts.SkribbleURL != "https://a/s/s1" || opts.PostbackURL != "https://a/f/s1" {
		t.Errorf("urls = %q %q", opts.SkribbleURL, opts.PostbackURL)
	}
}
