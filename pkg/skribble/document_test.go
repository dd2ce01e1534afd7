package skribble

import (
	"math"
	"sort"
	"testing"
)

func rec(id string, layer float64) Record {
	return Record{MediaID: id, Src: "https://media.test/f/" + id, State: State{Layer: layer}}
}

func TestParseDocumentDefaultsMissingState(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"skribble_id": "run-1",
		"rules": {
			"background": {"media_id": "bg", "src": "https://media.test/f/bg"},
			"items": [{"media_id": "i1", "src": "https://media.test/f/i1"}],
			"messages": []
		}
	}`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	assets := doc.Assets()
	if len(assets) != 2 {
		t.Fatalf("asset count = %d, want 2", len(assets))
	}
	bg := assets[0]
	if bg.Left != 0 || bg.Top != 0 || bg.Scale != 0 || bg.Rotation != 0 {
		t.Errorf("missing state should default to zeros, got %+v", bg)
	}
	if bg.HashType != HashMD5 {
		t.Errorf("HashType = %q, want md5 default", bg.HashType)
	}
}

func TestAssetsCountWithAndWithoutBackground(t *testing.T) {
	doc := &Document{Rules: Rules{
		Background: &Record{MediaID: "bg"},
		Items:      []Record{rec("i1", 0), rec("i2", 1)},
		Messages:   []Record{rec("m1", 0)},
	}}
	if got := len(doc.Assets()); got != 4 {
		t.Errorf("with background: count = %d, want 4", got)
	}

	doc.Rules.Background = nil
	if got := len(doc.Assets()); got != 3 {
		t.Errorf("without background: count = %d, want 3", got)
	}
}

func TestLayerBandsAreDisjoint(t *testing.T) {
	// Any non-negative state layers: every background layer < every item
	// layer < every message layer.
	doc := &Document{Rules: Rules{
		Background: &Record{MediaID: "bg", State: State{Layer: 3}},
		Items:      []Record{rec("i1", 5), rec("i2", 9)},
		Messages:   []Record{rec("m1", 4), rec("m2", 7)},
	}}
	assets := doc.Assets()

	bg := assets[0]
	for _, a := range assets[1:3] {
		if bg.Layer >= a.Layer {
			t.Errorf("background layer %v should sort below item layer %v", bg.Layer, a.Layer)
		}
	}
	for _, item := range assets[1:3] {
		for _, msg := range assets[3:] {
			if item.Layer >= msg.Layer {
				t.Errorf("item layer %v should sort below message layer %v", item.Layer, msg.Layer)
			}
		}
	}
}

func TestLayerTieBreakPreservesOrder(t *testing.T) {
	doc := &Document{Rules: Rules{
		Items: []Record{rec("first", 2), rec("second", 2), rec("third", 2)},
	}}
	assets := doc.Assets()

	sorted := make([]*Asset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Layer < sorted[j].Layer })

	for i, want := range []string{"first", "second", "third"} {
		if sorted[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, sorted[i].ID, want)
		}
	}
}

func TestLayerFormula(t *testing.T) {
	doc := &Document{Rules: Rules{
		Items: []Record{rec("a", 4), rec("b", 4)},
	}}
	assets := doc.Assets()

	if got := assets[0].Layer; got != 8.0 {
		t.Errorf("first item layer = %v, want 8.0", got)
	}
	if got := assets[1].Layer; math.Abs(got-8.001) > 1e-9 {
		t.Errorf("second item layer = %v, want 8.001", got)
	}
}
