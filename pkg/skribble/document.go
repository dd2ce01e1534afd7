package skribble

import "encoding/json"

// Layer band multipliers per specification group. Bands keep groups disjoint:
// a background can never outrank an item, and an item can never outrank a
// message, regardless of the per-asset layer value.
const (
	bandBackground = 1
	bandItems      = 2
	bandMessages   = 3
)

// BaseLayer is the sort key of the synthetic base canvas asset. It is below
// every band so the base always paints first.
const BaseLayer = -1

// State carries the placement and transform parameters of one record.
// Absent fields decode to zero, which the engine treats as "unset".
type State struct {
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Layer    float64 `json:"layer"`
}

// Record is one entry of a specification group.
type Record struct {
	MediaID string `json:"media_id"`
	Src     string `json:"src"`
	State   State  `json:"state"`
}

// Rules groups the specification records by role.
type Rules struct {
	Background *Record  `json:"background"`
	Items      []Record `json:"items"`
	Messages   []Record `json:"messages"`
}

// Document is the parsed skribble specification.
type Document struct {
	SkribbleID string `json:"skribble_id"`
	Rules      Rules  `json:"rules"`
}

// ParseDocument decodes a specification document from raw JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Assets flattens the document into the full asset list, background first.
// Each asset's layer is (state.layer * band) + (index / 1000): the band keeps
// groups disjoint and the index term is a deterministic tie-break preserving
// specification order within a group. Missing groups contribute no assets.
func (d *Document) Assets() []*Asset {
	assets := grabAssets(backgroundGroup(d.Rules.Background), bandBackground)
	assets = append(assets, grabAssets(d.Rules.Items, bandItems)...)
	assets = append(assets, grabAssets(d.Rules.Messages, bandMessages)...)
	return assets
}

func backgroundGroup(r *Record) []Record {
	if r == nil {
		return nil
	}
	return []Record{*r}
}

func grabAssets(group []Record, band float64) []*Asset {
	assets := make([]*Asset, 0, len(group))
	for i, rec := range group {
		layer := rec.State.Layer*band + float64(i)/1000
		assets = append(assets, NewAsset(rec.MediaID, rec.Src, rec.State, layer))
	}
	return assets
}
