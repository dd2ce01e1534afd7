// Package skribble defines the skribble document wire model and the Asset
// value type that flows through the composition pipeline.
//
// A skribble is a layered image specification: one background, a set of
// items, and a set of message overlays. Each entry becomes an Asset carrying
// its placement (left/top), transform parameters (scale, rotation), paint
// order (layer), and, once resolved, its decoded pixel buffer.
//
// Assets are owned by exactly one pipeline run. They are enriched in place by
// metadata resolution and image download, mutated in place by the transform
// stage, and read-only from collision detection onward.
package skribble

import (
	"image"

	"github.com/cmwn/skramble/pkg/geometry"
)

// Asset classification values, assigned from media metadata.
const (
	TypeBackground = "background"
	TypeItem       = "item"
	TypeMessage    = "message"
)

// Digest algorithms accepted for media integrity checks.
const (
	HashMD5  = "md5"
	HashSHA1 = "sha1"
)

// Asset describes one visual element's placement, transform parameters, and
// resolved pixel buffer.
type Asset struct {
	ID  string // externally assigned media identifier
	Src string // locator for the raw media, resolved lazily

	Left     float64 // horizontal offset on the canvas
	Top      float64 // vertical offset on the canvas
	Scale    float64 // multiplier; 0 means no explicit scale
	Rotation float64 // radians
	Layer    float64 // paint-order sort key; lower paints first

	Width  int // pixel width; 0 until an image is attached
	Height int // pixel height; 0 until an image is attached

	// Corners holds the rotated footprint, computed at the end of the
	// transform stage. Empty before that.
	Corners []geometry.Point

	Type       string // background, item, or message; empty until resolved
	CanOverlap bool

	HashType  string // md5 or sha1; defaults to md5
	HashValue string // expected content digest; empty disables comparison
	MIME      string // declared content type; empty disables the MIME check

	// Img is the decoded pixel buffer. Nil until downloaded. Each asset owns
	// an independent buffer; cache hits are cloned before attachment.
	Img image.Image
}

// NewAsset builds an Asset from one specification record. Missing state
// fields have already been zeroed by JSON decoding, matching the source
// document's defaulting rules.
func NewAsset(id, src string, st State, layer float64) *Asset {
	return &Asset{
		ID:       id,
		Src:      src,
		Left:     st.Left,
		Top:      st.Top,
		Scale:    st.Scale,
		Rotation: st.Rotation,
		Layer:    layer,
		HashType: HashMD5,
	}
}

// IsBackground reports whether the asset was classified as the background.
func (a *Asset) IsBackground() bool { return a.Type == TypeBackground }

// Footprint implements geometry.Item so the collision detector can consume
// assets without importing this package.
func (a *Asset) Footprint() geometry.Footprint {
	return geometry.Footprint{
		Left:     a.Left,
		Top:      a.Top,
		Width:    float64(a.Width),
		Height:   float64(a.Height),
		Rotation: a.Rotation,
		Exempt:   a.CanOverlap,
	}
}
