package render

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/skribble"
)

// NewBaseAsset returns the synthetic transparent canvas that every
// composite starts from. Its layer sorts below every specification band, so
// it always paints first.
func NewBaseAsset() *skribble.Asset {
	return &skribble.Asset{
		Layer:  skribble.BaseLayer,
		Img:    imaging.New(CanvasWidth, CanvasHeight, color.Transparent),
		Width:  CanvasWidth,
		Height: CanvasHeight,
	}
}

// Merge paints the assets bottom-to-top onto the synthetic base canvas and
// returns the composite. Sorting is stable and ascending by layer, so equal
// layers keep their input order and later assets occlude earlier ones.
func Merge(assets []*skribble.Asset) (*image.NRGBA, error) {
	all := make([]*skribble.Asset, 0, len(assets)+1)
	all = append(all, NewBaseAsset())
	all = append(all, assets...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Layer < all[j].Layer })

	base := all[0]
	canvas := imaging.Clone(base.Img)
	for _, asset := range all[1:] {
		if asset.Img == nil {
			return nil, errors.New(errors.ErrCodeProcessing, "cannot merge asset %s without an image", asset.ID)
		}
		pos := image.Pt(
			int(math.Round(asset.Left)),
			int(math.Round(asset.Top)),
		)
		canvas = imaging.Overlay(canvas, asset.Img, pos, 1.0)
	}
	return canvas, nil
}
