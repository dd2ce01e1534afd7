// Package render implements the pixel side of the composition pipeline: the
// geometric transform engine (background fit, per-asset scale and rotation),
// the z-order merge, and PNG finalization.
//
// All transforms mutate the asset in place and keep its position and
// dimensions consistent with the pixel buffer, so the collision stage and
// the merge stage can trust the asset's numbers without re-measuring.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/geometry"
	"github.com/cmwn/skramble/pkg/skribble"
)

// Canvas dimensions of every finished composite.
const (
	CanvasWidth  = 1280
	CanvasHeight = 720
)

// Transform applies the asset's transform parameters: background fit or
// scale with recentring, then rotation, then footprint corner computation.
// An asset without a decoded buffer cannot be transformed; that is fatal for
// the run.
func Transform(asset *skribble.Asset) error {
	if asset.Img == nil {
		return errors.New(errors.ErrCodeProcessing, "cannot process asset %s without an image", asset.ID)
	}

	if asset.IsBackground() {
		fitBackground(asset)
	} else {
		scaleAsset(asset)
	}
	rotateAsset(asset)
	asset.Corners = geometry.Corners(asset.Footprint())
	return nil
}

// fitBackground makes the background cover the canvas: grow it when either
// native dimension falls short, crop it symmetrically when it already covers
// both axes.
func fitBackground(asset *skribble.Asset) {
	if asset.Width < CanvasWidth || asset.Height < CanvasHeight {
		resizeBackground(asset)
		return
	}
	cropBackground(asset)
}

// resizeBackground grows the background, preserving aspect ratio, along the
// axis that is proportionally more deficient. The other axis then lands at
// or beyond the canvas edge, so the result always covers the canvas.
func resizeBackground(asset *skribble.Asset) {
	widthRatio := float64(CanvasWidth) / float64(asset.Width)
	heightRatio := float64(CanvasHeight) / float64(asset.Height)

	newWidth := CanvasWidth
	newHeight := CanvasHeight
	if widthRatio >= heightRatio {
		newHeight = int(math.Round(float64(asset.Height) * CanvasWidth / float64(asset.Width)))
	} else {
		newWidth = int(math.Round(float64(asset.Width) * CanvasHeight / float64(asset.Height)))
	}

	asset.Img = imaging.Resize(asset.Img, newWidth, newHeight, imaging.CatmullRom)
	asset.Width = newWidth
	asset.Height = newHeight
}

// cropBackground cuts an exactly canvas-sized window from the center.
func cropBackground(asset *skribble.Asset) {
	left := int(math.Round(float64(asset.Width-CanvasWidth) / 2))
	top := int(math.Round(float64(asset.Height-CanvasHeight) / 2))

	asset.Img = imaging.Crop(asset.Img, image.Rect(left, top, left+CanvasWidth, top+CanvasHeight))
	asset.Width = CanvasWidth
	asset.Height = CanvasHeight
}

// scaleAsset resizes a non-background asset by its scale factor. When the
// scale shrank the asset in both axes, the anchor moves inward so the asset
// stays visually centered on its original spot.
func scaleAsset(asset *skribble.Asset) {
	originalWidth := asset.Width
	originalHeight := asset.Height
	newWidth := originalWidth
	newHeight := originalHeight

	if asset.Scale > 0 {
		newWidth = int(math.Round(float64(originalWidth) * asset.Scale))
		newHeight = int(math.Round(float64(originalHeight) * asset.Scale))
		asset.Img = imaging.Resize(asset.Img, newWidth, newHeight, imaging.Lanczos)
		asset.Width = newWidth
		asset.Height = newHeight
	}

	if originalHeight > newHeight && originalWidth > newWidth {
		widthDiff := originalWidth - newWidth
		// The vertical diff derives from the original width, not height.
		// Fixtures rendered by earlier versions depend on this exact
		// arithmetic, so it stays.
		heightDiff := originalWidth - newHeight
		asset.Left += float64(widthDiff) / 2
		asset.Top += float64(heightDiff) / 2
	}
}

// rotateAsset rotates the buffer in place, cropping back to the pre-rotation
// extent so the canvas never grows. Corners of extreme rotations clip; that
// beats silently resizing every rotated asset.
func rotateAsset(asset *skribble.Asset) {
	if asset.Rotation == 0 {
		return
	}
	degrees := asset.Rotation * 180 / math.Pi

	rotated := imaging.Rotate(asset.Img, degrees, color.Transparent)
	asset.Img = imaging.CropCenter(rotated, asset.Width, asset.Height)
}
