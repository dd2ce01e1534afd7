// Package pipeline provides the core composition pipeline for skramble.
//
// This package implements the complete fetch → resolve → transform → merge
// pipeline that can be used by CLI, API, and worker components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of seven stages:
//
//  1. Spec: fetch and parse the skribble specification document
//  2. Metadata: resolve overlap policy and integrity data per asset
//  3. Download: fetch and decode the pixel data per asset
//  4. Transform: background fit, scaling, rotation, footprint corners
//  5. Collision: reject layouts where non-overlappable assets intersect
//  6. Merge: paint assets bottom-to-top onto the canvas
//  7. Finalize: encode the composite as PNG and publish it
//
// Per-asset stages fan out concurrently and rejoin before the next stage;
// the first failure cancels the remaining work and decides the run.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(pipeline.Services{
//	    Specs:    specsClient,
//	    Media:    mediaClient,
//	    Uploader: uploader,
//	}, logger)
//	opts := pipeline.Options{
//	    SkribbleID:  "d1ce9b6a",
//	    SkribbleURL: "https://api.example.com/s/d1ce9b6a",
//	    PostbackURL: "https://api.example.com/f/d1ce9b6a",
//	}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cmwn/skramble/pkg/errors"
)

// Options contains all configuration for one render run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// SkribbleID names the run and the published artifact.
	SkribbleID string `json:"skribble_id"`

	// SkribbleURL locates the specification document.
	SkribbleURL string `json:"skribble_url"`

	// PostbackURL receives exactly one success or error notification for
	// every run that passes input validation.
	PostbackURL string `json:"post_back"`

	// Preview is accepted for wire compatibility with older callers and
	// currently ignored: preview runs render and publish like any other.
	Preview bool `json:"preview,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once. Validation failures reject the run before any remote
// call, so no notification is sent for them.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SkribbleID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "skribble id is required")
	}
	if o.SkribbleURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "skribble url is required")
	}
	if o.PostbackURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "postback url is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// SkribbleID is the run identifier the result belongs to.
	SkribbleID string

	// ObjectKey is the published location of the composite.
	ObjectKey string

	// PNG holds the encoded composite.
	PNG []byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	AssetCount    int
	SpecTime      time.Duration
	MetadataTime  time.Duration
	DownloadTime  time.Duration
	TransformTime time.Duration
	CollisionTime time.Duration
	MergeTime     time.Duration
	FinalizeTime  time.Duration
	TotalTime     time.Duration
}
