// Package pkg provides the core libraries for the skramble composition engine.
//
// # Overview
//
// Skramble turns a layered skribble specification into a finished PNG: it
// fetches the document, resolves each asset's metadata and pixel data,
// applies geometric transforms, rejects illegal overlaps, merges the layers,
// and publishes the composite. The pkg directory is organized into four main
// areas:
//
//  1. Domain model - [skribble] (documents and assets) and [geometry]
//     (footprints and overlap testing)
//  2. Pixel work - [render] (transform engine, merge, PNG finalization)
//  3. Remote surfaces - [skribbleapi], [mediaapi], [storage] clients
//  4. Orchestration - [pipeline], backed by [cache], [ledger], [errors],
//     and [observability]
//
// # Architecture
//
// The typical data flow through a run:
//
//	Skribble API (specification document)
//	         ↓
//	    [skribble] package (parse document, build assets)
//	         ↓
//	    [mediaapi] package (metadata + media, through [cache])
//	         ↓
//	    [render] package (transform, collision via [geometry], merge)
//	         ↓
//	    [storage] package (publish PNG) + postback notification
//
// # Quick Start
//
// Run the pipeline against configured services:
//
//	runner := pipeline.NewRunner(pipeline.Services{
//	    Specs:    skribbleapi.New(skribbleapi.Config{}),
//	    Media:    media,
//	    Uploader: uploader,
//	}, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SkribbleID:  "d1ce9b6a",
//	    SkribbleURL: "https://api.example.com/s/d1ce9b6a",
//	    PostbackURL: "https://api.example.com/f/d1ce9b6a",
//	})
//
// # Main Packages
//
// [skribble] - Wire model for specification documents and the Asset value
// that flows through the pipeline, including layer banding.
//
// [geometry] - Rotated footprint corners and separating-axis overlap tests
// for the collision gate.
//
// [render] - Background fitting, scaling with recentring, rotation, z-order
// merge, and deterministic PNG encoding on the 1280x720 canvas.
//
// [mediaapi] - Metadata and media retrieval with digest validation, backed
// by the process-wide caches.
//
// [skribbleapi] - Specification fetches and fire-and-forget postback
// notifications.
//
// [cache] - Append-only stores: a byte Store for metadata (memory or redis)
// and a decoded-image cache that clones on every hit.
//
// [storage] - Composite publishing to S3 under <skribble_id>.png.
//
// [ledger] - Optional run history (memory or MongoDB) behind the HTTP
// status endpoint.
//
// [pipeline] - Orchestrates the seven stages with per-asset fan-out and
// exactly-one status notification per run.
//
// [errors] - Coded errors naming the failure classes of a run.
//
// [observability] - Hook interfaces with no-op defaults for run, stage, and
// cache events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/render/...   # Specific package
//
// [skribble]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/skribble
// [geometry]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/geometry
// [render]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/render
// [mediaapi]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/mediaapi
// [skribbleapi]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/skribbleapi
// [cache]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/cache
// [storage]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/storage
// [ledger]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/ledger
// [pipeline]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/errors
// [observability]: https://pkg.go.dev/github.com/cmwn/skramble/pkg/observability
package pkg
