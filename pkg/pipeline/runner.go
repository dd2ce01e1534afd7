package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/geometry"
	"github.com/cmwn/skramble/pkg/ledger"
	"github.com/cmwn/skramble/pkg/mediaapi"
	"github.com/cmwn/skramble/pkg/observability"
	"github.com/cmwn/skramble/pkg/render"
	"github.com/cmwn/skramble/pkg/skribble"
	"github.com/cmwn/skramble/pkg/skribbleapi"
	"github.com/cmwn/skramble/pkg/storage"
)

// Services are the external collaborators of a Runner. Specs and Media are
// required; Uploader and Ledger fall back to no-op implementations.
type Services struct {
	Specs    *skribbleapi.Client
	Media    *mediaapi.Client
	Uploader storage.Uploader
	Ledger   ledger.Ledger
}

// Runner executes the composition pipeline. A single Runner is safe for
// concurrent runs: all per-run state lives in Options and Result, and the
// shared caches behind the media client are concurrency-safe.
type Runner struct {
	specs    *skribbleapi.Client
	media    *mediaapi.Client
	uploader storage.Uploader
	ledger   ledger.Ledger
	logger   *log.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(svc Services, logger *log.Logger) *Runner {
	if svc.Uploader == nil {
		svc.Uploader = storage.Null{}
	}
	if svc.Ledger == nil {
		svc.Ledger = ledger.Noop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		specs:    svc.Specs,
		media:    svc.Media,
		uploader: svc.Uploader,
		ledger:   svc.Ledger,
		logger:   logger,
	}
}

// Execute runs the full pipeline for one skribble. Runs that fail input
// validation return immediately: no remote calls, no notification. Every
// other outcome posts exactly one status to the postback target.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Run().OnRunStart(ctx, opts.SkribbleID)
	if err := r.ledger.Begin(ctx, opts.SkribbleID); err != nil {
		r.logger.Error("recording run start", "skribble_id", opts.SkribbleID, "err", err)
	}

	result, err := r.execute(ctx, opts)
	total := time.Since(start)

	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		r.logger.Error("run failed", "skribble_id", opts.SkribbleID,
			"code", code, "err", err)
		if lerr := r.ledger.Fail(ctx, opts.SkribbleID, string(code), errors.UserMessage(err)); lerr != nil {
			r.logger.Error("recording run failure", "skribble_id", opts.SkribbleID, "err", lerr)
		}
		r.specs.ReportError(ctx, opts.PostbackURL)
		observability.Run().OnRunComplete(ctx, opts.SkribbleID, skribbleapi.StatusError, total)
		return nil, err
	}

	result.Stats.TotalTime = total
	r.logger.Info("run complete", "skribble_id", opts.SkribbleID,
		"object_key", result.ObjectKey, "assets", result.Stats.AssetCount,
		"duration", total)
	if lerr := r.ledger.Complete(ctx, opts.SkribbleID, result.ObjectKey); lerr != nil {
		r.logger.Error("recording run completion", "skribble_id", opts.SkribbleID, "err", lerr)
	}
	r.specs.ReportSuccess(ctx, opts.PostbackURL)
	observability.Run().OnRunComplete(ctx, opts.SkribbleID, skribbleapi.StatusSuccess, total)
	return result, nil
}

func (r *Runner) execute(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{SkribbleID: opts.SkribbleID}

	var assets []*skribble.Asset
	d, err := r.runStage(ctx, opts.SkribbleID, observability.StageSpec, func(ctx context.Context) error {
		doc, err := r.specs.FetchDocument(ctx, opts.SkribbleURL)
		if err != nil {
			return err
		}
		assets = doc.Assets()
		return nil
	})
	result.Stats.SpecTime = d
	if err != nil {
		return nil, err
	}
	result.Stats.AssetCount = len(assets)
	opts.Logger.Debug("specification resolved", "skribble_id", opts.SkribbleID, "assets", len(assets))

	d, err = r.runStage(ctx, opts.SkribbleID, observability.StageMetadata, func(ctx context.Context) error {
		return forEachAsset(ctx, assets, r.media.ResolveMetadata)
	})
	result.Stats.MetadataTime = d
	if err != nil {
		return nil, err
	}

	d, err = r.runStage(ctx, opts.SkribbleID, observability.StageDownload, func(ctx context.Context) error {
		return forEachAsset(ctx, assets, r.media.ResolveImage)
	})
	result.Stats.DownloadTime = d
	if err != nil {
		return nil, err
	}

	d, err = r.runStage(ctx, opts.SkribbleID, observability.StageTransform, func(ctx context.Context) error {
		return forEachAsset(ctx, assets, func(_ context.Context, a *skribble.Asset) error {
			return render.Transform(a)
		})
	})
	result.Stats.TransformTime = d
	if err != nil {
		return nil, err
	}

	d, err = r.runStage(ctx, opts.SkribbleID, observability.StageCollision, func(context.Context) error {
		return detectCollisions(assets)
	})
	result.Stats.CollisionTime = d
	if err != nil {
		return nil, err
	}

	d, err = r.runStage(ctx, opts.SkribbleID, observability.StageMerge, func(context.Context) error {
		composite, err := render.Merge(assets)
		if err != nil {
			return err
		}
		png, err := render.EncodePNG(composite)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encoding composite for %s", opts.SkribbleID)
		}
		result.PNG = png
		return nil
	})
	result.Stats.MergeTime = d
	if err != nil {
		return nil, err
	}

	d, err = r.runStage(ctx, opts.SkribbleID, observability.StageFinalize, func(ctx context.Context) error {
		key, err := r.uploader.Upload(ctx, opts.SkribbleID, result.PNG)
		if err != nil {
			return err
		}
		result.ObjectKey = key
		return nil
	})
	result.Stats.FinalizeTime = d
	if err != nil {
		return nil, err
	}

	return result, nil
}

// runStage wraps one pipeline stage with observability events and timing.
func (r *Runner) runStage(ctx context.Context, runID, stage string, fn func(context.Context) error) (time.Duration, error) {
	observability.Run().OnStageStart(ctx, runID, stage)
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	observability.Run().OnStageComplete(ctx, runID, stage, d, err)
	return d, err
}

// forEachAsset fans fn out over all assets and waits for the whole stage.
// The first error cancels the group context; in-flight work for other assets
// still finishes before the stage returns.
func forEachAsset(ctx context.Context, assets []*skribble.Asset, fn func(context.Context, *skribble.Asset) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, asset := range assets {
		g.Go(func() error {
			return fn(ctx, asset)
		})
	}
	return g.Wait()
}

// detectCollisions rejects the layout when any two assets that both forbid
// overlap have strictly intersecting footprints.
func detectCollisions(assets []*skribble.Asset) error {
	footprints := make([]geometry.Footprint, len(assets))
	for i, a := range assets {
		footprints[i] = a.Footprint()
	}
	for i, a := range assets {
		if geometry.Overlaps(i, footprints) {
			return errors.New(errors.ErrCodeCollision,
				"asset %s collides with a non-overlappable asset", a.ID)
		}
	}
	return nil
}
