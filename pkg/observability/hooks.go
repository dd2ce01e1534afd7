// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about pipeline stages and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not by
// libraries) and keeps the engine free of observability-framework imports.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRunHooks(&myRunHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Run().OnStageStart(ctx, runID, "metadata")
//	// ... resolve metadata ...
//	observability.Run().OnStageComplete(ctx, runID, "metadata", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names emitted by the composition pipeline.
const (
	StageSpec      = "spec"
	StageMetadata  = "metadata"
	StageDownload  = "download"
	StageTransform = "transform"
	StageCollision = "collision"
	StageMerge     = "merge"
	StageFinalize  = "finalize"
)

// RunHooks receives events from the composition pipeline.
type RunHooks interface {
	// OnRunStart fires when a render run begins.
	OnRunStart(ctx context.Context, runID string)

	// OnStageStart fires before each pipeline stage.
	OnStageStart(ctx context.Context, runID, stage string)

	// OnStageComplete fires after each pipeline stage, with its error if any.
	OnStageComplete(ctx context.Context, runID, stage string, duration time.Duration, err error)

	// OnRunComplete fires once per run with the reported status.
	OnRunComplete(ctx context.Context, runID, status string, duration time.Duration)
}

// CacheHooks receives events from the metadata and image caches.
type CacheHooks interface {
	// OnHit records a cache hit. store is "metadata" or "image".
	OnHit(ctx context.Context, store, key string)

	// OnMiss records a cache miss.
	OnMiss(ctx context.Context, store, key string)
}

// NoopRunHooks is a no-op implementation of RunHooks.
type NoopRunHooks struct{}

func (NoopRunHooks) OnRunStart(context.Context, string)                                   {}
func (NoopRunHooks) OnStageStart(context.Context, string, string)                         {}
func (NoopRunHooks) OnStageComplete(context.Context, string, string, time.Duration, error) {}
func (NoopRunHooks) OnRunComplete(context.Context, string, string, time.Duration)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnHit(context.Context, string, string)  {}
func (NoopCacheHooks) OnMiss(context.Context, string, string) {}

var (
	runHooks   RunHooks   = NoopRunHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetRunHooks registers custom run hooks.
// This should be called once at application startup before any runs.
func SetRunHooks(h RunHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Run returns the registered run hooks.
func Run() RunHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runHooks = NoopRunHooks{}
	cacheHooks = NoopCacheHooks{}
}
