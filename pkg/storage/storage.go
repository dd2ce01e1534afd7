// Package storage publishes finished composites to object storage.
package storage

import "context"

// Uploader stores a finished composite and returns its public location.
type Uploader interface {
	Upload(ctx context.Context, skribbleID string, data []byte) (string, error)
}

// Null discards uploads. Used for preview runs and tests that only care
// about pipeline flow.
type Null struct{}

// Upload implements Uploader without storing anything.
func (Null) Upload(_ context.Context, skribbleID string, _ []byte) (string, error) {
	return skribbleID + ".png", nil
}
