// Package ledger records the lifecycle of render runs so the HTTP surface
// can answer status queries after the fact.
//
// The ledger is optional: an unconfigured engine gets the Noop
// implementation and runs exactly as before, just without history.
package ledger

import (
	"context"
	"time"

	"github.com/cmwn/skramble/pkg/errors"
)

// Run statuses, in lifecycle order.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// ErrNotFound is returned when no record exists for a skribble id.
var ErrNotFound = errors.New(errors.ErrCodeInvalidInput, "no run recorded for skribble")

// Record is one run's persisted state.
type Record struct {
	SkribbleID string    `json:"skribble_id" bson:"skribble_id"`
	Status     string    `json:"status" bson:"status"`
	ErrorCode  string    `json:"error_code,omitempty" bson:"error_code,omitempty"`
	Message    string    `json:"message,omitempty" bson:"message,omitempty"`
	ObjectKey  string    `json:"object_key,omitempty" bson:"object_key,omitempty"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// Ledger persists run records.
type Ledger interface {
	// Begin marks a run as processing. It overwrites any previous record
	// for the same skribble id.
	Begin(ctx context.Context, skribbleID string) error
	// Complete marks a run successful and stores the uploaded object key.
	Complete(ctx context.Context, skribbleID, objectKey string) error
	// Fail marks a run failed with its error code and message.
	Fail(ctx context.Context, skribbleID, code, message string) error
	// Get returns the latest record for a skribble id, or ErrNotFound.
	Get(ctx context.Context, skribbleID string) (*Record, error)
}

// Noop is the ledger used when no backing store is configured.
type Noop struct{}

func (Noop) Begin(context.Context, string) error                { return nil }
func (Noop) Complete(context.Context, string, string) error     { return nil }
func (Noop) Fail(context.Context, string, string, string) error { return nil }
func (Noop) Get(context.Context, string) (*Record, error)       { return nil, ErrNotFound }
