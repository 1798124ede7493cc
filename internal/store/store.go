// Package store provides the keyed entry collections behind the memory
// and schedule tools, and the backends they persist to.
package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when an update or lookup names an absent key.
var ErrNotFound = errors.New("entry not found")

// Record is one persisted entry in its encoded form.
type Record struct {
	Key  string
	Data []byte
}

// Skipped describes a record that Load could not accept.
type Skipped struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Backend reads and writes the full ordered record set of one collection.
type Backend interface {
	// Read returns every stored record in insertion order. A missing
	// store is not an error and yields no records.
	Read(ctx context.Context) ([]Record, error)

	// Write replaces the stored records with recs in one step.
	Write(ctx context.Context, recs []Record) error

	// Location names the backing file or table for logs.
	Location() string

	Close() error
}

// Options configures a store.
type Options struct {
	Logger *zap.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Location is the reference timezone for timestamps, keys and date
	// ranges. Defaults to JST.
	Location *time.Location
}

// JST is the default reference timezone.
var JST = time.FixedZone("JST", 9*60*60)

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = JST
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().In(o.Location)
}
