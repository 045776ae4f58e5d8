// Package sink writes accepted leads to their destinations.
package sink

import (
	"context"
	"errors"
)

// ErrNotOpen is returned by Append on a sink that was never opened or is closed.
var ErrNotOpen = errors.New("sink is not open")

// Sink appends fixed-layout rows. Open must succeed before Append.
type Sink interface {
	Open(ctx context.Context) error
	Append(ctx context.Context, row []string) error
	Close() error
}
