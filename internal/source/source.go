// Package source reads lead rows from the configured inputs.
package source

import (
	"context"
	"errors"

	"outreach-engine/internal/domain"
)

// ErrNoInput means a source had nothing to read: no file, no matching message.
var ErrNoInput = errors.New("no input")

// Batch is one source's rows. Finalize, when set, is called after the rows
// have been processed so the source can acknowledge them. Close, when set,
// releases whatever the source kept open and is always called.
type Batch struct {
	Source   string
	Rows     []domain.Row
	Finalize func(context.Context) error
	Close    func() error
}

type Source interface {
	Name() string
	Fetch(ctx context.Context) (Batch, error)
}
