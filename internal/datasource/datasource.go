// Package datasource abstracts where import input comes from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw bytes of one input. Callers close the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
