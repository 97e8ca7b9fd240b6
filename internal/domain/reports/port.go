package reports

import "context"

// ArchiveStore is the optional external persistence hook for finished
// reports.
type ArchiveStore interface {
	Put(ctx context.Context, key string, doc []byte) (string, error)
}
