package interfaces

import "context"

// ExportArchiver keeps a copy of rendered export documents
type ExportArchiver interface {
	// Put writes data under path and returns a URL identifying the object
	Put(ctx context.Context, path string, data []byte) (string, error)
}
