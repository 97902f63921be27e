package adapter

import "context"

// ContentStore persists finalized answer payloads as independently
// retrievable objects. Put returns a durable reference (URL or key) that
// needs no further core involvement to read.
type ContentStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}
