package storage

import (
	"context"
	"errors"
)

// BlobStore is the gateway to the external object storage service. Payloads
// arrive base64-encoded (optionally as data: URIs) and come back as durable
// public URLs.
type BlobStore interface {
	// UploadRaw stores an opaque binary resource (the PDF itself).
	UploadRaw(ctx context.Context, payload string) (string, error)
	// UploadImage stores an image resource (the cover thumbnail).
	UploadImage(ctx context.Context, payload string) (string, error)
	// Destroy removes a previously uploaded blob by its public URL.
	Destroy(ctx context.Context, url string) error
}

// ErrNotManaged is returned by Destroy when the URL does not belong to this
// store, so callers can skip foreign blobs instead of retrying forever.
var ErrNotManaged = errors.New("blob url not managed by this store")
