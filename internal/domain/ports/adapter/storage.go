package adapter

import "context"

// DownloadSigner turns a stored file URL into something the buyer can fetch.
type DownloadSigner interface {
	SignDownloadURL(ctx context.Context, fileURL string) (string, error)
}
