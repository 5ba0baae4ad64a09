package domain

import "context"

// PhotoStore is the remote side of the attachment manager. The token is
// passed on every call; stores never read ambient credentials.
type PhotoStore interface {
	Upload(ctx context.Context, file LocalFile, token string) (UploadResult, error)
	Delete(ctx context.Context, url string, token string) error
}
