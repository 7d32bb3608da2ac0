package garage

import (
	"context"
	"net/http"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

type PermissionClient struct {
	*adminAPIHttpClient
}

// Allow adds the given permissions for the key on the bucket. Permissions
// already granted are left in place.
func (p *PermissionClient) Allow(ctx context.Context,
	keyID, bucketID string,
	permissions s3.Permissions) error {

	request := AllowBucketKeyRequest{
		AccessKeyID: keyID,
		BucketID:    bucketID,
		Permissions: BucketKeyPerm(permissions),
	}

	return p.call(ctx, "allow bucket key", http.MethodPost, "/v2/AllowBucketKey", nil, request, nil)
}
