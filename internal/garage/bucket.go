package garage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"k8s.io/utils/ptr"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

type BucketClient struct {
	*adminAPIHttpClient
}

// List returns all buckets with their ID and global aliases only.
func (b *BucketClient) List(ctx context.Context) ([]s3.Bucket, error) {
	var result []ListBucketsItem
	err := b.call(ctx, "list buckets", http.MethodGet, "/v2/ListBuckets", nil, nil, &result)
	if err != nil {
		return nil, err
	}

	buckets := make([]s3.Bucket, 0, len(result))
	for _, item := range result {
		buckets = append(buckets, s3.Bucket{ID: item.ID, GlobalAliases: item.GlobalAliases})
	}
	return buckets, nil
}

func (b *BucketClient) Get(ctx context.Context, id string) (s3.Bucket, error) {
	params := url.Values{}
	params.Add("id", id)

	var result BucketResponse
	err := b.call(ctx, "get bucket info", http.MethodGet, "/v2/GetBucketInfo", &params, nil, &result)
	if err != nil {
		return s3.Bucket{}, fmt.Errorf("retrieve bucket '%s': %w", id, err)
	}
	return toBucket(result), nil
}

func (b *BucketClient) Create(ctx context.Context, globalAlias string) (s3.Bucket, error) {
	var result BucketResponse
	err := b.call(ctx, "create bucket", http.MethodPost, "/v2/CreateBucket", nil,
		CreateBucketRequest{GlobalAlias: globalAlias}, &result)
	if err != nil {
		if StatusCode(err) == http.StatusConflict {
			return s3.Bucket{}, fmt.Errorf("%w: %w", s3.ErrBucketExists, err)
		}
		return s3.Bucket{}, err
	}
	return toBucket(result), nil
}

// UpdateWebsite enables or disables website access. The index document is
// only sent when enabling.
func (b *BucketClient) UpdateWebsite(ctx context.Context, id string, website s3.Website) error {
	access := UpdateBucketWebsiteAccess{Enabled: website.Enabled}
	if website.Enabled {
		access.IndexDocument = ptr.To(website.IndexDocument)
	}

	params := url.Values{}
	params.Add("id", id)

	err := b.call(ctx, "update bucket", http.MethodPost, "/v2/UpdateBucket", &params,
		UpdateBucketRequest{WebsiteAccess: &access}, nil)
	if err != nil {
		return fmt.Errorf("update bucket '%s': %w", id, err)
	}
	return nil
}

func toBucket(resp BucketResponse) s3.Bucket {
	bucket := s3.Bucket{
		ID:            resp.ID,
		GlobalAliases: resp.GlobalAliases,
		Website:       s3.Website{Enabled: resp.WebsiteAccess},
		Keys:          make(map[string]s3.Permissions, len(resp.Keys)),
	}
	if resp.WebsiteConfig != nil {
		bucket.Website.IndexDocument = resp.WebsiteConfig.IndexDocument
	}
	for _, k := range resp.Keys {
		bucket.Keys[k.AccessKeyID] = s3.Permissions(k.Permissions)
	}
	return bucket
}
