package bootstrap

import (
	"context"

	"github.com/bmarinov/garage-bootstrap/internal/garage"
	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

type ClusterClient interface {
	Health(ctx context.Context) (s3.Health, error)
	Status(ctx context.Context) ([]s3.Node, error)
	Layout(ctx context.Context) (s3.Layout, error)
	StageLayout(ctx context.Context, roles []s3.LayoutRole) (s3.Layout, error)
	ApplyLayout(ctx context.Context, version int64) (s3.Layout, error)
}

type AccessKeyClient interface {
	List(ctx context.Context) ([]s3.AccessKey, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, id, secret, name string) (s3.AccessKey, error)
}

type BucketClient interface {
	List(ctx context.Context) ([]s3.Bucket, error)
	Get(ctx context.Context, id string) (s3.Bucket, error)
	Create(ctx context.Context, globalAlias string) (s3.Bucket, error)
	UpdateWebsite(ctx context.Context, id string, website s3.Website) error
}

type PermissionClient interface {
	Allow(ctx context.Context, keyID, bucketID string, permissions s3.Permissions) error
}

// HealthChecker answers a single health request.
type HealthChecker interface {
	Health(ctx context.Context) (s3.Health, error)
}

// BucketChecker probes a bucket through the S3 data plane.
type BucketChecker interface {
	HeadBucket(ctx context.Context, bucket string) error
}

// Clients groups the admin API surfaces used by the phases.
type Clients struct {
	// Readiness is polled by the readiness phase and should not retry on its
	// own. Cluster is used when nil.
	Readiness   HealthChecker
	Cluster     ClusterClient
	AccessKeys  AccessKeyClient
	Buckets     BucketClient
	Permissions PermissionClient
}

func ClientsFrom(c *garage.AdminClient) Clients {
	return Clients{
		Readiness:   c.SingleAttempt(),
		Cluster:     c.ClusterClient,
		AccessKeys:  c.AccessKeyClient,
		Buckets:     c.BucketClient,
		Permissions: c.PermissionClient,
	}
}
