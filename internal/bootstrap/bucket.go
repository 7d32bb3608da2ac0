package bootstrap

import (
	"context"
	"errors"
	"fmt"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bmarinov/garage-bootstrap/internal/config"
	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

// BucketReconciler creates the declared buckets, grants the access key on
// them and sets their website state. A failing bucket does not stop the
// remaining ones.
type BucketReconciler struct {
	buckets     BucketClient
	permissions PermissionClient
	keyID       string
	specs       []config.BucketSpec
}

func (r *BucketReconciler) Name() string { return "buckets" }

func (r *BucketReconciler) Run(ctx context.Context) error {
	log := logf.FromContext(ctx)

	aliases, err := r.listAliases(ctx)
	if err != nil {
		// Nothing can be reconciled without knowing what exists.
		failures := make([]BucketFailure, 0, len(r.specs))
		for _, spec := range r.specs {
			failures = append(failures, BucketFailure{Bucket: spec.Name, Err: err})
		}
		return &StartupError{Kind: BucketReconcileFailed, Phase: r.Name(), Failures: failures}
	}

	var failures []BucketFailure
	for _, spec := range r.specs {
		if err := r.reconcileBucket(ctx, spec, aliases); err != nil {
			log.Error(err, "Bucket reconcile failed", "bucket", spec.Name)
			failures = append(failures, BucketFailure{Bucket: spec.Name, Err: err})
		}
	}

	if len(failures) > 0 {
		return &StartupError{Kind: BucketReconcileFailed, Phase: r.Name(), Failures: failures}
	}
	return nil
}

func (r *BucketReconciler) reconcileBucket(ctx context.Context, spec config.BucketSpec, aliases map[string]string) error {
	log := logf.FromContext(ctx).WithValues("bucket", spec.Name)

	bucket, err := r.ensureBucket(ctx, spec.Name, aliases)
	if err != nil {
		return err
	}

	if !bucket.Keys[r.keyID].Covers(s3.FullAccess) {
		err := r.permissions.Allow(ctx, r.keyID, bucket.ID, s3.FullAccess)
		if err != nil {
			return fmt.Errorf("grant key %s: %w", r.keyID, err)
		}
		log.Info("Granted access key", "id", bucket.ID, "key", r.keyID)
	}

	desired := desiredWebsite(spec.Policy)
	if !websiteMatches(bucket.Website, desired) {
		err := r.buckets.UpdateWebsite(ctx, bucket.ID, desired)
		if err != nil {
			return fmt.Errorf("set website access: %w", err)
		}
		log.Info("Updated website access", "id", bucket.ID, "enabled", desired.Enabled)
	}

	return nil
}

// ensureBucket returns the bucket with the given global alias, creating it
// when absent. Existing buckets are never modified here.
func (r *BucketReconciler) ensureBucket(ctx context.Context, alias string, aliases map[string]string) (s3.Bucket, error) {
	log := logf.FromContext(ctx).WithValues("bucket", alias)

	if id, found := aliases[alias]; found {
		bucket, err := r.buckets.Get(ctx, id)
		if err == nil {
			return bucket, nil
		}
		if !errors.Is(err, s3.ErrResourceNotFound) {
			return s3.Bucket{}, err
		}
	}

	bucket, err := r.buckets.Create(ctx, alias)
	if err == nil {
		log.Info("Created bucket", "id", bucket.ID)
		aliases[alias] = bucket.ID
		return bucket, nil
	}
	if !errors.Is(err, s3.ErrBucketExists) {
		return s3.Bucket{}, fmt.Errorf("create new bucket: %w", err)
	}

	// Created concurrently since the listing; look it up again.
	refreshed, listErr := r.listAliases(ctx)
	if listErr != nil {
		return s3.Bucket{}, listErr
	}
	id, found := refreshed[alias]
	if !found {
		return s3.Bucket{}, fmt.Errorf("bucket reported as existing but not listed: %w", err)
	}
	aliases[alias] = id
	return r.buckets.Get(ctx, id)
}

// listAliases maps every global alias to its bucket ID.
func (r *BucketReconciler) listAliases(ctx context.Context) (map[string]string, error) {
	buckets, err := r.buckets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	aliases := make(map[string]string, len(buckets))
	for _, b := range buckets {
		for _, alias := range b.GlobalAliases {
			aliases[alias] = b.ID
		}
	}
	return aliases, nil
}

func desiredWebsite(policy config.Policy) s3.Website {
	if policy == config.Public {
		return s3.Website{Enabled: true, IndexDocument: s3.IndexDocument}
	}
	return s3.Website{}
}

func websiteMatches(current, desired s3.Website) bool {
	if !desired.Enabled {
		return !current.Enabled
	}
	return current.Enabled && current.IndexDocument == desired.IndexDocument
}
