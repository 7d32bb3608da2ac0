package bootstrap

import (
	"context"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bmarinov/garage-bootstrap/internal/config"
)

// S3Verifier checks that every declared bucket answers S3 requests signed
// with the imported key.
type S3Verifier struct {
	checker BucketChecker
	specs   []config.BucketSpec
}

func (v *S3Verifier) Name() string { return "verify" }

func (v *S3Verifier) Run(ctx context.Context) error {
	log := logf.FromContext(ctx)

	var failures []BucketFailure
	for _, spec := range v.specs {
		if err := v.checker.HeadBucket(ctx, spec.Name); err != nil {
			log.Error(err, "Bucket not reachable through S3 API", "bucket", spec.Name)
			failures = append(failures, BucketFailure{Bucket: spec.Name, Err: err})
			continue
		}
		log.V(1).Info("Bucket reachable through S3 API", "bucket", spec.Name)
	}

	if len(failures) > 0 {
		return &StartupError{Kind: VerifyFailed, Phase: v.Name(), Failures: failures}
	}
	return nil
}
