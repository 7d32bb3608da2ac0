// Package s3check verifies bucket reachability through the S3 API using the
// bootstrapped access key.
package s3check

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type Checker struct {
	client *awss3.Client
}

// New builds a path-style S3 client with static credentials.
func New(ctx context.Context, cfg ClientConfig) (*Checker, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("region is required for S3 client")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Checker{client: client}, nil
}

// HeadBucket succeeds when the bucket exists and the key may access it.
func (c *Checker) HeadBucket(ctx context.Context, bucket string) error {
	_, err := c.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("head bucket %s: %s: %w", bucket, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("head bucket %s: %w", bucket, err)
}
