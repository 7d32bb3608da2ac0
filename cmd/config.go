package main

import (
	"context"
	"fmt"

	"github.com/bmarinov/garage-bootstrap/internal/bootstrap"
	"github.com/bmarinov/garage-bootstrap/internal/config"
	"github.com/bmarinov/garage-bootstrap/internal/garage"
	"github.com/bmarinov/garage-bootstrap/internal/s3check"
)

func loadConfig(lookup config.LookupFunc) (*config.Config, error) {
	cfg, err := config.Load(lookup)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// newOrchestrator wires the admin API client and, when an S3 endpoint is
// configured, the bucket checker.
func newOrchestrator(ctx context.Context, cfg *config.Config, opts ...bootstrap.Option) (*bootstrap.Orchestrator, error) {
	client := garage.NewClient(cfg.AdminAPIEndpoint, cfg.AdminToken)

	if cfg.S3APIEndpoint != "" {
		checker, err := s3check.New(ctx, s3check.ClientConfig{
			Endpoint:        cfg.S3APIEndpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 client: %w", err)
		}
		opts = append(opts, bootstrap.WithBucketChecker(checker))
	}

	return bootstrap.New(cfg, bootstrap.ClientsFrom(client), opts...), nil
}
