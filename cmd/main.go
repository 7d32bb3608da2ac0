/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/bmarinov/garage-bootstrap/internal/bootstrap"
	"github.com/bmarinov/garage-bootstrap/internal/config"
	"github.com/bmarinov/garage-bootstrap/internal/nodeconfig"
)

const (
	exitSuccess          = 0
	exitRunError         = 1
	exitInvalidConfig    = 2
	exitReadinessTimeout = 3
	exitLayoutFailed     = 4
	exitKeyImportFailed  = 5
	exitBucketFailed     = 6
	exitVerifyFailed     = 7
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zap.New(zap.WriteTo(os.Stderr))
	ctx = logf.IntoContext(ctx, logger)

	err := rootCommand(os.LookupEnv).ExecuteContext(ctx)
	if err != nil {
		logger.Error(err, "Bootstrap failed")
	}
	stop()
	os.Exit(exitCode(err))
}

func rootCommand(lookup config.LookupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "garage-bootstrap",
		Short: "Bring a single-node Garage cluster to its declared state",
		Long: `Waits for the local Garage admin API, assigns the node layout, imports
the configured access key and creates the declared buckets.

Configuration is read from GARAGE_* environment variables. With
GARAGE_CONFIG_PATH set, garage.toml is written there first, using the same
admin and metrics tokens the bootstrap authenticates with.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), lookup)
		},
	}

	cmd.AddCommand(configCommand(lookup))

	return cmd
}

func configCommand(lookup config.LookupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Render garage.toml for the local node to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(lookup)
			if err != nil {
				return err
			}
			// A generated token would differ from the one the next run generates.
			if cfg.TokensGenerated() {
				return fmt.Errorf("%w: %s and %s must be set to render the node configuration separately; set %s to render it during the bootstrap",
					config.ErrInvalidConfig, config.EnvAdminToken, config.EnvMetricsToken, config.EnvConfigPath)
			}
			return nodeconfig.Render(cmd.OutOrStdout(), nodeconfig.FromConfig(cfg))
		},
	}
}

func run(ctx context.Context, lookup config.LookupFunc, opts ...bootstrap.Option) error {
	log := logf.FromContext(ctx)

	cfg, err := loadConfig(lookup)
	if err != nil {
		return err
	}

	specs := cfg.Buckets()
	names := make([]string, 0, len(specs))
	for _, b := range specs {
		names = append(names, b.Name+":"+string(b.Policy))
	}
	log.Info("Loaded configuration",
		"adminEndpoint", cfg.AdminAPIEndpoint,
		"accessKeyId", cfg.AccessKeyID,
		"buckets", names,
		"s3Verification", cfg.S3APIEndpoint != "")

	if cfg.ConfigPath != "" {
		if err := nodeconfig.WriteFile(cfg.ConfigPath, nodeconfig.FromConfig(cfg)); err != nil {
			return err
		}
		log.Info("Wrote node configuration", "path", cfg.ConfigPath)
	}

	orchestrator, err := newOrchestrator(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	return orchestrator.Run(ctx)
}

// exitCode maps a bootstrap outcome to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return exitInvalidConfig
	}

	var startupErr *bootstrap.StartupError
	if !errors.As(err, &startupErr) {
		return exitRunError
	}
	switch startupErr.Kind {
	case bootstrap.ReadinessTimeout:
		return exitReadinessTimeout
	case bootstrap.LayoutFailed:
		return exitLayoutFailed
	case bootstrap.KeyImportFailed:
		return exitKeyImportFailed
	case bootstrap.BucketReconcileFailed:
		return exitBucketFailed
	case bootstrap.VerifyFailed:
		return exitVerifyFailed
	default:
		return exitRunError
	}
}
