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

// Package bootstrap brings a freshly started single-node Garage cluster to
// its declared state: layout assigned, one access key, declared buckets.
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bmarinov/garage-bootstrap/internal/config"
)

// Phase is one step of the bootstrap pipeline.
type Phase interface {
	Name() string
	Run(ctx context.Context) error
}

type Option func(*Orchestrator)

// WithPollInterval sets the interval between readiness probes.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollInterval = d
	}
}

// WithBucketChecker appends an S3 verification phase using c.
func WithBucketChecker(c BucketChecker) Option {
	return func(o *Orchestrator) {
		o.checker = c
	}
}

// Orchestrator runs the phases in order, stopping at the first failure.
type Orchestrator struct {
	timeout      time.Duration
	pollInterval time.Duration
	checker      BucketChecker
	phases       []Phase
}

func New(cfg *config.Config, clients Clients, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		timeout:      cfg.StartupTimeout,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(o)
	}

	readiness := clients.Readiness
	if readiness == nil {
		readiness = clients.Cluster
	}

	buckets := cfg.Buckets()
	o.phases = []Phase{
		&ReadinessProbe{
			cluster:  readiness,
			interval: o.pollInterval,
			timeout:  cfg.ReadinessTimeout,
		},
		&LayoutReconciler{cluster: clients.Cluster},
		&KeyReconciler{
			keys:   clients.AccessKeys,
			id:     cfg.AccessKeyID,
			secret: cfg.SecretAccessKey,
		},
		&BucketReconciler{
			buckets:     clients.Buckets,
			permissions: clients.Permissions,
			keyID:       cfg.AccessKeyID,
			specs:       buckets,
		},
	}
	if o.checker != nil {
		o.phases = append(o.phases, &S3Verifier{checker: o.checker, specs: buckets})
	}

	return o
}

// Phases returns the phase names in execution order.
func (o *Orchestrator) Phases() []string {
	names := make([]string, 0, len(o.phases))
	for _, p := range o.phases {
		names = append(names, p.Name())
	}
	return names
}

func (o *Orchestrator) Run(ctx context.Context) error {
	log := logf.FromContext(ctx)

	runCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	for _, phase := range o.phases {
		if err := runPhase(runCtx, log.WithValues("phase", phase.Name()), phase); err != nil {
			return err
		}
	}

	log.Info("Bootstrap completed", "duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}

func runPhase(ctx context.Context, log logr.Logger, phase Phase) error {
	start := time.Now()
	log.Info("Starting phase")

	err := phase.Run(logf.IntoContext(ctx, log))
	duration := time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &StartupError{Kind: DeadlineExceeded, Phase: phase.Name(), Err: err}
		}
		log.Error(err, "Phase failed", "duration", duration)
		return err
	}

	log.Info("Phase completed", "duration", duration)
	return nil
}
