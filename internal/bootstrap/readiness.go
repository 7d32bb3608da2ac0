package bootstrap

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	progressLogInterval = time.Second
)

// ReadinessProbe waits for the admin API to answer a health request.
// Any error, transient or permanent, only means "not ready yet".
type ReadinessProbe struct {
	cluster  HealthChecker
	interval time.Duration
	timeout  time.Duration
}

func (p *ReadinessProbe) Name() string { return "readiness" }

func (p *ReadinessProbe) Run(ctx context.Context) error {
	log := logf.FromContext(ctx)
	start := time.Now()
	nextLog := progressLogInterval

	err := wait.PollUntilContextTimeout(ctx, p.interval, p.timeout, true, func(ctx context.Context) (bool, error) {
		health, err := p.cluster.Health(ctx)
		if err != nil {
			if elapsed := time.Since(start); elapsed >= nextLog {
				nextLog += progressLogInterval
				log.Info("Waiting for Garage admin API", "elapsed", elapsed.Round(100*time.Millisecond).String(), "lastError", err.Error())
			}
			return false, nil
		}

		log.Info("Garage admin API ready",
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
			"clusterStatus", health.Status,
			"connectedNodes", health.ConnectedNodes)
		return true, nil
	})
	if err != nil {
		return &StartupError{
			Kind:  ReadinessTimeout,
			Phase: p.Name(),
			Err:   fmt.Errorf("admin API not ready after %s: %w", p.timeout, err),
		}
	}
	return nil
}
