package bootstrap

import (
	"context"
	"fmt"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

const (
	layoutZone = "dc1"
	// nodeCapacity is in bytes. A single node holds every partition, so the
	// value only needs to be non-zero.
	nodeCapacity int64 = 1 << 30
)

// LayoutReconciler assigns capacity to the single cluster node, once.
type LayoutReconciler struct {
	cluster ClusterClient
}

func (r *LayoutReconciler) Name() string { return "layout" }

func (r *LayoutReconciler) Run(ctx context.Context) error {
	log := logf.FromContext(ctx)

	layout, err := r.cluster.Layout(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("get cluster layout: %w", err))
	}

	switch assigned := layout.AssignedNodes(); len(assigned) {
	case 0:
	case 1:
		log.Info("Layout already applied, skipping", "node", assigned[0].NodeID, "version", layout.Version)
		return nil
	default:
		return r.fail(fmt.Errorf("layout version %d assigns %d nodes, expected one", layout.Version, len(assigned)))
	}

	nodes, err := r.cluster.Status(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("get cluster status: %w", err))
	}
	if len(nodes) != 1 {
		return r.fail(fmt.Errorf("unexpected number of nodes in status: %d", len(nodes)))
	}
	node := nodes[0]

	log.Info("No layout found, staging node role", "node", node.ID, "zone", layoutZone, "capacity", nodeCapacity)
	staged, err := r.cluster.StageLayout(ctx, []s3.LayoutRole{{
		NodeID:   node.ID,
		Zone:     layoutZone,
		Capacity: nodeCapacity,
	}})
	if err != nil {
		return r.fail(fmt.Errorf("stage layout: %w", err))
	}

	applied, err := r.cluster.ApplyLayout(ctx, staged.Version+1)
	if err != nil {
		return r.fail(fmt.Errorf("apply layout version %d: %w", staged.Version+1, err))
	}
	log.Info("Layout applied", "version", applied.Version)

	return nil
}

func (r *LayoutReconciler) fail(err error) error {
	return &StartupError{Kind: LayoutFailed, Phase: r.Name(), Err: err}
}
