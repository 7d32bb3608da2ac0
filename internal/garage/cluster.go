package garage

import (
	"context"
	"net/http"

	"k8s.io/utils/ptr"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

type ClusterClient struct {
	*adminAPIHttpClient
}

// Health returns the cluster health summary. Garage answers this before a
// layout exists, so success only means the admin API is serving.
func (c *ClusterClient) Health(ctx context.Context) (s3.Health, error) {
	var result ClusterHealthResponse
	err := c.call(ctx, "get cluster health", http.MethodGet, "/v2/GetClusterHealth", nil, nil, &result)
	if err != nil {
		return s3.Health{}, err
	}

	return s3.Health{
		Status:         result.Status,
		KnownNodes:     result.KnownNodes,
		ConnectedNodes: result.ConnectedNodes,
		StorageNodes:   result.StorageNodes,
	}, nil
}

// Status returns the nodes known to the cluster.
func (c *ClusterClient) Status(ctx context.Context) ([]s3.Node, error) {
	var result ClusterStatusResponse
	err := c.call(ctx, "get cluster status", http.MethodGet, "/v2/GetClusterStatus", nil, nil, &result)
	if err != nil {
		return nil, err
	}

	nodes := make([]s3.Node, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		node := s3.Node{
			ID:       n.ID,
			Hostname: ptr.Deref(n.Hostname, ""),
			IsUp:     n.IsUp,
		}
		if n.Role != nil {
			node.Role = &s3.NodeRole{
				Zone:     n.Role.Zone,
				Capacity: ptr.Deref(n.Role.Capacity, 0),
				Tags:     n.Role.Tags,
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (c *ClusterClient) Layout(ctx context.Context) (s3.Layout, error) {
	var result ClusterLayoutResponse
	err := c.call(ctx, "get cluster layout", http.MethodGet, "/v2/GetClusterLayout", nil, nil, &result)
	if err != nil {
		return s3.Layout{}, err
	}
	return toLayout(result), nil
}

// StageLayout stages role assignments without applying them. The returned
// layout carries the currently applied version.
func (c *ClusterClient) StageLayout(ctx context.Context, roles []s3.LayoutRole) (s3.Layout, error) {
	request := UpdateClusterLayoutRequest{
		Roles: make([]NodeRoleChange, 0, len(roles)),
	}
	for _, r := range roles {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		request.Roles = append(request.Roles, NodeRoleChange{
			ID:       r.NodeID,
			Zone:     r.Zone,
			Capacity: ptr.To(r.Capacity),
			Tags:     tags,
		})
	}

	var result ClusterLayoutResponse
	err := c.call(ctx, "update cluster layout", http.MethodPost, "/v2/UpdateClusterLayout", nil, request, &result)
	if err != nil {
		return s3.Layout{}, err
	}
	return toLayout(result), nil
}

// ApplyLayout applies the staged changes as the given layout version.
func (c *ClusterClient) ApplyLayout(ctx context.Context, version int64) (s3.Layout, error) {
	var result ApplyClusterLayoutResponse
	err := c.call(ctx, "apply cluster layout", http.MethodPost, "/v2/ApplyClusterLayout", nil,
		ApplyClusterLayoutRequest{Version: version}, &result)
	if err != nil {
		return s3.Layout{}, err
	}
	return toLayout(result.Layout), nil
}

func toLayout(resp ClusterLayoutResponse) s3.Layout {
	layout := s3.Layout{Version: resp.Version}
	for _, r := range resp.Roles {
		layout.Roles = append(layout.Roles, s3.LayoutRole{
			NodeID:   r.ID,
			Zone:     r.Zone,
			Capacity: ptr.Deref(r.Capacity, 0),
			Tags:     r.Tags,
		})
	}
	for _, r := range resp.StagedRoleChanges {
		if r.Remove {
			continue
		}
		layout.Staged = append(layout.Staged, s3.LayoutRole{
			NodeID:   r.ID,
			Zone:     r.Zone,
			Capacity: ptr.Deref(r.Capacity, 0),
			Tags:     r.Tags,
		})
	}
	return layout
}
