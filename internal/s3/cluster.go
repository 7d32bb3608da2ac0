package s3

// Health is the cluster-wide health summary reported by the admin API.
type Health struct {
	Status         string
	KnownNodes     int
	ConnectedNodes int
	StorageNodes   int
}

type Node struct {
	ID       string
	Hostname string
	IsUp     bool
	// Role is nil while the node has no layout assignment.
	Role *NodeRole
}

type NodeRole struct {
	Zone     string
	Capacity int64
	Tags     []string
}

// Layout is the applied cluster layout plus any staged, not yet applied, changes.
type Layout struct {
	Version int64
	Roles   []LayoutRole
	Staged  []LayoutRole
}

type LayoutRole struct {
	NodeID   string
	Zone     string
	Capacity int64
	Tags     []string
}

// AssignedNodes returns the roles with a non-zero capacity.
func (l Layout) AssignedNodes() []LayoutRole {
	var assigned []LayoutRole
	for _, r := range l.Roles {
		if r.Capacity > 0 {
			assigned = append(assigned, r)
		}
	}
	return assigned
}
