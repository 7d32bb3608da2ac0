package garage

type ClusterHealthResponse struct {
	Status         string `json:"status"`
	KnownNodes     int    `json:"knownNodes"`
	ConnectedNodes int    `json:"connectedNodes"`
	StorageNodes   int    `json:"storageNodes"`
}

type ClusterStatusResponse struct {
	LayoutVersion int64          `json:"layoutVersion"`
	Nodes         []NodeResponse `json:"nodes"`
}

type NodeResponse struct {
	ID       string            `json:"id"`
	Hostname *string           `json:"hostname"`
	IsUp     bool              `json:"isUp"`
	Role     *NodeAssignedRole `json:"role"`
}

type NodeAssignedRole struct {
	Zone     string   `json:"zone"`
	Capacity *int64   `json:"capacity"`
	Tags     []string `json:"tags"`
}

type ClusterLayoutResponse struct {
	Version           int64            `json:"version"`
	Roles             []LayoutNodeRole `json:"roles"`
	StagedRoleChanges []NodeRoleChange `json:"stagedRoleChanges"`
}

type LayoutNodeRole struct {
	ID       string   `json:"id"`
	Zone     string   `json:"zone"`
	Capacity *int64   `json:"capacity"`
	Tags     []string `json:"tags"`
}

type NodeRoleChange struct {
	ID       string   `json:"id"`
	Remove   bool     `json:"remove,omitempty"`
	Zone     string   `json:"zone,omitempty"`
	Capacity *int64   `json:"capacity,omitempty"`
	Tags     []string `json:"tags"`
}

type UpdateClusterLayoutRequest struct {
	Roles []NodeRoleChange `json:"roles"`
}

type ApplyClusterLayoutRequest struct {
	Version int64 `json:"version"`
}

type ApplyClusterLayoutResponse struct {
	Message []string              `json:"message"`
	Layout  ClusterLayoutResponse `json:"layout"`
}

type ListKeysItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ImportKeyRequest struct {
	AccessKeyID     string  `json:"accessKeyId"`
	SecretAccessKey string  `json:"secretAccessKey"`
	Name            *string `json:"name,omitempty"`
}

type AccessKeyResponse struct {
	AccessKeyID     string                  `json:"accessKeyId"`
	Buckets         []KeyInfoBucketResponse `json:"buckets"`
	SecretAccessKey string                  `json:"secretAccessKey"`
	Name            string                  `json:"name"`
}

type KeyInfoBucketResponse struct {
	ID          string        `json:"id"`
	Permissions BucketKeyPerm `json:"permissions"`
}

type ListBucketsItem struct {
	ID            string   `json:"id"`
	GlobalAliases []string `json:"globalAliases"`
}

type CreateBucketRequest struct {
	GlobalAlias string `json:"globalAlias"`
}

type BucketResponse struct {
	ID            string               `json:"id"`
	GlobalAliases []string             `json:"globalAliases"`
	WebsiteAccess bool                 `json:"websiteAccess"`
	WebsiteConfig *BucketWebsiteConfig `json:"websiteConfig"`
	Keys          []BucketKeyInfo      `json:"keys"`
}

type BucketWebsiteConfig struct {
	IndexDocument string  `json:"indexDocument"`
	ErrorDocument *string `json:"errorDocument"`
}

type BucketKeyInfo struct {
	AccessKeyID string        `json:"accessKeyId"`
	Name        string        `json:"name"`
	Permissions BucketKeyPerm `json:"permissions"`
}

type UpdateBucketRequest struct {
	WebsiteAccess *UpdateBucketWebsiteAccess `json:"websiteAccess,omitempty"`
}

type UpdateBucketWebsiteAccess struct {
	Enabled       bool    `json:"enabled"`
	IndexDocument *string `json:"indexDocument,omitempty"`
	ErrorDocument *string `json:"errorDocument,omitempty"`
}

type AllowBucketKeyRequest struct {
	AccessKeyID string        `json:"accessKeyId"`
	BucketID    string        `json:"bucketId"`
	Permissions BucketKeyPerm `json:"permissions"`
}

type BucketKeyPerm struct {
	Owner bool `json:"owner"`
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

// errorResponse is the body Garage sends with non-2xx statuses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
