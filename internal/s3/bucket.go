package s3

import "errors"

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrBucketExists     = errors.New("bucket already exists")
)

// IndexDocument is served for directory requests on website-enabled buckets.
const IndexDocument = "index.html"

type Bucket struct {
	ID            string
	GlobalAliases []string

	Website Website
	// Keys holds the permissions granted to each access key, by key ID.
	Keys map[string]Permissions
}

type Website struct {
	Enabled       bool
	IndexDocument string
}

type Permissions struct {
	Owner bool
	Read  bool
	Write bool
}

// FullAccess grants owner, read and write.
var FullAccess = Permissions{Owner: true, Read: true, Write: true}

// Covers reports whether p includes every permission in required.
func (p Permissions) Covers(required Permissions) bool {
	return (p.Owner || !required.Owner) &&
		(p.Read || !required.Read) &&
		(p.Write || !required.Write)
}
