package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig matches every *Error with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

type ErrorKind int

const (
	MissingRequired ErrorKind = iota + 1
	InvalidFormat
	InvalidPolicy
	InvalidBucketName
	DuplicateBucket
)

func (k ErrorKind) String() string {
	switch k {
	case MissingRequired:
		return "MissingRequired"
	case InvalidFormat:
		return "InvalidFormat"
	case InvalidPolicy:
		return "InvalidPolicy"
	case InvalidBucketName:
		return "InvalidBucketName"
	case DuplicateBucket:
		return "DuplicateBucket"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error describes why the environment could not be turned into a Config.
// Field names the environment variable; Bucket is set for bucket list errors.
type Error struct {
	Kind   ErrorKind
	Field  string
	Bucket string
	// Value is the offending input. Never set for secrets.
	Value string
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingRequired:
		return fmt.Sprintf("missing required environment variable %s", e.Field)
	case InvalidFormat:
		if e.Value != "" {
			return fmt.Sprintf("environment variable %s has invalid format: %q", e.Field, e.Value)
		}
		return fmt.Sprintf("environment variable %s has invalid format", e.Field)
	case InvalidPolicy:
		return fmt.Sprintf("invalid policy %q for bucket %q in %s", e.Value, e.Bucket, e.Field)
	case InvalidBucketName:
		return fmt.Sprintf("invalid bucket name %q in %s", e.Bucket, e.Field)
	case DuplicateBucket:
		return fmt.Sprintf("duplicate bucket %q in %s", e.Bucket, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidConfig
}
