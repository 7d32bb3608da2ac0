package bootstrap

import (
	"fmt"
	"strings"
)

type StartupErrorKind int

const (
	ReadinessTimeout StartupErrorKind = iota + 1
	LayoutFailed
	KeyImportFailed
	BucketReconcileFailed
	VerifyFailed
	// DeadlineExceeded means the overall startup deadline expired mid-phase.
	DeadlineExceeded
)

func (k StartupErrorKind) String() string {
	switch k {
	case ReadinessTimeout:
		return "ReadinessTimeout"
	case LayoutFailed:
		return "LayoutFailed"
	case KeyImportFailed:
		return "KeyImportFailed"
	case BucketReconcileFailed:
		return "BucketReconcileFailed"
	case VerifyFailed:
		return "VerifyFailed"
	case DeadlineExceeded:
		return "DeadlineExceeded"
	default:
		return fmt.Sprintf("StartupErrorKind(%d)", int(k))
	}
}

// BucketFailure is the cause recorded for a single bucket.
type BucketFailure struct {
	Bucket string
	Err    error
}

// StartupError is the outcome of a failed phase. Failures is set for the
// bucket and verify phases and lists buckets in declared order.
type StartupError struct {
	Kind     StartupErrorKind
	Phase    string
	Err      error
	Failures []BucketFailure
}

func (e *StartupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase %s: %s", e.Phase, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Failures) > 0 {
		fmt.Fprintf(&b, ": %d bucket(s) failed", len(e.Failures))
		for _, f := range e.Failures {
			fmt.Fprintf(&b, "; %s: %v", f.Bucket, f.Err)
		}
	}
	return b.String()
}

func (e *StartupError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// FailedBuckets returns the names of the failed buckets in declared order.
func (e *StartupError) FailedBuckets() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Bucket)
	}
	return names
}
