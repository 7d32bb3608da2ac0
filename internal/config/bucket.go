package config

import (
	"fmt"
	"regexp"
	"strings"
)

type Policy string

const (
	Private Policy = "private"
	Public  Policy = "public"
)

// ParsePolicy accepts "public" or "private" in any letter case.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case string(Private):
		return Private, nil
	case string(Public):
		return Public, nil
	}
	return "", fmt.Errorf("unknown bucket policy %q", s)
}

type BucketSpec struct {
	Name   string
	Policy Policy
}

var bucketNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// parseBuckets reads a list of name[:policy] entries separated by commas.
// Declared order is kept.
func parseBuckets(raw string) ([]BucketSpec, error) {
	var buckets []BucketSpec
	seen := make(map[string]struct{})

	for entry := range strings.SplitSeq(raw, ",") {
		name, policyToken, hasPolicy := strings.Cut(strings.TrimSpace(entry), ":")
		name = strings.TrimSpace(name)

		if !bucketNamePattern.MatchString(name) {
			return nil, &Error{Kind: InvalidBucketName, Field: EnvBuckets, Bucket: name}
		}

		policy := Private
		if hasPolicy {
			p, err := ParsePolicy(strings.TrimSpace(policyToken))
			if err != nil {
				return nil, &Error{Kind: InvalidPolicy, Field: EnvBuckets, Bucket: name, Value: policyToken}
			}
			policy = p
		}

		if _, dup := seen[name]; dup {
			return nil, &Error{Kind: DuplicateBucket, Field: EnvBuckets, Bucket: name}
		}
		seen[name] = struct{}{}

		buckets = append(buckets, BucketSpec{Name: name, Policy: policy})
	}

	return buckets, nil
}
