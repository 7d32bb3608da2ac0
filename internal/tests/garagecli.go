package tests

import (
	"context"
	"fmt"
	"strings"
)

// ExecFunc runs a command next to the Garage daemon and returns its stdout.
type ExecFunc func(ctx context.Context, command ...string) (stdout string, err error)

// NodeID returns the ID of the local node as reported by the Garage CLI.
func NodeID(ctx context.Context, exec ExecFunc) (string, error) {
	stdout, err := exec(ctx, "/garage", "node", "id", "--quiet")
	if err != nil {
		return "", fmt.Errorf("obtaining node ID: %w", err)
	}
	return strings.Split(stdout, "@")[0], nil
}

// AssignLayout assigns the local node through the CLI, the way an operator
// would before the bootstrap ever runs.
func AssignLayout(ctx context.Context, exec ExecFunc, zone string) error {
	nodeID, err := NodeID(ctx, exec)
	if err != nil {
		return err
	}

	stdout, err := exec(ctx, "/garage", "layout", "assign", "-z", zone, "-c", "100M", nodeID)
	if err != nil {
		return fmt.Errorf("assign layout: %w output: %s", err, stdout)
	}
	stdout, err = exec(ctx, "/garage", "layout", "apply", "--version", "1")
	if err != nil {
		return fmt.Errorf("apply layout: %w: %s", err, stdout)
	}

	return nil
}

// CreateKey creates an access key through the CLI and returns its ID.
func CreateKey(ctx context.Context, exec ExecFunc, name string) (string, error) {
	stdout, err := exec(ctx, "/garage", "key", "create", name)
	if err != nil {
		return "", fmt.Errorf("create key: %w: %s", err, stdout)
	}
	for line := range strings.Lines(stdout) {
		if id, found := strings.CutPrefix(strings.TrimSpace(line), "Key ID:"); found {
			return strings.TrimSpace(id), nil
		}
	}
	return "", fmt.Errorf("key ID not found in output: %s", stdout)
}
