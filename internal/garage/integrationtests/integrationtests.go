// Package integrationtests runs an unconfigured single-node Garage daemon in a
// container for tests that need the real admin and S3 APIs.
package integrationtests

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bmarinov/garage-bootstrap/internal/nodeconfig"
)

const image = "docker.io/dxflrs/garage:v2.1.0"

const (
	adminPort string = "3903/tcp"
	s3Port    string = "3900/tcp"
)

type Environment struct {
	Container    testcontainers.Container
	AdminAPIAddr string
	S3APIAddr    string
	APIToken     string
	MetricsToken string
	Region       string
}

func (e *Environment) Terminate(ctx context.Context) {
	timeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = e.Container.Terminate(timeout)
}

// Exec runs a command in the Garage container and returns its stdout.
func (e *Environment) Exec(ctx context.Context, command ...string) (string, error) {
	return containerCmd(ctx, e.Container, command...)
}

// NewGarageEnv starts Garage with a configuration rendered by nodeconfig and
// no layout. Errors in the setup phase will lead to a panic.
func NewGarageEnv() Environment {
	ctx := context.TODO()

	params := nodeconfig.Params{
		AdminToken:   generateSecret(),
		MetricsToken: generateSecret(),
		S3Region:     "garage",
	}
	var rendered bytes.Buffer
	if err := nodeconfig.Render(&rendered, params); err != nil {
		panic(err)
	}

	container, err := testcontainers.Run(ctx, image,
		testcontainers.WithExposedPorts(adminPort, s3Port),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort(nat.Port(adminPort)),
			wait.ForListeningPort(nat.Port(s3Port)),
		),
		testcontainers.WithFiles(
			testcontainers.ContainerFile{
				Reader:            &rendered,
				ContainerFilePath: "/etc/garage.toml",
				FileMode:          0600,
			},
		),
	)
	if err != nil {
		panic(err)
	}

	adminAddr, err := endpoint(ctx, container, adminPort)
	if err != nil {
		panic(err)
	}
	s3Addr, err := endpoint(ctx, container, s3Port)
	if err != nil {
		panic(err)
	}

	return Environment{
		Container:    container,
		AdminAPIAddr: adminAddr,
		S3APIAddr:    s3Addr,
		APIToken:     params.AdminToken,
		MetricsToken: params.MetricsToken,
		Region:       params.S3Region,
	}
}

func endpoint(ctx context.Context, c testcontainers.Container, port string) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%s", host, mapped.Port()), nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		log.Fatal(err)
	}

	return hex.EncodeToString(b)
}

// containerCmd runs a command in the container and returns the stdout.
func containerCmd(ctx context.Context, c testcontainers.Container, cmdArgs ...string) (string, error) {
	code, reader, err := c.Exec(ctx, cmdArgs)
	if err != nil {
		return "", fmt.Errorf("execute container command: %w", err)
	}
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return "", fmt.Errorf("reading exec output: %w", err)
	}
	if code > 0 {
		return stdout.String(), fmt.Errorf("container exec: expected exit 0, got %d; command: %v; stderr: %s",
			code, cmdArgs, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
