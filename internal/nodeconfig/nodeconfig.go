// Package nodeconfig renders the garage.toml of a single-node Garage daemon.
package nodeconfig

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/bmarinov/garage-bootstrap/internal/config"
	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

const (
	MetadataDir = "/var/lib/garage/meta"
	DataDir     = "/var/lib/garage/data"
)

// Params are the values that vary between rendered configurations.
type Params struct {
	AdminToken   string
	MetricsToken string
	S3Region     string
	// RPCSecret is generated when empty.
	RPCSecret string
}

func FromConfig(cfg *config.Config) Params {
	return Params{
		AdminToken:   cfg.AdminToken,
		MetricsToken: cfg.MetricsToken,
		S3Region:     cfg.S3Region,
	}
}

type garageConfig struct {
	MetadataDir       string `toml:"metadata_dir"`
	DataDir           string `toml:"data_dir"`
	DBEngine          string `toml:"db_engine"`
	ReplicationFactor int    `toml:"replication_factor"`
	RPCBindAddr       string `toml:"rpc_bind_addr"`
	RPCPublicAddr     string `toml:"rpc_public_addr"`
	RPCSecret         string `toml:"rpc_secret"`

	S3API s3APIConfig `toml:"s3_api"`
	S3Web s3WebConfig `toml:"s3_web"`
	Admin adminConfig `toml:"admin"`
}

type s3APIConfig struct {
	S3Region    string `toml:"s3_region"`
	APIBindAddr string `toml:"api_bind_addr"`
	RootDomain  string `toml:"root_domain"`
}

type s3WebConfig struct {
	BindAddr   string `toml:"bind_addr"`
	RootDomain string `toml:"root_domain"`
	Index      string `toml:"index"`
}

type adminConfig struct {
	APIBindAddr  string `toml:"api_bind_addr"`
	AdminToken   string `toml:"admin_token"`
	MetricsToken string `toml:"metrics_token"`
}

// Render writes a garage.toml for p to w.
func Render(w io.Writer, p Params) error {
	if p.AdminToken == "" || p.MetricsToken == "" {
		return fmt.Errorf("admin and metrics tokens are required")
	}
	if p.S3Region == "" {
		p.S3Region = config.DefaultS3Region
	}
	if p.RPCSecret == "" {
		p.RPCSecret = randomHex(32)
	}

	cfg := garageConfig{
		MetadataDir:       MetadataDir,
		DataDir:           DataDir,
		DBEngine:          "sqlite",
		ReplicationFactor: 1,
		RPCBindAddr:       "[::]:3901",
		RPCPublicAddr:     "127.0.0.1:3901",
		RPCSecret:         p.RPCSecret,
		S3API: s3APIConfig{
			S3Region:    p.S3Region,
			APIBindAddr: "[::]:3900",
			RootDomain:  ".s3.garage.localhost",
		},
		S3Web: s3WebConfig{
			BindAddr:   "[::]:3902",
			RootDomain: ".web.garage.localhost",
			Index:      s3.IndexDocument,
		},
		Admin: adminConfig{
			APIBindAddr:  "[::]:3903",
			AdminToken:   p.AdminToken,
			MetricsToken: p.MetricsToken,
		},
	}

	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode garage config: %w", err)
	}
	return nil
}

// WriteFile renders p to path, readable by the owner only since the file
// holds the admin token.
func WriteFile(path string, p Params) error {
	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write garage config: %w", err)
	}
	return nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
