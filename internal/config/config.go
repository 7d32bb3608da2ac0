// Package config turns the process environment into a validated, immutable
// bootstrap configuration.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	EnvAccessKeyID      = "GARAGE_ACCESS_KEY_ID"
	EnvSecretAccessKey  = "GARAGE_SECRET_ACCESS_KEY"
	EnvBuckets          = "GARAGE_BUCKETS"
	EnvAdminToken       = "GARAGE_ADMIN_TOKEN"
	EnvMetricsToken     = "GARAGE_METRICS_TOKEN"
	EnvAdminAPIEndpoint = "GARAGE_ADMIN_API_ENDPOINT"
	EnvS3APIEndpoint    = "GARAGE_S3_API_ENDPOINT"
	EnvS3Region         = "GARAGE_S3_REGION"
	EnvReadinessTimeout = "GARAGE_READINESS_TIMEOUT"
	EnvStartupTimeout   = "GARAGE_STARTUP_TIMEOUT"
	EnvConfigPath       = "GARAGE_CONFIG_PATH"
)

const (
	DefaultAdminAPIEndpoint = "http://127.0.0.1:3903"
	DefaultS3Region         = "garage"
	DefaultReadinessTimeout = 20 * time.Second
	DefaultStartupTimeout   = 2 * time.Minute
)

// tokenBytes is the entropy of generated tokens before hex encoding.
const tokenBytes = 32

var (
	accessKeyIDPattern     = regexp.MustCompile(`^GK[0-9a-f]{24}$`)
	secretAccessKeyPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Config is built once by Load. Fields are exported for reading; callers
// treat a loaded Config as read-only and never assign to it.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	AdminToken      string
	MetricsToken    string

	AdminAPIEndpoint string
	// S3APIEndpoint is empty when S3 verification is disabled.
	S3APIEndpoint string
	S3Region      string

	ReadinessTimeout time.Duration
	StartupTimeout   time.Duration

	// ConfigPath is where the node configuration is written before the
	// bootstrap starts. Empty disables rendering.
	ConfigPath string

	buckets         []BucketSpec
	generatedTokens bool
}

// Buckets returns the declared buckets in declaration order.
func (c *Config) Buckets() []BucketSpec {
	return slices.Clone(c.buckets)
}

// TokensGenerated reports whether the admin or metrics token was absent from
// the environment and generated by Load. Generated tokens only exist in
// this Config value.
func (c *Config) TokensGenerated() bool {
	return c.generatedTokens
}

// Load reads and validates the configuration. No partial Config is returned:
// any invalid input yields a nil Config and an *Error.
func Load(lookup LookupFunc) (*Config, error) {
	env := environment(lookup)
	cfg := Config{
		S3APIEndpoint: env.get(EnvS3APIEndpoint),
	}

	var err error
	if cfg.AccessKeyID, err = env.required(EnvAccessKeyID); err != nil {
		return nil, err
	}
	if !accessKeyIDPattern.MatchString(cfg.AccessKeyID) {
		return nil, &Error{Kind: InvalidFormat, Field: EnvAccessKeyID, Value: cfg.AccessKeyID}
	}

	if cfg.SecretAccessKey, err = env.required(EnvSecretAccessKey); err != nil {
		return nil, err
	}
	if !secretAccessKeyPattern.MatchString(cfg.SecretAccessKey) {
		return nil, &Error{Kind: InvalidFormat, Field: EnvSecretAccessKey}
	}

	rawBuckets, err := env.required(EnvBuckets)
	if err != nil {
		return nil, err
	}
	if cfg.buckets, err = parseBuckets(rawBuckets); err != nil {
		return nil, err
	}

	generate := func() string {
		cfg.generatedTokens = true
		return generateToken()
	}
	cfg.AdminToken = env.getOr(EnvAdminToken, generate)
	cfg.MetricsToken = env.getOr(EnvMetricsToken, generate)

	cfg.AdminAPIEndpoint = env.getOr(EnvAdminAPIEndpoint, func() string { return DefaultAdminAPIEndpoint })
	if !isHTTPURL(cfg.AdminAPIEndpoint) {
		return nil, &Error{Kind: InvalidFormat, Field: EnvAdminAPIEndpoint, Value: cfg.AdminAPIEndpoint}
	}
	if cfg.S3APIEndpoint != "" && !isHTTPURL(cfg.S3APIEndpoint) {
		return nil, &Error{Kind: InvalidFormat, Field: EnvS3APIEndpoint, Value: cfg.S3APIEndpoint}
	}
	cfg.S3Region = env.getOr(EnvS3Region, func() string { return DefaultS3Region })

	if cfg.ReadinessTimeout, err = env.duration(EnvReadinessTimeout, DefaultReadinessTimeout); err != nil {
		return nil, err
	}
	if cfg.StartupTimeout, err = env.duration(EnvStartupTimeout, DefaultStartupTimeout); err != nil {
		return nil, err
	}

	cfg.ConfigPath = env.get(EnvConfigPath)
	if cfg.ConfigPath != "" && !filepath.IsAbs(cfg.ConfigPath) {
		return nil, &Error{Kind: InvalidFormat, Field: EnvConfigPath, Value: cfg.ConfigPath}
	}

	return &cfg, nil
}

type environment LookupFunc

// get returns the trimmed value, or "" when unset.
func (e environment) get(key string) string {
	v, _ := e(key)
	return strings.TrimSpace(v)
}

func (e environment) required(key string) (string, error) {
	v := e.get(key)
	if v == "" {
		return "", &Error{Kind: MissingRequired, Field: key}
	}
	return v, nil
}

func (e environment) getOr(key string, fallback func() string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return fallback()
}

func (e environment) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := e.get(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, &Error{Kind: InvalidFormat, Field: key, Value: v}
	}
	return d, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// generateToken returns 32 random bytes, hex encoded.
func generateToken() string {
	b := make([]byte, tokenBytes)
	// crypto/rand.Read does not fail; it crashes the program irrecoverably instead.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
