// Package config provides unified configuration for the citygate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CITYGATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/citygate/pkg/auth"
)

// Operation names for the lead resource. Each one must have a policy.
const (
	OpListLeads  = "leads.list"
	OpReadLead   = "leads.read"
	OpCreateLead = "leads.create"
	OpDeleteLead = "leads.delete"
)

// RequiredPolicies lists the operations the server routes.
var RequiredPolicies = []string{OpListLeads, OpReadLead, OpCreateLead, OpDeleteLead}

// Config holds all configuration for the citygate server.
type Config struct {
	Server        ServerConfig           `yaml:"server"`
	Storage       StorageConfig          `yaml:"storage"`
	Auth          AuthConfig             `yaml:"auth"`
	Policies      map[string]auth.Policy `yaml:"policies"`
	RateLimit     RateLimitConfig        `yaml:"rate_limit"`
	Observability ObservabilityConfig    `yaml:"observability"`
	Log           LogConfig              `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MB
}

// StorageConfig selects the account and lead store.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds token verification settings. Exactly one of the HMAC
// secret (secret or secret_file) and the RSA public key must be set.
type AuthConfig struct {
	Secret        string            `yaml:"secret"`
	SecretFile    string            `yaml:"secret_file"` // _file variant for secret
	PublicKeyFile string            `yaml:"public_key_file"`
	PublicKeyPEM  []byte            `yaml:"-"` // loaded from public_key_file
	Issuer        string            `yaml:"issuer"`
	Audience      string            `yaml:"audience"`
	TokenType     string            `yaml:"token_type"`    // default: "access"
	AccountCheck  auth.AccountCheck `yaml:"account_check"` // "snapshot" or "live", default: "snapshot"
}

// RateLimitConfig holds per-role request budgets in requests per minute.
// Zero means unlimited.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Roles      map[string]int `yaml:"roles"`
}

// PerRole converts the role-name keyed budgets into auth roles.
func (c RateLimitConfig) PerRole() (map[auth.Role]int, error) {
	out := make(map[auth.Role]int, len(c.Roles))
	for name, rpm := range c.Roles {
		role, err := auth.ParseRole(name)
		if err != nil {
			return nil, err
		}
		out[role] = rpm
	}
	return out, nil
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LogConfig holds logging settings. CITYGATE_DEBUG and CITYGATE_LOG_LEVEL
// override the values at startup.
type LogConfig struct {
	Debug  string `yaml:"debug"`  // comma-separated debug categories
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// DefaultPolicies returns the built-in lead policies. Every lead operation
// is tenant-owned through the tenant_id field; only deletion restricts
// roles.
func DefaultPolicies() map[string]auth.Policy {
	return map[string]auth.Policy{
		OpListLeads:  {TenantField: auth.TenantIDField},
		OpReadLead:   {TenantField: auth.TenantIDField},
		OpCreateLead: {TenantField: auth.TenantIDField},
		OpDeleteLead: {
			Roles:       []auth.Role{auth.RoleMasterBR, auth.RoleAdmin, auth.RoleRegional},
			TenantField: auth.TenantIDField,
		},
	}
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			TokenType:    "access",
			AccountCheck: auth.CheckSnapshot,
		},
		Policies: DefaultPolicies(),
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
