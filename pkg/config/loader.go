package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CITYGATE_CONFIG env, ./config.yaml, /etc/citygate/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
		keepTenantOwnership(&cfg)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CITYGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/citygate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CITYGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/citygate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
// Policies named in the file replace the built-in policy of the same name;
// Load then restores the tenant field a lead policy left out.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// keepTenantOwnership restores the tenant field of built-in policies that
// the file redeclared without one, so narrowing the roles of a lead
// operation never drops its tenant scoping.
func keepTenantOwnership(cfg *Config) {
	for op, def := range DefaultPolicies() {
		p, ok := cfg.Policies[op]
		if ok && p.TenantField == "" && def.TenantField != "" {
			p.TenantField = def.TenantField
			cfg.Policies[op] = p
		}
	}
}

// applyEnvOverrides maps CITYGATE_* environment variables to config fields.
// Malformed numeric values are reported rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CITYGATE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CITYGATE_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CITYGATE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("CITYGATE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("CITYGATE_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("CITYGATE_AUTH_SECRET_FILE"); v != "" {
		cfg.Auth.SecretFile = v
	}
	if v := os.Getenv("CITYGATE_AUTH_PUBLIC_KEY_FILE"); v != "" {
		cfg.Auth.PublicKeyFile = v
	}
	if v := os.Getenv("CITYGATE_AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("CITYGATE_AUTH_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("CITYGATE_ACCOUNT_CHECK"); v != "" {
		cfg.Auth.AccountCheck = auth.AccountCheck(v)
	}
	if v := os.Getenv("CITYGATE_RATE_LIMIT_DEFAULT_RPM"); v != "" {
		rpm, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CITYGATE_RATE_LIMIT_DEFAULT_RPM: %w", err)
		}
		cfg.RateLimit.DefaultRPM = rpm
	}

	// CITYGATE_RATE_LIMIT_ROLES: JSON object of role name to rpm.
	if v := os.Getenv("CITYGATE_RATE_LIMIT_ROLES"); v != "" {
		roles, err := parseRoleLimitsJSON(v)
		if err != nil {
			return err
		}
		cfg.RateLimit.Roles = roles
	}
	return nil
}

// parseRoleLimitsJSON parses a JSON object of per-role request budgets.
func parseRoleLimitsJSON(jsonStr string) (map[string]int, error) {
	var roles map[string]int
	if err := json.Unmarshal([]byte(jsonStr), &roles); err != nil {
		return nil, fmt.Errorf("parsing rate limit roles JSON: %w", err)
	}
	return roles, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.secret_file -> auth.secret
	if cfg.Auth.SecretFile != "" && cfg.Auth.Secret == "" {
		val, err := readSecretFile(cfg.Auth.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.secret_file: %w", err)
		}
		cfg.Auth.Secret = val
	}

	// auth.public_key_file is read verbatim; PEM parsing happens in the verifier.
	if cfg.Auth.PublicKeyFile != "" {
		data, err := os.ReadFile(cfg.Auth.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("auth.public_key_file: %w", err)
		}
		cfg.Auth.PublicKeyPEM = data
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
