package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/debug"
)

// minSecretLength is the shortest accepted HMAC secret, in bytes.
const minSecretLength = 32

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	errs = append(errs, c.Auth.validate()...)
	errs = append(errs, c.validatePolicies()...)

	if c.RateLimit.DefaultRPM < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.default_rpm must be >= 0, got %d", c.RateLimit.DefaultRPM))
	}
	for name, rpm := range c.RateLimit.Roles {
		if _, err := auth.ParseRole(name); err != nil {
			errs = append(errs, fmt.Errorf("rate_limit.roles.%s: %w", name, err))
		}
		if rpm < 0 {
			errs = append(errs, fmt.Errorf("rate_limit.roles.%s must be >= 0, got %d", name, rpm))
		}
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	if !debug.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Log.Level))
	}
	if unknown := debug.UnknownCategories(c.Log.Debug); len(unknown) > 0 {
		errs = append(errs, fmt.Errorf("log.debug has unknown categories %v", unknown))
	}
	switch c.Log.Format {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) validate() []error {
	var errs []error

	hasSecret := a.Secret != "" || a.SecretFile != ""
	hasKey := a.PublicKeyFile != ""
	switch {
	case hasSecret && hasKey:
		errs = append(errs, fmt.Errorf("auth.secret and auth.public_key_file are mutually exclusive"))
	case !hasSecret && !hasKey:
		errs = append(errs, fmt.Errorf("auth.secret, auth.secret_file or auth.public_key_file is required"))
	case a.Secret != "" && len(a.Secret) < minSecretLength:
		errs = append(errs, fmt.Errorf("auth.secret must be at least %d bytes", minSecretLength))
	}

	switch a.AccountCheck {
	case auth.CheckSnapshot, auth.CheckLive:
	default:
		errs = append(errs, fmt.Errorf("auth.account_check must be %q or %q, got %q", auth.CheckSnapshot, auth.CheckLive, a.AccountCheck))
	}
	return errs
}

func (c *Config) validatePolicies() []error {
	var errs []error
	for _, op := range RequiredPolicies {
		if _, ok := c.Policies[op]; !ok {
			errs = append(errs, fmt.Errorf("policies.%s is required", op))
		}
	}
	for op, p := range c.Policies {
		for i, r := range p.Roles {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("policies.%s.roles[%d] is not a valid role", op, i))
			}
		}
		switch {
		case slices.Contains(RequiredPolicies, op) && p.TenantField != auth.TenantIDField:
			errs = append(errs, fmt.Errorf("policies.%s.tenant_field must be %q, leads are tenant-owned, got %q", op, auth.TenantIDField, p.TenantField))
		case p.TenantField != "" && p.TenantField != auth.TenantIDField:
			errs = append(errs, fmt.Errorf("policies.%s.tenant_field must be %q or empty, got %q", op, auth.TenantIDField, p.TenantField))
		}
	}
	return errs
}
