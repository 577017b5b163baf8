package api

import (
	"fmt"
	"strings"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxNameLength  int
	MaxEmailLength int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxNameLength:  256,
		MaxEmailLength: 320,
	}
}

// ValidateCreateLead checks a CreateLeadRequest for validity. It returns an
// *APIError describing the first validation failure, or nil if the request is valid.
func ValidateCreateLead(req *CreateLeadRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Name) == "" {
		return NewInvalidRequestError("name", "name is required")
	}

	if cfg.MaxNameLength > 0 && len(req.Name) > cfg.MaxNameLength {
		return NewInvalidRequestError("name",
			fmt.Sprintf("name exceeds maximum of %d characters", cfg.MaxNameLength))
	}

	if req.Email != "" {
		if cfg.MaxEmailLength > 0 && len(req.Email) > cfg.MaxEmailLength {
			return NewInvalidRequestError("email",
				fmt.Sprintf("email exceeds maximum of %d characters", cfg.MaxEmailLength))
		}
		if !strings.Contains(req.Email, "@") {
			return NewInvalidRequestError("email", "email must contain '@'")
		}
	}

	if req.TenantID != nil && strings.TrimSpace(*req.TenantID) == "" {
		return NewInvalidRequestError("tenant_id", "tenant_id must not be empty; omit it or use null")
	}

	return nil
}
