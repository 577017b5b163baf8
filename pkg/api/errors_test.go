package api

import (
	"encoding/json"
	"testing"
)

func TestAPIErrorInterface(t *testing.T) {
	var _ error = &APIError{}
}

func TestAPIErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with param",
			&APIError{Type: ErrorTypeInvalidRequest, Param: "name", Message: "is required"},
			"invalid_request: is required (param: name)",
		},
		{
			"without param",
			&APIError{Type: ErrorTypeServerError, Message: "internal failure"},
			"server_error: internal failure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		wantType ErrorType
		wantCode string
	}{
		{"invalid request", NewInvalidRequestError("name", "is required"), ErrorTypeInvalidRequest, ""},
		{"not found", NewNotFoundError("lead not found"), ErrorTypeNotFound, ""},
		{"unauthorized", NewUnauthorizedError("expired_token", "token expired"), ErrorTypeUnauthorized, "expired_token"},
		{"forbidden", NewForbiddenError("tenant_mismatch", "tenant mismatch"), ErrorTypeForbidden, "tenant_mismatch"},
		{"conflict", NewConflictError("lead exists"), ErrorTypeConflict, ""},
		{"server error", NewServerError("internal failure"), ErrorTypeServerError, ""},
		{"too many requests", NewTooManyRequestsError("rate limit exceeded"), ErrorTypeTooManyRequests, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.err.Type, tt.wantType)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(ErrorResponse{Error: NewForbiddenError("role_not_permitted", "role not permitted")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"error":{"type":"forbidden","code":"role_not_permitted","message":"role not permitted"}}`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}
}
