package api

// Lead is a tenant-owned CRM record. A nil TenantID marks a global lead
// that every tenant can see.
type Lead struct {
	ID        string  `json:"id"`
	Object    string  `json:"object"` // always "lead"
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	TenantID  *string `json:"tenant_id"`
	CreatedBy string  `json:"created_by"`
	CreatedAt int64   `json:"created_at"`
}

// CreateLeadRequest is the body of POST /v1/leads. TenantID defaults to the
// caller's tenant when omitted.
type CreateLeadRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	TenantID *string `json:"tenant_id,omitempty"`
}

// LeadList holds a paginated list of leads.
type LeadList struct {
	Object  string  `json:"object"`
	Data    []*Lead `json:"data"`
	HasMore bool    `json:"has_more"`
	FirstID string  `json:"first_id"`
	LastID  string  `json:"last_id"`
}

// DeletedLead is returned by DELETE /v1/leads/{id}.
type DeletedLead struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// Me is returned by GET /v1/me. Identity fields are empty when the caller
// is anonymous.
type Me struct {
	Authenticated bool    `json:"authenticated"`
	Subject       string  `json:"subject,omitempty"`
	Email         string  `json:"email,omitempty"`
	Role          string  `json:"role,omitempty"`
	TenantID      *string `json:"tenant_id,omitempty"`
	Global        bool    `json:"global,omitempty"`
}
