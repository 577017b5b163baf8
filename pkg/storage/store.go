package storage

import (
	"context"

	"github.com/rhuss/citygate/pkg/api"
	"github.com/rhuss/citygate/pkg/auth"
)

// Pagination bounds for list operations.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions controls cursor pagination for list operations. Leads are
// returned in ascending ID order, which is creation order for ULID ids.
type ListOptions struct {
	After string // Cursor: return items with an ID greater than this one.
	Limit int    // Maximum number of items (default 20, max 100).
}

// EffectiveLimit clamps Limit into [1, MaxListLimit].
func (o ListOptions) EffectiveLimit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return o.Limit
	}
}

// LeadStore persists tenant-owned leads.
type LeadStore interface {
	// SaveLead inserts a new lead. Returns ErrConflict if the ID exists.
	SaveLead(ctx context.Context, lead *api.Lead) error

	// GetLead returns a lead by ID regardless of tenant. Returns ErrNotFound
	// if it does not exist or was deleted.
	GetLead(ctx context.Context, id string) (*api.Lead, error)

	// ListLeads returns the leads visible in scope, one page at a time.
	ListLeads(ctx context.Context, scope auth.TenantScope, opts ListOptions) (*api.LeadList, error)

	// DeleteLead soft-deletes a lead. Returns ErrNotFound if it does not
	// exist or was already deleted.
	DeleteLead(ctx context.Context, id string) error
}

// AccountStore persists accounts and serves live lookups for the resolver.
// LookupAccount returns auth.ErrAccountNotFound for unknown subjects.
type AccountStore interface {
	auth.AccountLookup

	// SaveAccount inserts a new account. Returns ErrConflict if the ID or
	// the case-insensitive email is taken.
	SaveAccount(ctx context.Context, acct *auth.Account) error
}

// Store is a complete storage backend.
type Store interface {
	LeadStore
	AccountStore

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}

// NewLeadList builds the list envelope for a page of leads.
func NewLeadList(page []*api.Lead, hasMore bool) *api.LeadList {
	if page == nil {
		page = []*api.Lead{}
	}
	list := &api.LeadList{
		Object:  "list",
		Data:    page,
		HasMore: hasMore,
	}
	if len(page) > 0 {
		list.FirstID = page[0].ID
		list.LastID = page[len(page)-1].ID
	}
	return list
}
