// Package memory provides an in-memory implementation of storage.Store
// for testing and lightweight deployments. Records are lost when the
// process restarts.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rhuss/citygate/pkg/api"
	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/debug"
	"github.com/rhuss/citygate/pkg/storage"
)

// leadEntry holds a stored lead and its deletion marker.
type leadEntry struct {
	lead      *api.Lead
	deletedAt *time.Time
}

// Store is an in-memory storage.Store.
type Store struct {
	mu       sync.RWMutex
	leads    map[string]*leadEntry
	accounts map[string]*auth.Account
	emails   map[string]string // lower-cased email -> account ID
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		leads:    make(map[string]*leadEntry),
		accounts: make(map[string]*auth.Account),
		emails:   make(map[string]string),
	}
}

// SaveLead stores a copy of lead.
func (s *Store) SaveLead(_ context.Context, lead *api.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leads[lead.ID]; exists {
		return storage.ErrConflict
	}
	s.leads[lead.ID] = &leadEntry{lead: cloneLead(lead)}
	return nil
}

// GetLead returns a lead by ID regardless of tenant.
func (s *Store) GetLead(_ context.Context, id string) (*api.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.leads[id]
	if !ok || e.deletedAt != nil {
		return nil, storage.ErrNotFound
	}
	return cloneLead(e.lead), nil
}

// ListLeads returns the leads visible in scope in ascending ID order.
func (s *Store) ListLeads(_ context.Context, scope auth.TenantScope, opts storage.ListOptions) (*api.LeadList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*api.Lead
	for _, e := range s.leads {
		if e.deletedAt != nil || !scope.Allows(e.lead.TenantID) {
			continue
		}
		if opts.After != "" && e.lead.ID <= opts.After {
			continue
		}
		matches = append(matches, e.lead)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})

	limit := opts.EffectiveLimit()
	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}

	page := make([]*api.Lead, len(matches))
	for i, l := range matches {
		page[i] = cloneLead(l)
	}
	debug.Log("storage", "listed leads", "count", len(page), "has_more", hasMore)
	return storage.NewLeadList(page, hasMore), nil
}

// DeleteLead soft-deletes a lead.
func (s *Store) DeleteLead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.leads[id]
	if !ok || e.deletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now()
	e.deletedAt = &now
	return nil
}

// SaveAccount stores a copy of acct. Emails are unique case-insensitively.
func (s *Store) SaveAccount(_ context.Context, acct *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(acct.Email)
	if _, exists := s.accounts[acct.ID]; exists {
		return storage.ErrConflict
	}
	if _, taken := s.emails[key]; taken {
		return storage.ErrConflict
	}

	s.accounts[acct.ID] = cloneAccount(acct)
	s.emails[key] = acct.ID
	return nil
}

// LookupAccount returns the account with the given ID.
func (s *Store) LookupAccount(_ context.Context, id string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	return cloneAccount(acct), nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func cloneLead(l *api.Lead) *api.Lead {
	c := *l
	if l.TenantID != nil {
		t := *l.TenantID
		c.TenantID = &t
	}
	return &c
}

func cloneAccount(a *auth.Account) *auth.Account {
	c := *a
	if a.TenantID != nil {
		t := *a.TenantID
		c.TenantID = &t
	}
	if a.LockedUntil != nil {
		u := *a.LockedUntil
		c.LockedUntil = &u
	}
	return &c
}
