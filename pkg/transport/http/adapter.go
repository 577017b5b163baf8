package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rhuss/citygate/pkg/api"
	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/debug"
	"github.com/rhuss/citygate/pkg/storage"
	"github.com/rhuss/citygate/pkg/transport"
)

// Policies holds the declared policy of each lead operation. Only the role
// allow-lists are read: leads always carry a tenant, so every lead route is
// tenant-scoped whatever the policy's TenantField says.
type Policies struct {
	List   auth.Policy
	Read   auth.Policy
	Create auth.Policy
	Delete auth.Policy
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	Policies    Policies
	Validation  api.ValidationConfig

	// Limiter throttles authenticated requests. Nil disables rate limiting.
	Limiter auth.RateLimiter

	// Now is the clock used for created_at. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
		Validation:  api.DefaultValidationConfig(),
	}
}

// Adapter serves the lead API over HTTP. Every lead route runs behind the
// mandatory gate, the rate limiter and the operation's declared policy;
// /v1/me runs behind the optional gate.
type Adapter struct {
	store  storage.LeadStore
	gate   *auth.Gate
	mux    *http.ServeMux
	config Config
}

// NewAdapter creates an HTTP adapter serving store through gate.
func NewAdapter(store storage.LeadStore, gate *auth.Gate, cfg Config) *Adapter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		store:  store,
		gate:   gate,
		mux:    http.NewServeMux(),
		config: cfg,
	}

	a.mux.Handle("GET /v1/me", gate.Allow()(http.HandlerFunc(a.handleMe)))
	a.mux.Handle("GET /v1/leads", a.protect(cfg.Policies.List, a.handleListLeads))
	a.mux.Handle("GET /v1/leads/{id}", a.protect(cfg.Policies.Read, a.handleGetLead))
	a.mux.Handle("POST /v1/leads", a.protect(cfg.Policies.Create, a.handleCreateLead))
	a.mux.Handle("DELETE /v1/leads/{id}", a.protect(cfg.Policies.Delete, a.handleDeleteLead))

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// Mux exposes the underlying ServeMux so the server can mount health and
// metrics endpoints next to the API.
func (a *Adapter) Mux() *http.ServeMux {
	return a.mux
}

// protect wraps h with the mandatory gate, the rate limiter and the role
// step of p.
func (a *Adapter) protect(p auth.Policy, h http.HandlerFunc) http.Handler {
	return transport.Chain(
		a.gate.Require(),
		auth.RateLimit(a.config.Limiter),
		auth.RequirePolicy(p),
	)(h)
}

// handleMe handles GET /v1/me.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	me := api.Me{}
	if ac, ok := auth.AccessFromContext(r.Context()).Get(); ok {
		me = api.Me{
			Authenticated: true,
			Subject:       ac.Subject(),
			Email:         ac.Email(),
			Role:          ac.Role().String(),
			TenantID:      ac.TenantPtr(),
			Global:        ac.IsGlobalRole(),
		}
	}
	transport.WriteJSON(w, http.StatusOK, me)
}

// handleListLeads handles GET /v1/leads.
func (a *Adapter) handleListLeads(w http.ResponseWriter, r *http.Request) {
	ac, ok := a.access(w, r)
	if !ok {
		return
	}

	opts, filter, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	list, err := a.store.ListLeads(r.Context(), auth.Scope(ac, filter), opts)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	transport.WriteJSON(w, http.StatusOK, list)
}

// handleGetLead handles GET /v1/leads/{id}. A lead outside the caller's
// scope answers 404 so its existence is not disclosed.
func (a *Adapter) handleGetLead(w http.ResponseWriter, r *http.Request) {
	ac, ok := a.access(w, r)
	if !ok {
		return
	}

	id, ok := leadID(w, r)
	if !ok {
		return
	}

	lead, err := a.store.GetLead(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, id)
		return
	}

	if !auth.Scope(ac, nil).Allows(lead.TenantID) {
		debug.Log("auth", "lead outside caller scope", "lead", id, "subject", ac.Subject())
		transport.WriteAPIError(w, api.NewNotFoundError("lead "+id+" not found"))
		return
	}

	transport.WriteJSON(w, http.StatusOK, lead)
}

// handleCreateLead handles POST /v1/leads. A tenant-scoped caller that
// omits tenant_id creates the lead in its own tenant.
func (a *Adapter) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	ac, ok := a.access(w, r)
	if !ok {
		return
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return
	}

	if apiErr := api.ValidateCreateLead(&req, a.config.Validation); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	tenant := req.TenantID
	if tenant == nil && !ac.IsGlobalRole() {
		tenant = ac.TenantPtr()
	}

	if d := auth.CheckWrite(ac, tenant); !d.Allowed() {
		auth.RecordDenial(r, d)
		auth.WriteError(w, d.Err())
		return
	}

	lead := &api.Lead{
		ID:        api.NewLeadID(),
		Object:    "lead",
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		TenantID:  tenant,
		CreatedBy: ac.Subject(),
		CreatedAt: a.config.Now().Unix(),
	}

	if err := a.store.SaveLead(r.Context(), lead); err != nil {
		writeStoreError(w, err, lead.ID)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, lead)
}

// handleDeleteLead handles DELETE /v1/leads/{id}. Deleting another
// tenant's lead is a TenantMismatch denial.
func (a *Adapter) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	ac, ok := a.access(w, r)
	if !ok {
		return
	}

	id, ok := leadID(w, r)
	if !ok {
		return
	}

	lead, err := a.store.GetLead(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, id)
		return
	}

	if d := auth.CheckWrite(ac, lead.TenantID); !d.Allowed() {
		auth.RecordDenial(r, d)
		auth.WriteError(w, d.Err())
		return
	}

	if err := a.store.DeleteLead(r.Context(), id); err != nil {
		writeStoreError(w, err, id)
		return
	}

	slog.Info("lead deleted", "lead", id, "subject", ac.Subject())
	transport.WriteJSON(w, http.StatusOK, api.DeletedLead{ID: id, Object: "lead.deleted", Deleted: true})
}

// access returns the context attached by the gate. Handlers only run
// behind Gate.Require, so a missing context is a wiring error.
func (a *Adapter) access(w http.ResponseWriter, r *http.Request) (auth.AccessContext, bool) {
	ac, ok := auth.AccessFromContext(r.Context()).Get()
	if !ok {
		auth.WriteError(w, auth.ErrMissingCredentials)
	}
	return ac, ok
}

// leadID extracts and validates the {id} path value.
func leadID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !api.ValidateLeadID(id) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed lead ID"))
		return "", false
	}
	return id, true
}

// parseListOptions extracts pagination and the tenant filter from the
// query string.
func parseListOptions(r *http.Request) (storage.ListOptions, *string, *api.APIError) {
	q := r.URL.Query()
	opts := storage.ListOptions{After: q.Get("after")}

	if opts.After != "" && !api.ValidateLeadID(opts.After) {
		return opts, nil, api.NewInvalidRequestError("after", "malformed lead ID")
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > storage.MaxListLimit {
			return opts, nil, api.NewInvalidRequestError("limit",
				fmt.Sprintf("limit must be an integer between 1 and %d", storage.MaxListLimit))
		}
		opts.Limit = limit
	}

	var filter *string
	if q.Has("tenant_id") {
		tenant := q.Get("tenant_id")
		if tenant == "" {
			return opts, nil, api.NewInvalidRequestError("tenant_id", "tenant_id must not be empty")
		}
		filter = &tenant
	}

	return opts, filter, nil
}

// writeStoreError maps storage errors to API errors. Internal details are
// logged, not returned.
func writeStoreError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		transport.WriteAPIError(w, api.NewNotFoundError("lead "+id+" not found"))
	case errors.Is(err, storage.ErrConflict):
		transport.WriteAPIError(w, api.NewConflictError("lead "+id+" already exists"))
	default:
		slog.Error("storage error", "error", err)
		transport.WriteAPIError(w, api.NewServerError("internal storage error"))
	}
}
