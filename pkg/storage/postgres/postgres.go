// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling. Tenant scoping is translated into
// SQL predicates so lists never load out-of-scope rows.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/citygate/pkg/api"
	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/debug"
	"github.com/rhuss/citygate/pkg/storage"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveLead inserts a lead.
func (s *Store) SaveLead(ctx context.Context, lead *api.Lead) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (id, name, email, phone, tenant_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.TenantID, lead.CreatedBy, lead.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting lead: %w", err)
	}
	return nil
}

// GetLead retrieves a lead by ID, excluding soft-deleted leads.
func (s *Store) GetLead(ctx context.Context, id string) (*api.Lead, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, tenant_id, created_by, created_at
		FROM leads
		WHERE id = $1 AND deleted_at IS NULL
	`, id)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns the leads visible in scope in ascending ID order.
func (s *Store) ListLeads(ctx context.Context, scope auth.TenantScope, opts storage.ListOptions) (*api.LeadList, error) {
	query := `
		SELECT id, name, email, phone, tenant_id, created_by, created_at
		FROM leads
		WHERE deleted_at IS NULL`
	var args []any

	clause, scopeArgs := scopeClause(scope, len(args)+1)
	if clause != "" {
		query += " AND " + clause
		args = append(args, scopeArgs...)
	}

	if opts.After != "" {
		args = append(args, opts.After)
		query += fmt.Sprintf(" AND id > $%d", len(args))
	}

	// Fetch one extra row to detect has_more.
	limit := opts.EffectiveLimit()
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d", len(args))

	debug.Log("storage", "listing leads", "scope", clause, "after", opts.After, "limit", limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	leads, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*api.Lead, error) {
		return scanLead(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning leads: %w", err)
	}

	hasMore := len(leads) > limit
	if hasMore {
		leads = leads[:limit]
	}
	return storage.NewLeadList(leads, hasMore), nil
}

// DeleteLead soft-deletes a lead by setting deleted_at.
func (s *Store) DeleteLead(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx,
		"UPDATE leads SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SaveAccount inserts an account. The unique index on lower(email) makes
// email uniqueness case-insensitive.
func (s *Store) SaveAccount(ctx context.Context, acct *auth.Account) error {
	createdAt := acct.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, password_hash, role, status,
			failed_logins, locked_until, tenant_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		acct.ID, acct.Email, acct.PasswordHash, acct.Role.String(), string(acct.Status),
		acct.FailedLogins, acct.LockedUntil, acct.TenantID, createdAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// LookupAccount returns the account with the given ID.
func (s *Store) LookupAccount(ctx context.Context, id string) (*auth.Account, error) {
	var (
		acct   auth.Account
		role   string
		status string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, status,
		       failed_logins, locked_until, tenant_id, created_at
		FROM accounts
		WHERE id = $1
	`, id).Scan(
		&acct.ID, &acct.Email, &acct.PasswordHash, &role, &status,
		&acct.FailedLogins, &acct.LockedUntil, &acct.TenantID, &acct.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	if acct.Role, err = auth.ParseRole(role); err != nil {
		return nil, fmt.Errorf("account %s: %w", id, err)
	}
	if acct.Status, err = auth.ParseAccountStatus(status); err != nil {
		return nil, fmt.Errorf("account %s: %w", id, err)
	}
	return &acct, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scopeClause translates a tenant scope into a WHERE predicate whose
// placeholders start at $next. An unrestricted scope yields no predicate.
func scopeClause(scope auth.TenantScope, next int) (string, []any) {
	if scope.Unrestricted() {
		return "", nil
	}

	tenant, hasTenant := scope.Tenant()
	switch {
	case hasTenant && scope.IncludesGlobal():
		return fmt.Sprintf("(tenant_id = $%d OR tenant_id IS NULL)", next), []any{tenant}
	case hasTenant:
		return fmt.Sprintf("tenant_id = $%d", next), []any{tenant}
	case scope.IncludesGlobal():
		return "tenant_id IS NULL", nil
	default:
		return "FALSE", nil
	}
}

func scanLead(row pgx.Row) (*api.Lead, error) {
	var lead api.Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.TenantID, &lead.CreatedBy, &lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Object = "lead"
	return &lead, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), uniqueViolation)
}
