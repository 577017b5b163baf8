// Package storage defines the persistence contracts for citygate and the
// types shared by its adapters (memory, postgres).
//
// Stores never decide visibility themselves. List operations take an
// [auth.TenantScope] computed by the authorization predicate, and single
// record reads are unscoped so the caller can tell "absent" from "owned by
// another tenant".
package storage
