// Package api defines the wire types exchanged with citygate clients.
//
// It holds the JSON error envelope, the tenant-owned [Lead] resource and its
// list wrapper, request validation, and lead ID generation. The package
// performs no I/O and does not depend on the auth core; tenant ownership is
// expressed as a nullable tenant id so both layers agree on "global" records.
//
// Core types:
//   - [APIError]: Structured error with type, code, param, and message
//   - [Lead]: A CRM lead owned by one tenant (city) or global when TenantID is nil
//   - [LeadList]: Cursor-paginated list of leads
package api
