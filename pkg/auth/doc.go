// Package auth is the authentication and tenant-scoped authorization core
// of citygate.
//
// A request flows through four pieces:
//
//  1. The [Gate] extracts the bearer token and hands it to a [Verifier],
//     which returns typed [Claims] or an InvalidToken/ExpiredToken error.
//  2. The [Resolver] turns claims into an immutable [AccessContext],
//     optionally re-reading the live account through an [AccountLookup].
//  3. The context travels in the request's context.Context and is read back
//     with [AccessFromContext], which returns an explicit [Optional].
//  4. [Authorize], [Scope] and [CheckWrite] evaluate a declarative [Policy]
//     (role allow-list plus tenant field) against the context.
//
// Roles form a closed set. The only property business logic may inspect is
// [Role.IsGlobal]; global roles see every tenant, tenant-scoped roles see
// their own tenant plus global (null-tenant) records.
//
// Failures are [*Error] values carrying a [Kind]. Authentication kinds map to
// HTTP 401 and authorization kinds to 403.
package auth
