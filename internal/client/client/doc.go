// Package client contains the client-side view of the Framez backend.
//
// # Overview
//
// The package provides:
//  1. The account API (Client) and the content store contract
//     (ContentStore, Subscription) the core modules are written against.
//  2. A gRPC implementation (GRPCClient) that injects the session's access
//     token into every call and maps gRPC status codes to the sentinel
//     errors in internal/common.
//  3. An in-process implementation (MemoryStore) used by tests and by the
//     offline demo backend of the CLI.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Callers match errors with errors.Is against common.ErrAuthorization,
// common.ErrUnauthenticated, common.ErrUnavailable, common.ErrNotFound,
// common.ErrInvalidContent and common.ErrStore.
package client
