// Package store defines the narrow persistence contract the
// orchestrator requires from durable storage. The concrete PostgreSQL
// implementation lives in internal/platform/postgres; everything above
// this package depends only on the interfaces defined here.
package store
