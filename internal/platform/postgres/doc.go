// Package postgres implements the store interfaces against a
// PostgreSQL database accessed through database/sql with the pgx
// driver. Extraction results and error details are stored as JSONB.
package postgres
