// Package config provides PostgreSQL database configuration for lending store testing.
//
// This package contains factory functions for creating database connections
// using the store's supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB)
// with a pre-configured test database DSN.
package config
