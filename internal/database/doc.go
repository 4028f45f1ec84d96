// Package database handles the SQLite database connection and schema
// migration. Per-entity operations live in the repository subpackages
// (users, audit).
package database
