// Package models holds the GORM row types for the import pipeline and the
// directory tables it writes to. Domain types in internal/domain stay free of
// ORM tags; each model converts to and from its domain aggregate.
//
//   - base.go: columns shared by aggregate tables
//   - import.go: import_jobs and import_row_errors
//   - directory.go: enterprises, people and opportunities
package models
