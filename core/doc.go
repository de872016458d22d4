// Package core defines the domain model for the early fraud warning engine.
//
// The core package provides:
//   - The FraudWarning entity and its embedded value objects
//   - Typed enums for severity, investigation status, and decision actions
//   - The lifecycle state machine validating status transitions
//
// Warnings are owned exclusively by the storage layer; every FraudWarning
// that crosses a package boundary is a deep copy, so core types carry no
// locking. All timestamps are epoch milliseconds, matching the JSON wire
// contract the dashboard consumes.
package core
