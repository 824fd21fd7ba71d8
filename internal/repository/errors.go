// Package repository implements persistence for account records on top of
// database/sql.  Sentinel errors defined here let the service layer
// distinguish failure scenarios without inspecting driver internals.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index. The service reports this as a duplicate registration.
var ErrEmailExists = errors.New("email already registered")

// ErrNotFound is returned when a lookup matches no account row.
var ErrNotFound = errors.New("account not found")
