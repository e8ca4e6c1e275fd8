// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., relational) inside this directory.
//
// Lookups of absent rows return sql.ErrNoRows unchanged; inserts that collide
// with a unique key return ErrDuplicate.
package repository

import "errors"

// ErrDuplicate reports a unique constraint violation on insert.
var ErrDuplicate = errors.New("duplicate key")
