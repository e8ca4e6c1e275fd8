// Package policy decides whether a caller may perform an operation. It is
// pure: no I/O, no logging, the same inputs always give the same answer.
package policy

import (
	"fmt"

	"fileshare/internal/model"
)

// Operation names a guarded action.
type Operation string

const (
	OpRegister     Operation = "register"
	OpLogin        Operation = "login"
	OpUpload       Operation = "upload"
	OpListAll      Operation = "list_all"
	OpListGranted  Operation = "list_granted"
	OpUpdateAccess Operation = "update_access"
	OpDownload     Operation = "download"
	OpDelete       Operation = "delete"
)

// Deny reasons.
const (
	ReasonAuthenticationRequired = "authentication_required"
	ReasonAdminRequired          = "admin_required"
	ReasonAccessNotGranted       = "access_not_granted"
)

// DeniedError is returned when the policy rejects an operation.
type DeniedError struct {
	Op     Operation
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Op, e.Reason)
}

// Scope is the set of files a listing may return.
type Scope int

const (
	ScopeGrantedOnly Scope = iota
	ScopeAll
)

func (s Scope) String() string {
	if s == ScopeAll {
		return "all"
	}
	return "granted_only"
}

// Authorize returns nil when user may perform op on target, or a
// *DeniedError. A nil user is anonymous. target is only consulted for
// downloads; a nil target is never downloadable by a non-admin.
func Authorize(user *model.User, op Operation, target *model.File) error {
	switch op {
	case OpRegister, OpLogin:
		return nil
	}

	if user == nil {
		return &DeniedError{Op: op, Reason: ReasonAuthenticationRequired}
	}

	switch op {
	case OpUpload, OpListAll, OpUpdateAccess, OpDelete:
		if !user.IsAdmin {
			return &DeniedError{Op: op, Reason: ReasonAdminRequired}
		}
		return nil
	case OpDownload:
		if user.IsAdmin || (target != nil && target.AccessGranted) {
			return nil
		}
		return &DeniedError{Op: op, Reason: ReasonAccessNotGranted}
	case OpListGranted:
		return nil
	}

	return &DeniedError{Op: op, Reason: ReasonAdminRequired}
}

// ListScope picks the listing scope for user: everything for admins,
// granted files for everyone else.
func ListScope(user *model.User) Scope {
	if user != nil && user.IsAdmin {
		return ScopeAll
	}
	return ScopeGrantedOnly
}

// Operation returns the operation that authorizes a listing of scope s.
func (s Scope) Operation() Operation {
	if s == ScopeAll {
		return OpListAll
	}
	return OpListGranted
}
