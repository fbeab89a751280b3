// Package policy implements the authorization rules applied to every
// mutating operation. All checks are pure functions over the caller identity
// so they can be tested without a database.
package policy

import "errors"

// ErrForbidden is returned for any write the caller is not allowed to make.
// Anonymous writes get the same error; the boundary maps both to 403.
var ErrForbidden = errors.New("you do not have permission to perform this action")

// Identity describes the caller of an operation. A nil *Identity is an
// anonymous caller.
type Identity struct {
	UserID      uint
	Username    string
	IsSuperuser bool
}

// Operation is the kind of access being attempted
type Operation int

const (
	Read Operation = iota
	Write
)

// OwnerOrAdminOrReadOnly permits reads for everyone and writes for the
// resource owner or a superuser.
func OwnerOrAdminOrReadOnly(caller *Identity, op Operation, ownerID uint) error {
	if op == Read {
		return nil
	}
	if caller == nil {
		return ErrForbidden
	}
	if caller.IsSuperuser || caller.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}

// AdminOrReadOnly permits reads for everyone and writes for superusers only
func AdminOrReadOnly(caller *Identity, op Operation) error {
	if op == Read {
		return nil
	}
	if caller == nil || !caller.IsSuperuser {
		return ErrForbidden
	}
	return nil
}

// OwnerOrReadOnly permits reads for everyone and writes for the resource
// owner only. There is no admin override.
func OwnerOrReadOnly(caller *Identity, op Operation, ownerID uint) error {
	if op == Read {
		return nil
	}
	if caller == nil || caller.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}

// AuthenticatedOrReadOnly is the creation gate: anyone may read, creating
// requires an authenticated caller. The caller becomes the new record's
// owner regardless of the input payload.
func AuthenticatedOrReadOnly(caller *Identity, op Operation) error {
	if op == Read {
		return nil
	}
	if caller == nil {
		return ErrForbidden
	}
	return nil
}
