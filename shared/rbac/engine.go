// Package rbac decides, for a given actor, organization and farm, whether
// a requested action is permitted. It is a pure decision library: callers
// act on the boolean, the audit recorder writes down what they did.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNilStore is returned by New when constructed without a store.
var ErrNilStore = errors.New("rbac: store is required")

// Engine composes the permission table, the membership resolver and the
// farm access evaluator behind a single decision function.
type Engine struct {
	store Store
}

// New builds an Engine. The permission matrix is validated here so an
// incomplete table kills the process at startup instead of silently
// denying (or worse, granting) at decision time.
func New(store Store) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := ValidateMatrix(); err != nil {
		return nil, err
	}
	return &Engine{store: store}, nil
}

// ResolveMembership returns the actor's active membership in the
// organization, or nil when there is none. Soft-deleted rows and rows
// carrying a role outside the enumeration both resolve to nil: either way
// the actor has no access. Only a store failure is an error.
func (e *Engine) ResolveMembership(ctx context.Context, userID, organizationID uuid.UUID) (*Membership, error) {
	row, err := e.store.GetMembership(ctx, userID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve membership: %w", err)
	}
	if row == nil || row.Deleted {
		return nil, nil
	}
	role, err := ParseRole(row.Role)
	if err != nil {
		return nil, nil
	}
	return &Membership{
		UserID:          row.UserID,
		OrganizationID:  row.OrganizationID,
		Role:            role,
		AssignedFarmIDs: row.AssignedFarmIDs,
	}, nil
}

// HasPermission is the sole decision contract other subsystems call.
//
// The result is false for any malformed input. When farmID is set, farm
// access is a prerequisite gate: a denied farm means a denied decision no
// matter what the role's matrix row says. An individually-owned farm
// short-circuits to full rights for its owner before any organization
// logic runs. A store failure comes back as an error, never as a
// decision; callers fail closed but may log the difference.
func (e *Engine) HasPermission(ctx context.Context, actorID, organizationID uuid.UUID, resource Resource, permission Permission, farmID *uuid.UUID) (bool, error) {
	if actorID == uuid.Nil || !resource.Valid() || !permission.Valid() {
		return false, nil
	}

	if farmID != nil {
		farm, err := e.store.GetFarm(ctx, *farmID)
		if err != nil {
			return false, fmt.Errorf("rbac: %w", err)
		}
		if farm == nil {
			return false, nil
		}

		// Individual-owner bypass: a farm with no organization grants its
		// owner everything, and everyone else nothing.
		if farm.OrganizationID == nil {
			return farm.OwnerID == actorID, nil
		}

		membership, err := e.ResolveMembership(ctx, actorID, organizationID)
		if err != nil {
			return false, err
		}
		if membership == nil {
			return false, nil
		}
		if !CanAccessFarm(membership, farm) {
			return false, nil
		}
		return Lookup(membership.Role, resource, permission), nil
	}

	membership, err := e.ResolveMembership(ctx, actorID, organizationID)
	if err != nil {
		return false, err
	}
	if membership == nil {
		return false, nil
	}
	return Lookup(membership.Role, resource, permission), nil
}
