// Package audit writes the append-only trail of authorization-relevant
// mutations. Entries are immutable once written: this package exposes no
// update or delete, and storage is expected to mirror that.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/rbac"
	utils "vinesight-backend/shared/utils/auth"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action is an entry's action label. The vocabulary is wider than the
// four gating permissions: export, invite, remove and view are recorded
// but never consulted by the decision engine.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionInvite Action = "invite"
	ActionRemove Action = "remove"
	ActionView   Action = "view"
)

// Valid reports whether the action is part of the recognized vocabulary.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionExport,
		ActionInvite, ActionRemove, ActionView:
		return true
	}
	return false
}

// Validation errors. These are programming errors at the call site, not
// runtime conditions to route around.
var (
	ErrMissingOrganization = errors.New("audit: organization id is required")
	ErrMissingResourceType = errors.New("audit: resource type is required and must be known")
	ErrMissingResourceID   = errors.New("audit: resource id is required")
	ErrUnknownAction       = errors.New("audit: unrecognized action")
	ErrMissingSnapshots    = errors.New("audit: update entries require both old and new values")
	ErrNoActor             = errors.New("audit: no authenticated actor in context")
)

// Entry describes one mutation to record. The actor is deliberately
// absent: it is taken from the session context so attribution cannot be
// spoofed by a caller.
type Entry struct {
	OrganizationID uuid.UUID
	Action         Action
	ResourceType   rbac.Resource
	ResourceID     string
	OldValues      interface{}
	NewValues      interface{}
	Metadata       map[string]interface{}
}

// Recorder persists audit entries. A failed write propagates to the
// caller: an unrecorded privileged action is itself a security gap, so
// logging is not fire-and-forget here.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder builds a Recorder over the shared database handle.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Log validates and appends one entry, returning the new row's id.
// Nothing is written when validation fails; there are no partial entries.
func (r *Recorder) Log(ctx context.Context, entry Entry) (uuid.UUID, error) {
	actorID, ok := utils.ActorFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrNoActor
	}
	if entry.OrganizationID == uuid.Nil {
		return uuid.Nil, ErrMissingOrganization
	}
	if !entry.Action.Valid() {
		return uuid.Nil, ErrUnknownAction
	}
	if !entry.ResourceType.Valid() {
		return uuid.Nil, ErrMissingResourceType
	}
	if entry.ResourceID == "" {
		return uuid.Nil, ErrMissingResourceID
	}
	if entry.Action == ActionUpdate && (entry.OldValues == nil || entry.NewValues == nil) {
		return uuid.Nil, ErrMissingSnapshots
	}

	oldValues, err := marshalSnapshot(entry.OldValues)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit: encode old values: %w", err)
	}
	newValues, err := marshalSnapshot(entry.NewValues)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit: encode new values: %w", err)
	}
	var metadata datatypes.JSON
	if entry.Metadata != nil {
		metadata, err = marshalSnapshot(entry.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("audit: encode metadata: %w", err)
		}
	}

	row := models.AuditLog{
		OrganizationID: entry.OrganizationID,
		ActorID:        actorID,
		Action:         string(entry.Action),
		ResourceType:   string(entry.ResourceType),
		ResourceID:     entry.ResourceID,
		OldValues:      oldValues,
		NewValues:      newValues,
		Metadata:       metadata,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, fmt.Errorf("audit: write entry: %w", err)
	}
	return row.ID, nil
}

// LogCreate records a creation with the created state.
func (r *Recorder) LogCreate(ctx context.Context, orgID uuid.UUID, resource rbac.Resource, resourceID string, newValues interface{}) (uuid.UUID, error) {
	return r.Log(ctx, Entry{
		OrganizationID: orgID,
		Action:         ActionCreate,
		ResourceType:   resource,
		ResourceID:     resourceID,
		NewValues:      newValues,
	})
}

// LogUpdate records both snapshots verbatim; it never computes a diff.
func (r *Recorder) LogUpdate(ctx context.Context, orgID uuid.UUID, resource rbac.Resource, resourceID string, oldValues, newValues interface{}) (uuid.UUID, error) {
	return r.Log(ctx, Entry{
		OrganizationID: orgID,
		Action:         ActionUpdate,
		ResourceType:   resource,
		ResourceID:     resourceID,
		OldValues:      oldValues,
		NewValues:      newValues,
	})
}

// LogDelete records a deletion with the removed state.
func (r *Recorder) LogDelete(ctx context.Context, orgID uuid.UUID, resource rbac.Resource, resourceID string, oldValues interface{}) (uuid.UUID, error) {
	return r.Log(ctx, Entry{
		OrganizationID: orgID,
		Action:         ActionDelete,
		ResourceType:   resource,
		ResourceID:     resourceID,
		OldValues:      oldValues,
	})
}

// LogExport records a data export with export parameters as metadata.
func (r *Recorder) LogExport(ctx context.Context, orgID uuid.UUID, resource rbac.Resource, resourceID string, metadata map[string]interface{}) (uuid.UUID, error) {
	return r.Log(ctx, Entry{
		OrganizationID: orgID,
		Action:         ActionExport,
		ResourceType:   resource,
		ResourceID:     resourceID,
		Metadata:       metadata,
	})
}

// LogInvite records a member being invited into an organization.
func (r *Recorder) LogInvite(ctx context.Context, orgID uuid.UUID, resourceID string, newValues interface{}) (uuid.UUID, error) {
	return r.Log(ctx, Entry{
		OrganizationID: orgID,
		Action:         ActionInvite,
		ResourceType:   rbac.ResourceUsers,
		ResourceID:     resourceID,
		NewValues:      newValues,
	})
}

// LogRemove records a member being removed (soft-deleted) from an
// organization.
func (r *Recorder) LogRemove(ctx context.Context, orgID uuid.UUID, resourceID string, oldValues interface{}) (uuid.UUID, error) {
	return r.Log(ctx, Entry{
		OrganizationID: orgID,
		Action:         ActionRemove,
		ResourceType:   rbac.ResourceUsers,
		ResourceID:     resourceID,
		OldValues:      oldValues,
	})
}

func marshalSnapshot(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
