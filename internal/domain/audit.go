package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of entity an audit record refers to.
type EntityType string

const (
	EntityTypeState      EntityType = "desk_state"
	EntityTypeTransition EntityType = "state_transition"
	EntityTypeDesk       EntityType = "desk"
)

// AuditAction identifies the mutation recorded by an audit record.
type AuditAction string

const (
	AuditActionCreate     AuditAction = "create"
	AuditActionUpdate     AuditAction = "update"
	AuditActionDelete     AuditAction = "delete"
	AuditActionReorder    AuditAction = "reorder"
	AuditActionSetInitial AuditAction = "set_initial"
	AuditActionSeed       AuditAction = "seed"
	AuditActionMigrate    AuditAction = "migrate"
)

// AuditRecord logs a workflow-configuration change within one desk.
type AuditRecord struct {
	ID         uuid.UUID
	DeskID     uuid.UUID
	UserID     *uuid.UUID
	EntityType EntityType
	EntityID   *uuid.UUID
	Action     AuditAction
	Changes    map[string]any
	CreatedAt  time.Time
}
