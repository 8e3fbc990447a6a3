package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Presentation defaults applied when a state is created without them.
const (
	DefaultStateColor = "#6B7280"
	DefaultStateIcon  = "tag"
)

// DeskState is a named lead-lifecycle stage within one desk.
// Name is unique per desk; SortOrder drives display and matrix ordering.
type DeskState struct {
	ID          uuid.UUID
	DeskID      uuid.UUID
	Name        string
	DisplayName string
	Description *string
	Color       string
	Icon        string
	IsInitial   bool
	IsFinal     bool
	IsActive    bool
	SortOrder   int
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StateUpdateParams is a partial patch for a desk state.
// nil means "leave unchanged"; for Description, ptr("") clears the value.
type StateUpdateParams struct {
	Name        *string
	DisplayName *string
	Description *string
	Color       *string
	Icon        *string
	IsInitial   *bool
	IsFinal     *bool
	IsActive    *bool
	SortOrder   *int
}

// Empty reports whether the patch carries no recognized field.
func (p StateUpdateParams) Empty() bool {
	return p.Name == nil && p.DisplayName == nil && p.Description == nil &&
		p.Color == nil && p.Icon == nil && p.IsInitial == nil &&
		p.IsFinal == nil && p.IsActive == nil && p.SortOrder == nil
}

// StateTransition is a permitted directed edge between two desk states.
// A nil FromStateID is a wildcard: the transition applies from every
// active state in the desk.
//
// Conditions, RequiredPermission and NotificationTemplate are opaque to
// this subsystem; they are stored and returned as-is for the caller.
type StateTransition struct {
	ID                   uuid.UUID
	DeskID               uuid.UUID
	FromStateID          *uuid.UUID
	ToStateID            uuid.UUID
	IsAutomatic          bool
	Conditions           json.RawMessage
	RequiredPermission   *string
	NotificationTemplate *string
	IsActive             bool
	CreatedBy            *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsGlobal reports whether the transition applies from any state.
func (t StateTransition) IsGlobal() bool { return t.FromStateID == nil }

// TransitionUpdateParams is a partial patch for a transition.
// nil means "leave unchanged".
type TransitionUpdateParams struct {
	IsAutomatic          *bool
	Conditions           *json.RawMessage
	RequiredPermission   *string
	NotificationTemplate *string
	IsActive             *bool
}

// Empty reports whether the patch carries no recognized field.
func (p TransitionUpdateParams) Empty() bool {
	return p.IsAutomatic == nil && p.Conditions == nil &&
		p.RequiredPermission == nil && p.NotificationTemplate == nil &&
		p.IsActive == nil
}

// StateRef is the display metadata of a transition endpoint.
type StateRef struct {
	ID          uuid.UUID
	Name        string
	DisplayName string
	Color       string
	SortOrder   int
}

// TransitionView is a transition joined with endpoint display metadata.
// FromState is nil for wildcard transitions.
type TransitionView struct {
	StateTransition
	FromState *StateRef
	ToState   StateRef
}

// TransitionMatrix is the visualization shape of a desk's workflow:
// active states in display order, a square permission map keyed by
// (from, to) state ids, and the raw active transitions.
type TransitionMatrix struct {
	States      []DeskState
	Allowed     map[uuid.UUID]map[uuid.UUID]bool
	Transitions []StateTransition
}

// Permitted reports whether the matrix allows moving from one state to another.
func (m TransitionMatrix) Permitted(from, to uuid.UUID) bool {
	row, ok := m.Allowed[from]
	return ok && row[to]
}
