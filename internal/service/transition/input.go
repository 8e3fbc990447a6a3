package transition

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

const (
	maxPermissionLen = 100
	maxTemplateLen   = 100
	maxConditionsLen = 10_000
)

// CreateInput holds the parameters for creating a transition rule.
// A nil FromStateID creates a wildcard transition.
type CreateInput struct {
	DeskID               uuid.UUID
	FromStateID          *uuid.UUID
	ToStateID            uuid.UUID
	IsAutomatic          bool
	IsActive             *bool
	Conditions           json.RawMessage
	RequiredPermission   *string
	NotificationTemplate *string
}

// Validate checks all fields and collects all errors.
func (i *CreateInput) Validate() error {
	var errs []domain.FieldError

	if i.DeskID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "desk_id", Message: "required"})
	}
	if i.ToStateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "to_state_id", Message: "required"})
	}
	if i.FromStateID != nil && *i.FromStateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "from_state_id", Message: "must be a state id or absent"})
	}
	errs = append(errs, validateConditions(i.Conditions)...)
	if i.RequiredPermission != nil && len(*i.RequiredPermission) > maxPermissionLen {
		errs = append(errs, domain.FieldError{Field: "required_permission", Message: "too long (max 100)"})
	}
	if i.NotificationTemplate != nil && len(*i.NotificationTemplate) > maxTemplateLen {
		errs = append(errs, domain.FieldError{Field: "notification_template", Message: "too long (max 100)"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput holds the parameters for a partial transition update.
// Endpoints are immutable; a different edge means a new transition.
type UpdateInput struct {
	TransitionID uuid.UUID
	Params       domain.TransitionUpdateParams
}

// Validate checks all fields and collects all errors.
func (i *UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.TransitionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "transition_id", Message: "required"})
	}
	if i.Params.Empty() {
		errs = append(errs, domain.FieldError{Field: "params", Message: "nothing to update"})
	}
	if i.Params.Conditions != nil {
		errs = append(errs, validateConditions(*i.Params.Conditions)...)
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// validateConditions accepts empty or well-formed JSON.
func validateConditions(raw json.RawMessage) []domain.FieldError {
	if len(raw) == 0 {
		return nil
	}
	if len(raw) > maxConditionsLen {
		return []domain.FieldError{{Field: "conditions", Message: "too long (max 10000)"}}
	}
	if !json.Valid(raw) {
		return []domain.FieldError{{Field: "conditions", Message: "invalid json"}}
	}
	return nil
}
