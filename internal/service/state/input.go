package state

import (
	"strings"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

const (
	maxNameLen        = 100
	maxDisplayNameLen = 200
	maxDescriptionLen = 2000
	maxColorLen       = 7
	maxIconLen        = 50
)

// CreateInput holds the parameters for creating a desk state.
type CreateInput struct {
	DeskID      uuid.UUID
	Name        string
	DisplayName string
	Description *string
	Color       *string
	Icon        *string
	IsInitial   bool
	IsFinal     bool
	IsActive    *bool
	SortOrder   *int
}

// Validate checks all fields and collects all errors.
func (i *CreateInput) Validate() error {
	var errs []domain.FieldError

	if i.DeskID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "desk_id", Message: "required"})
	}
	if strings.TrimSpace(i.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	} else if len(i.Name) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: "too long (max 100)"})
	}
	if strings.TrimSpace(i.DisplayName) == "" {
		errs = append(errs, domain.FieldError{Field: "display_name", Message: "required"})
	} else if len(i.DisplayName) > maxDisplayNameLen {
		errs = append(errs, domain.FieldError{Field: "display_name", Message: "too long (max 200)"})
	}
	if i.Description != nil && len(*i.Description) > maxDescriptionLen {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long (max 2000)"})
	}
	if i.Color != nil && len(*i.Color) > maxColorLen {
		errs = append(errs, domain.FieldError{Field: "color", Message: "too long (max 7)"})
	}
	if i.Icon != nil && len(*i.Icon) > maxIconLen {
		errs = append(errs, domain.FieldError{Field: "icon", Message: "too long (max 50)"})
	}
	if i.SortOrder != nil && *i.SortOrder < 0 {
		errs = append(errs, domain.FieldError{Field: "sort_order", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput holds the parameters for a partial desk-state update.
type UpdateInput struct {
	StateID uuid.UUID
	Params  domain.StateUpdateParams
}

// Validate checks all fields and collects all errors.
func (i *UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.StateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "state_id", Message: "required"})
	}
	if i.Params.Empty() {
		errs = append(errs, domain.FieldError{Field: "params", Message: "nothing to update"})
	}
	if i.Params.Name != nil && strings.TrimSpace(*i.Params.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "must not be blank"})
	}
	if i.Params.Name != nil && len(*i.Params.Name) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: "too long (max 100)"})
	}
	if i.Params.DisplayName != nil && strings.TrimSpace(*i.Params.DisplayName) == "" {
		errs = append(errs, domain.FieldError{Field: "display_name", Message: "must not be blank"})
	}
	if i.Params.Description != nil && len(*i.Params.Description) > maxDescriptionLen {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long (max 2000)"})
	}
	if i.Params.SortOrder != nil && *i.Params.SortOrder < 0 {
		errs = append(errs, domain.FieldError{Field: "sort_order", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ReorderInput holds the parameters for rewriting a desk's state ordering.
type ReorderInput struct {
	DeskID   uuid.UUID
	StateIDs []uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *ReorderInput) Validate() error {
	var errs []domain.FieldError

	if i.DeskID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "desk_id", Message: "required"})
	}
	if len(i.StateIDs) == 0 {
		errs = append(errs, domain.FieldError{Field: "state_ids", Message: "required"})
	}
	seen := make(map[uuid.UUID]struct{}, len(i.StateIDs))
	for _, id := range i.StateIDs {
		if _, dup := seen[id]; dup {
			errs = append(errs, domain.FieldError{Field: "state_ids", Message: "duplicate ids"})
			break
		}
		seen[id] = struct{}{}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
