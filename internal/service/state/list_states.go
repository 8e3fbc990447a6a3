package state

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// 1. ListStates / GetState
// ---------------------------------------------------------------------------

// ListStates returns the desk's states ordered by sort_order.
// Inactive states are excluded unless includeInactive is set.
func (s *Service) ListStates(ctx context.Context, deskID uuid.UUID, includeInactive bool) ([]domain.DeskState, error) {
	if deskID == uuid.Nil {
		return nil, domain.NewValidationError("desk_id", "required")
	}

	states, err := s.states.List(ctx, deskID, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

// GetState returns a single state by id.
func (s *Service) GetState(ctx context.Context, stateID uuid.UUID) (*domain.DeskState, error) {
	if stateID == uuid.Nil {
		return nil, domain.NewValidationError("state_id", "required")
	}
	return s.states.GetByID(ctx, stateID)
}
