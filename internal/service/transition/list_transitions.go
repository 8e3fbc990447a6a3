package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// 3. Listing
// ---------------------------------------------------------------------------

// ListTransitions returns the desk's transitions joined with endpoint
// display metadata. Inactive rules are excluded unless includeInactive
// is set.
func (s *Service) ListTransitions(ctx context.Context, deskID uuid.UUID, includeInactive bool) ([]domain.TransitionView, error) {
	if deskID == uuid.Nil {
		return nil, domain.NewValidationError("desk_id", "required")
	}

	views, err := s.transitions.List(ctx, deskID, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return views, nil
}

// AvailableTransitions returns the active transitions a lead in the
// given state may take: the explicit edges out of it plus the desk's
// wildcard transitions. Transitions whose endpoints are deactivated are
// excluded, and a deactivated source state offers no transitions at all.
func (s *Service) AvailableTransitions(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error) {
	if fromStateID == uuid.Nil {
		return nil, domain.NewValidationError("from_state_id", "required")
	}

	// Resolve the state first so an unknown id reads as ErrNotFound
	// rather than an empty list.
	from, err := s.states.GetByID(ctx, fromStateID)
	if err != nil {
		return nil, err
	}
	if !from.IsActive {
		return []domain.TransitionView{}, nil
	}

	views, err := s.transitions.AvailableFrom(ctx, fromStateID)
	if err != nil {
		return nil, fmt.Errorf("available transitions: %w", err)
	}

	globals, err := s.transitions.Global(ctx, from.DeskID, nil)
	if err != nil {
		return nil, fmt.Errorf("global transitions: %w", err)
	}
	if len(globals) == 0 {
		return views, nil
	}

	// Wildcards carry no source join; resolve destination metadata from
	// the desk's active states.
	states, err := s.states.List(ctx, from.DeskID, true)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	refs := make(map[uuid.UUID]domain.StateRef, len(states))
	for _, st := range states {
		refs[st.ID] = domain.StateRef{
			ID:          st.ID,
			Name:        st.Name,
			DisplayName: st.DisplayName,
			Color:       st.Color,
			SortOrder:   st.SortOrder,
		}
	}

	for _, g := range globals {
		ref, ok := refs[g.ToStateID]
		if !ok {
			// Destination deactivated; the wildcard does not apply.
			continue
		}
		views = append(views, domain.TransitionView{
			StateTransition: g,
			ToState:         ref,
		})
	}

	return views, nil
}

// GlobalTransitions returns the desk's wildcard transitions, optionally
// narrowed to a single destination state.
func (s *Service) GlobalTransitions(ctx context.Context, deskID uuid.UUID, toStateID *uuid.UUID) ([]domain.StateTransition, error) {
	if deskID == uuid.Nil {
		return nil, domain.NewValidationError("desk_id", "required")
	}

	transitions, err := s.transitions.Global(ctx, deskID, toStateID)
	if err != nil {
		return nil, fmt.Errorf("global transitions: %w", err)
	}
	return transitions, nil
}
