package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// 5. Matrix
// ---------------------------------------------------------------------------

// Matrix builds the desk's full workflow picture: active states in
// display order and a square permission map over them. A wildcard
// transition fills the destination's column for every active state.
func (s *Service) Matrix(ctx context.Context, deskID uuid.UUID) (*domain.TransitionMatrix, error) {
	if deskID == uuid.Nil {
		return nil, domain.NewValidationError("desk_id", "required")
	}

	states, err := s.states.List(ctx, deskID, true)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}

	transitions, err := s.transitions.ListActive(ctx, deskID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}

	active := make(map[uuid.UUID]struct{}, len(states))
	allowed := make(map[uuid.UUID]map[uuid.UUID]bool, len(states))
	for _, st := range states {
		active[st.ID] = struct{}{}
		allowed[st.ID] = make(map[uuid.UUID]bool, len(states))
	}

	for _, tr := range transitions {
		if _, ok := active[tr.ToStateID]; !ok {
			continue
		}
		if tr.IsGlobal() {
			for from := range allowed {
				allowed[from][tr.ToStateID] = true
			}
			continue
		}
		if row, ok := allowed[*tr.FromStateID]; ok {
			row[tr.ToStateID] = true
		}
	}

	return &domain.TransitionMatrix{
		States:      states,
		Allowed:     allowed,
		Transitions: transitions,
	}, nil
}
