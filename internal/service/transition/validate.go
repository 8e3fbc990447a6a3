package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// 4. IsValidTransition
// ---------------------------------------------------------------------------

// IsValidTransition reports whether moving a lead between the two
// states is permitted: either an explicit active edge exists, or the
// desk has an active wildcard into the destination and the source state
// is active. Unknown states and states from different desks are not an
// error; the move is simply not permitted.
func (s *Service) IsValidTransition(ctx context.Context, fromStateID, toStateID uuid.UUID) (bool, error) {
	if fromStateID == uuid.Nil || toStateID == uuid.Nil {
		return false, nil
	}

	from, err := s.states.GetByID(ctx, fromStateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve from state: %w", err)
	}

	to, err := s.states.GetByID(ctx, toStateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve to state: %w", err)
	}

	if from.DeskID != to.DeskID {
		return false, nil
	}

	ok, err := s.transitions.EdgeExists(ctx, from.DeskID, fromStateID, toStateID)
	if err != nil {
		return false, fmt.Errorf("edge exists: %w", err)
	}
	return ok, nil
}
