package state

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 5. ToggleState
// ---------------------------------------------------------------------------

// ToggleState sets a state's active flag, or flips it when active is nil.
// Deactivation hides the state from default listings and from the
// transition matrix; existing leads keep their reference.
func (s *Service) ToggleState(ctx context.Context, stateID uuid.UUID, active *bool) (*domain.DeskState, error) {
	if stateID == uuid.Nil {
		return nil, domain.NewValidationError("state_id", "required")
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	var updated *domain.DeskState
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var toggleErr error
		updated, toggleErr = s.states.SetActive(txCtx, stateID, active)
		if toggleErr != nil {
			return fmt.Errorf("toggle state: %w", toggleErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     updated.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeState,
			EntityID:   &updated.ID,
			Action:     domain.AuditActionUpdate,
			Changes:    map[string]any{"is_active": updated.IsActive},
		})
		if auditErr != nil {
			return fmt.Errorf("audit toggle: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return updated, nil
}
