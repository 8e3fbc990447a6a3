package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 4. DeleteState
// ---------------------------------------------------------------------------

// DeleteState removes a state and, in the same transaction, every
// transition that references it. The delete is refused with ErrConflict
// while any lead still occupies the state.
func (s *Service) DeleteState(ctx context.Context, stateID uuid.UUID) error {
	if stateID == uuid.Nil {
		return domain.NewValidationError("state_id", "required")
	}

	// Get state for the audit trail.
	st, err := s.states.GetByID(ctx, stateID)
	if err != nil {
		return err
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		count, countErr := s.leads.CountByState(txCtx, stateID)
		if countErr != nil {
			return fmt.Errorf("count leads: %w", countErr)
		}
		if count > 0 {
			return fmt.Errorf("%d leads still reference state %s: %w", count, stateID, domain.ErrConflict)
		}

		if delErr := s.states.Delete(txCtx, stateID); delErr != nil {
			return fmt.Errorf("delete state: %w", delErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     st.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeState,
			EntityID:   &stateID,
			Action:     domain.AuditActionDelete,
			Changes:    map[string]any{"name": st.Name},
		})
		if auditErr != nil {
			return fmt.Errorf("audit delete: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.log.InfoContext(ctx, "state deleted",
		slog.String("desk_id", st.DeskID.String()),
		slog.String("state_id", stateID.String()),
		slog.String("name", st.Name),
	)
	return nil
}
