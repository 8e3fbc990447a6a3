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
// 7. GetInitialState / SetInitialState
// ---------------------------------------------------------------------------

// GetInitialState returns the desk's initial state, or ErrNotFound when
// the desk has none configured.
func (s *Service) GetInitialState(ctx context.Context, deskID uuid.UUID) (*domain.DeskState, error) {
	if deskID == uuid.Nil {
		return nil, domain.NewValidationError("desk_id", "required")
	}
	return s.states.GetInitial(ctx, deskID)
}

// SetInitialState makes stateID the desk's single initial state,
// clearing the flag from whichever state held it before. Both writes
// run in one transaction so the desk never has two initial states.
func (s *Service) SetInitialState(ctx context.Context, deskID, stateID uuid.UUID) error {
	var errs []domain.FieldError
	if deskID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "desk_id", Message: "required"})
	}
	if stateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "state_id", Message: "required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}

	st, err := s.states.GetByID(ctx, stateID)
	if err != nil {
		return err
	}
	if st.DeskID != deskID {
		return fmt.Errorf("state %s belongs to another desk: %w", stateID, domain.ErrCrossDesk)
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if clearErr := s.states.ClearInitial(txCtx, deskID); clearErr != nil {
			return fmt.Errorf("clear initial: %w", clearErr)
		}
		if markErr := s.states.MarkInitial(txCtx, deskID, stateID); markErr != nil {
			return fmt.Errorf("mark initial: %w", markErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     deskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeState,
			EntityID:   &stateID,
			Action:     domain.AuditActionSetInitial,
			Changes:    map[string]any{"name": st.Name},
		})
		if auditErr != nil {
			return fmt.Errorf("audit set initial: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.log.InfoContext(ctx, "initial state changed",
		slog.String("desk_id", deskID.String()),
		slog.String("state_id", stateID.String()),
	)
	return nil
}
