package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 2. UpdateTransition / DeleteTransition
// ---------------------------------------------------------------------------

// UpdateTransition applies a partial patch to a transition's metadata.
func (s *Service) UpdateTransition(ctx context.Context, input UpdateInput) (*domain.StateTransition, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	var updated *domain.StateTransition
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var updErr error
		updated, updErr = s.transitions.Update(txCtx, input.TransitionID, input.Params)
		if updErr != nil {
			return fmt.Errorf("update transition: %w", updErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     updated.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeTransition,
			EntityID:   &updated.ID,
			Action:     domain.AuditActionUpdate,
			Changes:    patchChanges(input.Params),
		})
		if auditErr != nil {
			return fmt.Errorf("audit update: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return updated, nil
}

// DeleteTransition removes a transition rule outright. Leads already in
// the target state are unaffected; only future moves lose the edge.
func (s *Service) DeleteTransition(ctx context.Context, transitionID uuid.UUID) error {
	if transitionID == uuid.Nil {
		return domain.NewValidationError("transition_id", "required")
	}

	// Get transition for the audit trail.
	tr, err := s.transitions.GetByID(ctx, transitionID)
	if err != nil {
		return err
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.transitions.Delete(txCtx, transitionID); delErr != nil {
			return fmt.Errorf("delete transition: %w", delErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     tr.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeTransition,
			EntityID:   &transitionID,
			Action:     domain.AuditActionDelete,
			Changes:    transitionChanges(tr),
		})
		if auditErr != nil {
			return fmt.Errorf("audit delete: %w", auditErr)
		}

		return nil
	})
}

// GetTransition returns a single transition by id.
func (s *Service) GetTransition(ctx context.Context, transitionID uuid.UUID) (*domain.StateTransition, error) {
	if transitionID == uuid.Nil {
		return nil, domain.NewValidationError("transition_id", "required")
	}
	return s.transitions.GetByID(ctx, transitionID)
}

// patchChanges records which fields the patch touched and their new values.
func patchChanges(p domain.TransitionUpdateParams) map[string]any {
	changes := make(map[string]any)
	if p.IsAutomatic != nil {
		changes["is_automatic"] = *p.IsAutomatic
	}
	if p.Conditions != nil {
		changes["conditions"] = string(*p.Conditions)
	}
	if p.RequiredPermission != nil {
		changes["required_permission"] = *p.RequiredPermission
	}
	if p.NotificationTemplate != nil {
		changes["notification_template"] = *p.NotificationTemplate
	}
	if p.IsActive != nil {
		changes["is_active"] = *p.IsActive
	}
	return changes
}
