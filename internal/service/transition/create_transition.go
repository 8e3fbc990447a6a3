package transition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 1. CreateTransition
// ---------------------------------------------------------------------------

// CreateTransition creates a new transition rule for a desk. Both
// endpoints must belong to the desk; a duplicate (desk, from, to) edge
// is rejected with ErrAlreadyExists. Rules are created active unless
// IsActive is explicitly false.
func (s *Service) CreateTransition(ctx context.Context, input CreateInput) (*domain.StateTransition, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkEndpoint(ctx, input.DeskID, input.ToStateID, "to_state_id"); err != nil {
		return nil, err
	}
	if input.FromStateID != nil {
		if err := s.checkEndpoint(ctx, input.DeskID, *input.FromStateID, "from_state_id"); err != nil {
			return nil, err
		}
	}

	// Check transition limit.
	count, err := s.transitions.CountByDesk(ctx, input.DeskID)
	if err != nil {
		return nil, fmt.Errorf("count transitions: %w", err)
	}
	if count >= s.cfg.MaxTransitionsPerDesk {
		return nil, domain.NewValidationError("transitions", "limit reached")
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)
	isActive := input.IsActive == nil || *input.IsActive

	var created *domain.StateTransition
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		tr := &domain.StateTransition{
			DeskID:               input.DeskID,
			FromStateID:          input.FromStateID,
			ToStateID:            input.ToStateID,
			IsAutomatic:          input.IsAutomatic,
			Conditions:           input.Conditions,
			RequiredPermission:   input.RequiredPermission,
			NotificationTemplate: input.NotificationTemplate,
			IsActive:             isActive,
			CreatedBy:            actorID,
		}

		var createErr error
		created, createErr = s.transitions.Create(txCtx, tr)
		if createErr != nil {
			return fmt.Errorf("create transition: %w", createErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     input.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeTransition,
			EntityID:   &created.ID,
			Action:     domain.AuditActionCreate,
			Changes:    transitionChanges(created),
		})
		if auditErr != nil {
			return fmt.Errorf("audit create: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.InfoContext(ctx, "transition created",
		slog.String("desk_id", input.DeskID.String()),
		slog.String("transition_id", created.ID.String()),
		slog.Bool("wildcard", created.IsGlobal()),
	)
	return created, nil
}

// checkEndpoint verifies a referenced state exists and belongs to the desk.
func (s *Service) checkEndpoint(ctx context.Context, deskID, stateID uuid.UUID, field string) error {
	st, err := s.states.GetByID(ctx, stateID)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if st.DeskID != deskID {
		return fmt.Errorf("%s %s belongs to another desk: %w", field, stateID, domain.ErrCrossDesk)
	}
	return nil
}

func transitionChanges(tr *domain.StateTransition) map[string]any {
	changes := map[string]any{"to_state_id": tr.ToStateID.String()}
	if tr.FromStateID != nil {
		changes["from_state_id"] = tr.FromStateID.String()
	} else {
		changes["from_state_id"] = nil
	}
	return changes
}
