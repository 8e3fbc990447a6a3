package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 2. CreateState
// ---------------------------------------------------------------------------

// CreateState creates a new pipeline state for a desk.
// Color and icon fall back to presentation defaults; when no sort order
// is given the state is appended after the desk's current last state.
// States are created active unless IsActive is explicitly false.
// Marking the state initial displaces any existing initial state.
func (s *Service) CreateState(ctx context.Context, input CreateInput) (*domain.DeskState, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Check state limit.
	count, err := s.states.CountByDesk(ctx, input.DeskID)
	if err != nil {
		return nil, fmt.Errorf("count states: %w", err)
	}
	if count >= s.cfg.MaxStatesPerDesk {
		return nil, domain.NewValidationError("states", "limit reached")
	}

	color := domain.DefaultStateColor
	if input.Color != nil && *input.Color != "" {
		color = *input.Color
	}
	icon := domain.DefaultStateIcon
	if input.Icon != nil && *input.Icon != "" {
		icon = *input.Icon
	}
	isActive := input.IsActive == nil || *input.IsActive

	actorID := ctxutil.ActorIDFromCtx(ctx)

	var created *domain.DeskState
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if input.IsInitial {
			if clearErr := s.states.ClearInitial(txCtx, input.DeskID); clearErr != nil {
				return fmt.Errorf("clear initial: %w", clearErr)
			}
		}

		st := &domain.DeskState{
			DeskID:      input.DeskID,
			Name:        input.Name,
			DisplayName: input.DisplayName,
			Description: input.Description,
			Color:       color,
			Icon:        icon,
			IsInitial:   input.IsInitial,
			IsFinal:     input.IsFinal,
			IsActive:    isActive,
			CreatedBy:   actorID,
		}

		var createErr error
		created, createErr = s.states.Create(txCtx, st, input.SortOrder)
		if createErr != nil {
			return fmt.Errorf("create state: %w", createErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     input.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeState,
			EntityID:   &created.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"name": created.Name, "is_initial": created.IsInitial},
		})
		if auditErr != nil {
			return fmt.Errorf("audit create: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.InfoContext(ctx, "state created",
		slog.String("desk_id", input.DeskID.String()),
		slog.String("state_id", created.ID.String()),
		slog.String("name", created.Name),
	)
	return created, nil
}
