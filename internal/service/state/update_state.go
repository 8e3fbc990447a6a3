package state

import (
	"context"
	"fmt"

	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 3. UpdateState
// ---------------------------------------------------------------------------

// UpdateState applies a partial patch to a state. Setting IsInitial to
// true displaces any existing initial state for the desk.
func (s *Service) UpdateState(ctx context.Context, input UpdateInput) (*domain.DeskState, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Resolve the desk up front; the initial-state handoff below needs it.
	current, err := s.states.GetByID(ctx, input.StateID)
	if err != nil {
		return nil, err
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	var updated *domain.DeskState
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if input.Params.IsInitial != nil && *input.Params.IsInitial && !current.IsInitial {
			if clearErr := s.states.ClearInitial(txCtx, current.DeskID); clearErr != nil {
				return fmt.Errorf("clear initial: %w", clearErr)
			}
		}

		var updErr error
		updated, updErr = s.states.Update(txCtx, input.StateID, input.Params)
		if updErr != nil {
			return fmt.Errorf("update state: %w", updErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     updated.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeState,
			EntityID:   &updated.ID,
			Action:     domain.AuditActionUpdate,
			Changes:    updateChanges(input.Params),
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

// updateChanges records which fields the patch touched and their new values.
func updateChanges(p domain.StateUpdateParams) map[string]any {
	changes := make(map[string]any)
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.DisplayName != nil {
		changes["display_name"] = *p.DisplayName
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Color != nil {
		changes["color"] = *p.Color
	}
	if p.Icon != nil {
		changes["icon"] = *p.Icon
	}
	if p.IsInitial != nil {
		changes["is_initial"] = *p.IsInitial
	}
	if p.IsFinal != nil {
		changes["is_final"] = *p.IsFinal
	}
	if p.IsActive != nil {
		changes["is_active"] = *p.IsActive
	}
	if p.SortOrder != nil {
		changes["sort_order"] = *p.SortOrder
	}
	return changes
}
