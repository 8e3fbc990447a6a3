package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 1. SeedDefaultTransitions
// ---------------------------------------------------------------------------

// SeedDefaultTransitions creates the standard funnel transitions for a
// desk, resolving template edges against the desk's states by name.
// Edges whose states the desk does not have are skipped, and edges that
// already exist are left untouched, so the call is idempotent and safe
// for partially customized desks. Returns the number of transitions
// created.
func (s *Service) SeedDefaultTransitions(ctx context.Context, deskID uuid.UUID) (int, error) {
	if deskID == uuid.Nil {
		return 0, domain.NewValidationError("desk_id", "required")
	}

	states, err := s.states.List(ctx, deskID, true)
	if err != nil {
		return 0, fmt.Errorf("list states: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(states))
	for _, st := range states {
		byName[st.Name] = st.ID
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	created := 0
	skipped := 0
	for _, edge := range defaultEdges {
		toID, ok := byName[edge.To]
		if !ok {
			skipped++
			continue
		}

		var fromID *uuid.UUID
		if edge.From != "" {
			id, ok := byName[edge.From]
			if !ok {
				skipped++
				continue
			}
			fromID = &id
		}

		_, createErr := s.transitions.Create(ctx, &domain.StateTransition{
			DeskID:      deskID,
			FromStateID: fromID,
			ToStateID:   toID,
			IsActive:    true,
			CreatedBy:   actorID,
		})
		if createErr != nil {
			if errors.Is(createErr, domain.ErrAlreadyExists) {
				skipped++
				continue
			}
			return created, fmt.Errorf("seed %s->%s: %w", edge.From, edge.To, createErr)
		}
		created++
	}

	if created > 0 {
		_, auditErr := s.audit.Create(ctx, domain.AuditRecord{
			DeskID:     deskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeDesk,
			EntityID:   &deskID,
			Action:     domain.AuditActionSeed,
			Changes:    map[string]any{"created": created, "skipped": skipped},
		})
		if auditErr != nil {
			return created, fmt.Errorf("audit seed: %w", auditErr)
		}
	}

	s.log.InfoContext(ctx, "default transitions seeded",
		slog.String("desk_id", deskID.String()),
		slog.Int("created", created),
		slog.Int("skipped", skipped),
	)
	return created, nil
}
