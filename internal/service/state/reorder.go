package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 6. ReorderStates
// ---------------------------------------------------------------------------

// ReorderStates rewrites the desk's sort order to match the given id
// sequence. Ids from other desks are ignored; the whole rewrite happens
// in one transaction so concurrent reorders cannot interleave.
func (s *Service) ReorderStates(ctx context.Context, input ReorderInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if reorderErr := s.states.Reorder(txCtx, input.DeskID, input.StateIDs); reorderErr != nil {
			return fmt.Errorf("reorder states: %w", reorderErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     input.DeskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeDesk,
			EntityID:   &input.DeskID,
			Action:     domain.AuditActionReorder,
			Changes:    map[string]any{"count": len(input.StateIDs)},
		})
		if auditErr != nil {
			return fmt.Errorf("audit reorder: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.log.InfoContext(ctx, "states reordered",
		slog.String("desk_id", input.DeskID.String()),
		slog.Int("count", len(input.StateIDs)),
	)
	return nil
}
