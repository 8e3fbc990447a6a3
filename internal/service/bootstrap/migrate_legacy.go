package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 2. MigrateLegacyStatuses
// ---------------------------------------------------------------------------

// MigrateLegacyStatuses links leads that still carry only a free-text
// status to the desk state of the same name. Leads with no matching
// active state keep a nil state reference; leads already linked are
// untouched, so reruns are harmless. Returns the number of leads
// migrated.
func (s *Service) MigrateLegacyStatuses(ctx context.Context, deskID uuid.UUID) (int64, error) {
	if deskID == uuid.Nil {
		return 0, domain.NewValidationError("desk_id", "required")
	}

	actorID := ctxutil.ActorIDFromCtx(ctx)

	var migrated int64
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var backfillErr error
		migrated, backfillErr = s.leads.BackfillLegacyStatuses(txCtx, deskID)
		if backfillErr != nil {
			return fmt.Errorf("backfill statuses: %w", backfillErr)
		}

		if migrated == 0 {
			return nil
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			DeskID:     deskID,
			UserID:     actorID,
			EntityType: domain.EntityTypeDesk,
			EntityID:   &deskID,
			Action:     domain.AuditActionMigrate,
			Changes:    map[string]any{"migrated": migrated},
		})
		if auditErr != nil {
			return fmt.Errorf("audit migrate: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	s.log.InfoContext(ctx, "legacy statuses migrated",
		slog.String("desk_id", deskID.String()),
		slog.Int64("migrated", migrated),
	)
	return migrated, nil
}
