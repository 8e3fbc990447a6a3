// Package lead implements the narrow slice of lead persistence the workflow
// core needs: the referential guard for state deletion and the one-time
// backfill of legacy free-text statuses into normalized state references.
package lead

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/leaddesk/crm-backend/internal/adapter/postgres"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// Repo provides lead boundary queries backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new lead repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByIDSQL = `
SELECT id, desk_id, status, desk_state_id, created_at
FROM leads
WHERE id = $1`

// GetByID returns the workflow-relevant slice of a lead.
// Returns domain.ErrNotFound if absent.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var l domain.Lead
	err := q.QueryRow(ctx, getByIDSQL, id).Scan(&l.ID, &l.DeskID, &l.Status, &l.DeskStateID, &l.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "lead", id)
	}

	return &l, nil
}

const countByStateSQL = `SELECT count(*) FROM leads WHERE desk_state_id = $1`

// CountByState returns how many leads reference the given state.
func (r *Repo) CountByState(ctx context.Context, stateID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countByStateSQL, stateID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count leads by state: %w", err)
	}

	return count, nil
}

// Once desk_state_id is populated it is canonical; the legacy status column
// is never read again by this subsystem.
const backfillSQL = `
UPDATE leads l
SET desk_state_id = s.id
FROM desk_states s
WHERE l.desk_id = $1
  AND l.desk_state_id IS NULL
  AND s.desk_id = l.desk_id
  AND s.is_active
  AND s.name = l.status`

// BackfillLegacyStatuses points every unmigrated lead of the desk at the
// active state whose name exactly matches its legacy status string.
// Returns the number of leads updated.
func (r *Repo) BackfillLegacyStatuses(ctx context.Context, deskID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, backfillSQL, deskID)
	if err != nil {
		return 0, fmt.Errorf("backfill legacy statuses: %w", err)
	}

	return tag.RowsAffected(), nil
}
