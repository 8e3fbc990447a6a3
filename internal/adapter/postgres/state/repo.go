// Package state implements the desk-state repository using PostgreSQL.
// It owns the set of named lead-lifecycle states within one desk and the
// storage-level invariants attached to them: per-desk name uniqueness and
// the single-initial-state partial unique index.
package state

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/leaddesk/crm-backend/internal/adapter/postgres"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// Repo provides desk-state persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new desk-state repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const stateColumns = `id, desk_id, name, display_name, description, color, icon,
	is_initial, is_final, is_active, sort_order, created_by, created_at, updated_at`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

const getByIDSQL = `
SELECT ` + stateColumns + `
FROM desk_states
WHERE id = $1`

const listSQL = `
SELECT ` + stateColumns + `
FROM desk_states
WHERE desk_id = $1 AND (NOT $2::boolean OR is_active)
ORDER BY sort_order, display_name`

const getInitialSQL = `
SELECT ` + stateColumns + `
FROM desk_states
WHERE desk_id = $1 AND is_initial AND is_active`

const countByDeskSQL = `SELECT count(*) FROM desk_states WHERE desk_id = $1`

// GetByID returns a state by primary key.
// Returns domain.ErrNotFound if the state does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeskState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	st, err := scanState(q.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "desk_state", id)
	}

	return st, nil
}

// List returns the desk's states ordered by sort_order then display_name.
// With activeOnly, soft-disabled states are excluded.
// Returns an empty slice (not nil) when the desk has no states.
func (r *Repo) List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.DeskState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listSQL, deskID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list desk states: %w", err)
	}
	defer rows.Close()

	states, err := scanStates(rows)
	if err != nil {
		return nil, fmt.Errorf("list desk states: %w", err)
	}

	return states, nil
}

// GetInitial returns the desk's unique active initial state.
// Returns domain.ErrNotFound when the desk has none.
func (r *Repo) GetInitial(ctx context.Context, deskID uuid.UUID) (*domain.DeskState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	st, err := scanState(q.QueryRow(ctx, getInitialSQL, deskID))
	if err != nil {
		return nil, postgres.MapError(err, "initial state for desk", deskID)
	}

	return st, nil
}

// CountByDesk returns the number of states (active or not) in a desk.
func (r *Repo) CountByDesk(ctx context.Context, deskID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countByDeskSQL, deskID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count desk states: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// The next sort order is computed inside the INSERT itself so two concurrent
// creates cannot both read the same max before writing.
const createSQL = `
INSERT INTO desk_states
	(desk_id, name, display_name, description, color, icon, is_initial, is_final, is_active, sort_order, created_by)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9,
	 COALESCE($10, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM desk_states WHERE desk_id = $1)),
	 $11)
RETURNING ` + stateColumns

// Create inserts a new state and returns the persisted row.
// A nil sortOrder assigns max(sort_order for desk)+1.
// Returns domain.ErrAlreadyExists if the desk already has a state with the
// same name, or if st.IsInitial is set while another initial state exists.
func (r *Repo) Create(ctx context.Context, st *domain.DeskState, sortOrder *int) (*domain.DeskState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, createSQL,
		st.DeskID, st.Name, st.DisplayName, st.Description, st.Color, st.Icon,
		st.IsInitial, st.IsFinal, st.IsActive, sortOrder, st.CreatedBy,
	)

	created, err := scanState(row)
	if err != nil {
		return nil, postgres.MapError(err, "desk_state", uuid.Nil)
	}

	return created, nil
}

// Update applies a partial patch and returns the updated row.
// Returns domain.ErrNotFound if the state does not exist and
// domain.ErrAlreadyExists on a name or initial-state collision.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.StateUpdateParams) (*domain.DeskState, error) {
	update := sq.Update("desk_states").
		PlaceholderFormat(sq.Dollar).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + stateColumns)

	if params.Name != nil {
		update = update.Set("name", *params.Name)
	}
	if params.DisplayName != nil {
		update = update.Set("display_name", *params.DisplayName)
	}
	if params.Description != nil {
		if *params.Description == "" {
			// ptr("") means clear (set NULL in DB).
			update = update.Set("description", nil)
		} else {
			update = update.Set("description", *params.Description)
		}
	}
	if params.Color != nil {
		update = update.Set("color", *params.Color)
	}
	if params.Icon != nil {
		update = update.Set("icon", *params.Icon)
	}
	if params.IsInitial != nil {
		update = update.Set("is_initial", *params.IsInitial)
	}
	if params.IsFinal != nil {
		update = update.Set("is_final", *params.IsFinal)
	}
	if params.IsActive != nil {
		update = update.Set("is_active", *params.IsActive)
	}
	if params.SortOrder != nil {
		update = update.Set("sort_order", *params.SortOrder)
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	st, err := scanState(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "desk_state", id)
	}

	return st, nil
}

const deleteSQL = `DELETE FROM desk_states WHERE id = $1`

// Delete removes a state. Dependent transitions are removed by the cascading
// foreign keys on state_transitions in the same statement.
// Returns domain.ErrNotFound if the state does not exist and
// domain.ErrConflict if a lead still references it.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "desk_state", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("desk_state %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

const setActiveSQL = `
UPDATE desk_states
SET is_active = COALESCE($2, NOT is_active), updated_at = now()
WHERE id = $1
RETURNING ` + stateColumns

// SetActive sets is_active to the given value, or flips the current value
// when active is nil. Returns domain.ErrNotFound if the state does not exist.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, active *bool) (*domain.DeskState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	st, err := scanState(q.QueryRow(ctx, setActiveSQL, id, active))
	if err != nil {
		return nil, postgres.MapError(err, "desk_state", id)
	}

	return st, nil
}

const reorderSQL = `
UPDATE desk_states AS s
SET sort_order = u.ord, updated_at = now()
FROM unnest($2::uuid[]) WITH ORDINALITY AS u(id, ord)
WHERE s.id = u.id AND s.desk_id = $1`

// Reorder assigns sort_order = position+1 to each id in order, scoped to the
// desk. Ids not belonging to the desk match no row and are silent no-ops.
// Callers wanting atomicity run this inside a transaction.
func (r *Repo) Reorder(ctx context.Context, deskID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, reorderSQL, deskID, ids); err != nil {
		return postgres.MapError(err, "desk_state reorder", deskID)
	}

	return nil
}

const clearInitialSQL = `
UPDATE desk_states SET is_initial = false, updated_at = now()
WHERE desk_id = $1 AND is_initial`

const markInitialSQL = `
UPDATE desk_states SET is_initial = true, updated_at = now()
WHERE id = $2 AND desk_id = $1`

// ClearInitial drops the initial flag from every state of the desk.
func (r *Repo) ClearInitial(ctx context.Context, deskID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, clearInitialSQL, deskID); err != nil {
		return postgres.MapError(err, "desk_state clear initial", deskID)
	}

	return nil
}

// MarkInitial sets the initial flag on one state, scoped to the desk.
// Returns domain.ErrNotFound if the state is missing or belongs to another
// desk. Meant to run right after ClearInitial inside one transaction.
func (r *Repo) MarkInitial(ctx context.Context, deskID, stateID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, markInitialSQL, deskID, stateID)
	if err != nil {
		return postgres.MapError(err, "desk_state", stateID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("desk_state %s: %w", stateID, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning
// ---------------------------------------------------------------------------

func scanState(row pgx.Row) (*domain.DeskState, error) {
	var (
		st          domain.DeskState
		description pgtype.Text
		createdBy   pgtype.UUID
	)

	err := row.Scan(
		&st.ID, &st.DeskID, &st.Name, &st.DisplayName, &description,
		&st.Color, &st.Icon, &st.IsInitial, &st.IsFinal, &st.IsActive,
		&st.SortOrder, &createdBy, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		st.Description = &description.String
	}
	if createdBy.Valid {
		id := uuid.UUID(createdBy.Bytes)
		st.CreatedBy = &id
	}

	return &st, nil
}

func scanStates(rows pgx.Rows) ([]domain.DeskState, error) {
	var result []domain.DeskState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.DeskState{}
	}

	return result, nil
}
