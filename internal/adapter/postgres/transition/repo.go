// Package transition implements the state-transition repository using
// PostgreSQL. It owns the directed edges between desk states, including
// wildcard edges whose source is NULL ("from any active state"), guarded by
// a null-safe unique index on the (desk, from, to) triple.
package transition

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

// Repo provides transition persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new transition repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const transitionColumns = `t.id, t.desk_id, t.from_state_id, t.to_state_id, t.is_automatic,
	t.conditions, t.required_permission, t.notification_template, t.is_active,
	t.created_by, t.created_at, t.updated_at`

// Source join is a LEFT JOIN: wildcard transitions have no source row.
const viewColumns = transitionColumns + `,
	fs.id, fs.name, fs.display_name, fs.color, fs.sort_order,
	ts.id, ts.name, ts.display_name, ts.color, ts.sort_order`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

const getByIDSQL = `
SELECT ` + transitionColumns + `
FROM state_transitions t
WHERE t.id = $1`

const listSQL = `
SELECT ` + viewColumns + `
FROM state_transitions t
LEFT JOIN desk_states fs ON fs.id = t.from_state_id
JOIN desk_states ts ON ts.id = t.to_state_id
WHERE t.desk_id = $1 AND (NOT $2::boolean OR t.is_active)
ORDER BY fs.sort_order NULLS FIRST, ts.sort_order`

const availableFromSQL = `
SELECT ` + viewColumns + `
FROM state_transitions t
JOIN desk_states fs ON fs.id = t.from_state_id
JOIN desk_states ts ON ts.id = t.to_state_id
WHERE t.from_state_id = $1 AND t.is_active AND fs.is_active AND ts.is_active
ORDER BY ts.sort_order`

const listActiveSQL = `
SELECT ` + transitionColumns + `
FROM state_transitions t
WHERE t.desk_id = $1 AND t.is_active`

const countByDeskSQL = `SELECT count(*) FROM state_transitions WHERE desk_id = $1`

// The wildcard arm only fires when the candidate source state is active:
// a wildcard edge applies "from any active state", not from disabled ones.
const edgeExistsSQL = `
SELECT EXISTS (
	SELECT 1
	FROM state_transitions t
	WHERE t.desk_id = $1 AND t.to_state_id = $3 AND t.is_active
	  AND (t.from_state_id = $2
	       OR (t.from_state_id IS NULL
	           AND EXISTS (SELECT 1 FROM desk_states s WHERE s.id = $2 AND s.is_active)))
)`

// GetByID returns a transition by primary key with conditions deserialized
// as stored. Returns domain.ErrNotFound if absent.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.StateTransition, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tr, err := scanTransition(q.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "state_transition", id)
	}

	return tr, nil
}

// List returns the desk's transitions joined with endpoint display metadata,
// ordered by source then destination sort_order (wildcards first).
// Returns an empty slice (not nil) when the desk has none.
func (r *Repo) List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.TransitionView, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listSQL, deskID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	views, err := scanViews(rows)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}

	return views, nil
}

// AvailableFrom returns the active explicit transitions out of a state where
// both endpoints are active, ordered by destination sort_order. Wildcard
// transitions are not included; callers merge them via Global.
func (r *Repo) AvailableFrom(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, availableFromSQL, fromStateID)
	if err != nil {
		return nil, fmt.Errorf("available transitions: %w", err)
	}
	defer rows.Close()

	views, err := scanViews(rows)
	if err != nil {
		return nil, fmt.Errorf("available transitions: %w", err)
	}

	return views, nil
}

// Global returns the desk's active wildcard transitions, optionally narrowed
// to a destination state.
func (r *Repo) Global(ctx context.Context, deskID uuid.UUID, toStateID *uuid.UUID) ([]domain.StateTransition, error) {
	query := sq.Select(
		"t.id", "t.desk_id", "t.from_state_id", "t.to_state_id", "t.is_automatic",
		"t.conditions", "t.required_permission", "t.notification_template", "t.is_active",
		"t.created_by", "t.created_at", "t.updated_at",
	).
		PlaceholderFormat(sq.Dollar).
		From("state_transitions t").
		Join("desk_states ts ON ts.id = t.to_state_id").
		Where(sq.Eq{"t.desk_id": deskID}).
		Where("t.from_state_id IS NULL").
		Where("t.is_active").
		OrderBy("ts.sort_order")

	if toStateID != nil {
		query = query.Where(sq.Eq{"t.to_state_id": *toStateID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build global transitions query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("global transitions: %w", err)
	}
	defer rows.Close()

	transitions, err := scanTransitions(rows)
	if err != nil {
		return nil, fmt.Errorf("global transitions: %w", err)
	}

	return transitions, nil
}

// ListActive returns the desk's active transitions without joins, for
// matrix building.
func (r *Repo) ListActive(ctx context.Context, deskID uuid.UUID) ([]domain.StateTransition, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listActiveSQL, deskID)
	if err != nil {
		return nil, fmt.Errorf("list active transitions: %w", err)
	}
	defer rows.Close()

	transitions, err := scanTransitions(rows)
	if err != nil {
		return nil, fmt.Errorf("list active transitions: %w", err)
	}

	return transitions, nil
}

// EdgeExists reports whether an active explicit edge (desk, from, to) or an
// active wildcard edge (desk, NULL, to) permits the move. The wildcard arm
// requires the source state to be active.
func (r *Repo) EdgeExists(ctx context.Context, deskID, fromStateID, toStateID uuid.UUID) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := q.QueryRow(ctx, edgeExistsSQL, deskID, fromStateID, toStateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("edge exists: %w", err)
	}

	return exists, nil
}

// CountByDesk returns the number of transitions (active or not) in a desk.
func (r *Repo) CountByDesk(ctx context.Context, deskID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countByDeskSQL, deskID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transitions: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

const createSQL = `
INSERT INTO state_transitions
	(desk_id, from_state_id, to_state_id, is_automatic, conditions,
	 required_permission, notification_template, is_active, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + transitionColumns

// Create inserts a new transition and returns the persisted row.
// Returns domain.ErrAlreadyExists when the null-safe (desk, from, to) triple
// already exists, and domain.ErrNotFound when an endpoint state is missing.
func (r *Repo) Create(ctx context.Context, tr *domain.StateTransition) (*domain.StateTransition, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, createSQL,
		tr.DeskID, tr.FromStateID, tr.ToStateID, tr.IsAutomatic, tr.Conditions,
		tr.RequiredPermission, tr.NotificationTemplate, tr.IsActive, tr.CreatedBy,
	)

	created, err := scanTransition(row)
	if err != nil {
		return nil, postgres.MapError(err, "state_transition", uuid.Nil)
	}

	return created, nil
}

// Update applies a partial patch and returns the updated row.
// Returns domain.ErrNotFound if the transition does not exist.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.TransitionUpdateParams) (*domain.StateTransition, error) {
	update := sq.Update("state_transitions").
		PlaceholderFormat(sq.Dollar).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + plainTransitionColumns())

	if params.IsAutomatic != nil {
		update = update.Set("is_automatic", *params.IsAutomatic)
	}
	if params.Conditions != nil {
		if len(*params.Conditions) == 0 {
			update = update.Set("conditions", nil)
		} else {
			update = update.Set("conditions", []byte(*params.Conditions))
		}
	}
	if params.RequiredPermission != nil {
		if *params.RequiredPermission == "" {
			update = update.Set("required_permission", nil)
		} else {
			update = update.Set("required_permission", *params.RequiredPermission)
		}
	}
	if params.NotificationTemplate != nil {
		if *params.NotificationTemplate == "" {
			update = update.Set("notification_template", nil)
		} else {
			update = update.Set("notification_template", *params.NotificationTemplate)
		}
	}
	if params.IsActive != nil {
		update = update.Set("is_active", *params.IsActive)
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	tr, err := scanTransition(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "state_transition", id)
	}

	return tr, nil
}

const deleteSQL = `DELETE FROM state_transitions WHERE id = $1`

// Delete removes a transition unconditionally; transitions have no downstream
// dependents. Returns domain.ErrNotFound if the transition does not exist.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "state_transition", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("state_transition %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// plainTransitionColumns is transitionColumns without the table alias, for
// RETURNING clauses.
func plainTransitionColumns() string {
	return `id, desk_id, from_state_id, to_state_id, is_automatic,
	conditions, required_permission, notification_template, is_active,
	created_by, created_at, updated_at`
}

// ---------------------------------------------------------------------------
// Row scanning
// ---------------------------------------------------------------------------

func scanTransition(row pgx.Row) (*domain.StateTransition, error) {
	var (
		tr           domain.StateTransition
		fromState    pgtype.UUID
		conditions   []byte
		permission   pgtype.Text
		notification pgtype.Text
		createdBy    pgtype.UUID
	)

	err := row.Scan(
		&tr.ID, &tr.DeskID, &fromState, &tr.ToStateID, &tr.IsAutomatic,
		&conditions, &permission, &notification, &tr.IsActive,
		&createdBy, &tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	applyTransitionNullables(&tr, fromState, conditions, permission, notification, createdBy)

	return &tr, nil
}

func scanTransitions(rows pgx.Rows) ([]domain.StateTransition, error) {
	var result []domain.StateTransition
	for rows.Next() {
		tr, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.StateTransition{}
	}

	return result, nil
}

func scanViews(rows pgx.Rows) ([]domain.TransitionView, error) {
	var result []domain.TransitionView
	for rows.Next() {
		var (
			v            domain.TransitionView
			fromState    pgtype.UUID
			conditions   []byte
			permission   pgtype.Text
			notification pgtype.Text
			createdBy    pgtype.UUID

			fsID          pgtype.UUID
			fsName        pgtype.Text
			fsDisplayName pgtype.Text
			fsColor       pgtype.Text
			fsSortOrder   pgtype.Int4
		)

		err := rows.Scan(
			&v.ID, &v.DeskID, &fromState, &v.ToStateID, &v.IsAutomatic,
			&conditions, &permission, &notification, &v.IsActive,
			&createdBy, &v.CreatedAt, &v.UpdatedAt,
			&fsID, &fsName, &fsDisplayName, &fsColor, &fsSortOrder,
			&v.ToState.ID, &v.ToState.Name, &v.ToState.DisplayName,
			&v.ToState.Color, &v.ToState.SortOrder,
		)
		if err != nil {
			return nil, err
		}

		applyTransitionNullables(&v.StateTransition, fromState, conditions, permission, notification, createdBy)

		if fsID.Valid {
			v.FromState = &domain.StateRef{
				ID:          uuid.UUID(fsID.Bytes),
				Name:        fsName.String,
				DisplayName: fsDisplayName.String,
				Color:       fsColor.String,
				SortOrder:   int(fsSortOrder.Int32),
			}
		}

		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.TransitionView{}
	}

	return result, nil
}

func applyTransitionNullables(
	tr *domain.StateTransition,
	fromState pgtype.UUID,
	conditions []byte,
	permission, notification pgtype.Text,
	createdBy pgtype.UUID,
) {
	if fromState.Valid {
		id := uuid.UUID(fromState.Bytes)
		tr.FromStateID = &id
	}
	if len(conditions) > 0 {
		tr.Conditions = conditions
	}
	if permission.Valid {
		tr.RequiredPermission = &permission.String
	}
	if notification.Valid {
		tr.NotificationTemplate = &notification.String
	}
	if createdBy.Valid {
		id := uuid.UUID(createdBy.Bytes)
		tr.CreatedBy = &id
	}
}
