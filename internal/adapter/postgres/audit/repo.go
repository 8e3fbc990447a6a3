// Package audit implements the workflow audit-log repository using
// PostgreSQL. Records are append-only; they are written in the same
// transaction as the configuration change they describe.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/leaddesk/crm-backend/internal/adapter/postgres"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createSQL = `
INSERT INTO workflow_audit (desk_id, user_id, entity_type, entity_id, action, changes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, desk_id, user_id, entity_type, entity_id, action, changes, created_at`

// Create inserts a new audit record and returns the persisted row.
func (r *Repo) Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var changesJSON []byte
	if record.Changes != nil {
		var err error
		changesJSON, err = json.Marshal(record.Changes)
		if err != nil {
			return domain.AuditRecord{}, fmt.Errorf("audit_record marshal changes: %w", err)
		}
	}

	row := q.QueryRow(ctx, createSQL,
		record.DeskID, record.UserID, string(record.EntityType),
		record.EntityID, string(record.Action), changesJSON,
	)

	created, err := scanRecord(row)
	if err != nil {
		return domain.AuditRecord{}, postgres.MapError(err, "audit_record", record.ID)
	}

	return created, nil
}

// Log creates an audit record without returning it (fire-and-forget).
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.Create(ctx, record)
	return err
}

const byEntitySQL = `
SELECT id, desk_id, user_id, entity_type, entity_id, action, changes, created_at
FROM workflow_audit
WHERE desk_id = $1 AND entity_type = $2 AND entity_id = $3
ORDER BY created_at DESC
LIMIT $4`

// ByEntity returns the change history for a specific entity, newest first,
// limited to limit records.
func (r *Repo) ByEntity(ctx context.Context, deskID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, byEntitySQL, deskID, string(entityType), entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit by entity: %w", err)
	}
	defer rows.Close()

	var result []domain.AuditRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("audit by entity: %w", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit by entity: %w", err)
	}

	if result == nil {
		result = []domain.AuditRecord{}
	}

	return result, nil
}

func scanRecord(row pgx.Row) (domain.AuditRecord, error) {
	var (
		record      domain.AuditRecord
		userID      pgtype.UUID
		entityID    pgtype.UUID
		entityType  string
		action      string
		changesJSON []byte
	)

	err := row.Scan(
		&record.ID, &record.DeskID, &userID, &entityType,
		&entityID, &action, &changesJSON, &record.CreatedAt,
	)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	record.EntityType = domain.EntityType(entityType)
	record.Action = domain.AuditAction(action)

	if userID.Valid {
		id := uuid.UUID(userID.Bytes)
		record.UserID = &id
	}
	if entityID.Valid {
		id := uuid.UUID(entityID.Bytes)
		record.EntityID = &id
	}
	if len(changesJSON) > 0 {
		if err := json.Unmarshal(changesJSON, &record.Changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("audit_record unmarshal changes: %w", err)
		}
	}

	return record, nil
}
