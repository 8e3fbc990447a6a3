package state

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/config"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type stateRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DeskState, error)
	List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.DeskState, error)
	GetInitial(ctx context.Context, deskID uuid.UUID) (*domain.DeskState, error)
	CountByDesk(ctx context.Context, deskID uuid.UUID) (int, error)
	Create(ctx context.Context, st *domain.DeskState, sortOrder *int) (*domain.DeskState, error)
	Update(ctx context.Context, id uuid.UUID, params domain.StateUpdateParams) (*domain.DeskState, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active *bool) (*domain.DeskState, error)
	Reorder(ctx context.Context, deskID uuid.UUID, ids []uuid.UUID) error
	ClearInitial(ctx context.Context, deskID uuid.UUID) error
	MarkInitial(ctx context.Context, deskID, stateID uuid.UUID) error
}

type leadRepo interface {
	CountByState(ctx context.Context, stateID uuid.UUID) (int, error)
}

type auditRepo interface {
	Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements desk-state management: the per-desk catalog of
// pipeline stages a lead can occupy.
type Service struct {
	log    *slog.Logger
	states stateRepo
	leads  leadRepo
	audit  auditRepo
	tx     txManager
	cfg    config.WorkflowConfig
}

// NewService creates a new desk-state service.
func NewService(
	logger *slog.Logger,
	states stateRepo,
	leads leadRepo,
	audit auditRepo,
	tx txManager,
	cfg config.WorkflowConfig,
) *Service {
	return &Service{
		log:    logger.With("service", "state"),
		states: states,
		leads:  leads,
		audit:  audit,
		tx:     tx,
		cfg:    cfg,
	}
}
