package transition

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

type transitionRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StateTransition, error)
	List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.TransitionView, error)
	AvailableFrom(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error)
	Global(ctx context.Context, deskID uuid.UUID, toStateID *uuid.UUID) ([]domain.StateTransition, error)
	ListActive(ctx context.Context, deskID uuid.UUID) ([]domain.StateTransition, error)
	EdgeExists(ctx context.Context, deskID, fromStateID, toStateID uuid.UUID) (bool, error)
	CountByDesk(ctx context.Context, deskID uuid.UUID) (int, error)
	Create(ctx context.Context, tr *domain.StateTransition) (*domain.StateTransition, error)
	Update(ctx context.Context, id uuid.UUID, params domain.TransitionUpdateParams) (*domain.StateTransition, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type stateRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DeskState, error)
	List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.DeskState, error)
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

// Service implements transition-rule management and transition validity
// checks for desk workflows.
type Service struct {
	log         *slog.Logger
	transitions transitionRepo
	states      stateRepo
	audit       auditRepo
	tx          txManager
	cfg         config.WorkflowConfig
}

// NewService creates a new transition service.
func NewService(
	logger *slog.Logger,
	transitions transitionRepo,
	states stateRepo,
	audit auditRepo,
	tx txManager,
	cfg config.WorkflowConfig,
) *Service {
	return &Service{
		log:         logger.With("service", "transition"),
		transitions: transitions,
		states:      states,
		audit:       audit,
		tx:          tx,
		cfg:         cfg,
	}
}
