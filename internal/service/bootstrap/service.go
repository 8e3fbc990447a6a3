package bootstrap

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type stateRepo interface {
	List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.DeskState, error)
}

type transitionRepo interface {
	Create(ctx context.Context, tr *domain.StateTransition) (*domain.StateTransition, error)
}

type leadRepo interface {
	BackfillLegacyStatuses(ctx context.Context, deskID uuid.UUID) (int64, error)
}

type auditRepo interface {
	Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Default workflow template
// ---------------------------------------------------------------------------

// templateEdge names a default transition by state name. An empty From
// is a wildcard edge.
type templateEdge struct {
	From string
	To   string
}

// defaultEdges is the standard sales funnel wired into every new desk:
// forward movement through the pipeline plus a wildcard into lost.
var defaultEdges = []templateEdge{
	{From: "new", To: "contacted"},
	{From: "contacted", To: "interested"},
	{From: "contacted", To: "not_interested"},
	{From: "interested", To: "demo_account"},
	{From: "interested", To: "ftd"},
	{From: "demo_account", To: "ftd"},
	{From: "ftd", To: "client"},
	{From: "", To: "lost"},
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements desk workflow bootstrapping: seeding the default
// transition set and migrating legacy free-text lead statuses onto
// configured states.
type Service struct {
	log         *slog.Logger
	states      stateRepo
	transitions transitionRepo
	leads       leadRepo
	audit       auditRepo
	tx          txManager
}

// NewService creates a new bootstrap service.
func NewService(
	logger *slog.Logger,
	states stateRepo,
	transitions transitionRepo,
	leads leadRepo,
	audit auditRepo,
	tx txManager,
) *Service {
	return &Service{
		log:         logger.With("service", "bootstrap"),
		states:      states,
		transitions: transitions,
		leads:       leads,
		audit:       audit,
		tx:          tx,
	}
}
