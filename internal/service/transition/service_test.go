package transition

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/leaddesk/crm-backend/internal/config"
	"github.com/leaddesk/crm-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockTransitionRepo struct {
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.StateTransition, error)
	ListFunc          func(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.TransitionView, error)
	AvailableFromFunc func(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error)
	GlobalFunc        func(ctx context.Context, deskID uuid.UUID, toStateID *uuid.UUID) ([]domain.StateTransition, error)
	ListActiveFunc    func(ctx context.Context, deskID uuid.UUID) ([]domain.StateTransition, error)
	EdgeExistsFunc    func(ctx context.Context, deskID, fromStateID, toStateID uuid.UUID) (bool, error)
	CountByDeskFunc   func(ctx context.Context, deskID uuid.UUID) (int, error)
	CreateFunc        func(ctx context.Context, tr *domain.StateTransition) (*domain.StateTransition, error)
	UpdateFunc        func(ctx context.Context, id uuid.UUID, params domain.TransitionUpdateParams) (*domain.StateTransition, error)
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTransitionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.StateTransition, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTransitionRepo) List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.TransitionView, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, deskID, activeOnly)
	}
	return nil, nil
}

func (m *mockTransitionRepo) AvailableFrom(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error) {
	if m.AvailableFromFunc != nil {
		return m.AvailableFromFunc(ctx, fromStateID)
	}
	return nil, nil
}

func (m *mockTransitionRepo) Global(ctx context.Context, deskID uuid.UUID, toStateID *uuid.UUID) ([]domain.StateTransition, error) {
	if m.GlobalFunc != nil {
		return m.GlobalFunc(ctx, deskID, toStateID)
	}
	return nil, nil
}

func (m *mockTransitionRepo) ListActive(ctx context.Context, deskID uuid.UUID) ([]domain.StateTransition, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, deskID)
	}
	return nil, nil
}

func (m *mockTransitionRepo) EdgeExists(ctx context.Context, deskID, fromStateID, toStateID uuid.UUID) (bool, error) {
	if m.EdgeExistsFunc != nil {
		return m.EdgeExistsFunc(ctx, deskID, fromStateID, toStateID)
	}
	return false, nil
}

func (m *mockTransitionRepo) CountByDesk(ctx context.Context, deskID uuid.UUID) (int, error) {
	if m.CountByDeskFunc != nil {
		return m.CountByDeskFunc(ctx, deskID)
	}
	return 0, nil
}

func (m *mockTransitionRepo) Create(ctx context.Context, tr *domain.StateTransition) (*domain.StateTransition, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tr)
	}
	out := *tr
	return &out, nil
}

func (m *mockTransitionRepo) Update(ctx context.Context, id uuid.UUID, params domain.TransitionUpdateParams) (*domain.StateTransition, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTransitionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockStateRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.DeskState, error)
	ListFunc    func(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.DeskState, error)
}

func (m *mockStateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeskState, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStateRepo) List(ctx context.Context, deskID uuid.UUID, activeOnly bool) ([]domain.DeskState, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, deskID, activeOnly)
	}
	return nil, nil
}

type mockAuditRepo struct {
	records []domain.AuditRecord
}

func (m *mockAuditRepo) Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	record.ID = uuid.New()
	m.records = append(m.records, record)
	return record, nil
}

type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ===========================================================================
// Fixtures
// ===========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.WorkflowConfig {
	return config.WorkflowConfig{MaxStatesPerDesk: 50, MaxTransitionsPerDesk: 500}
}

func newTestService(transitions *mockTransitionRepo, states *mockStateRepo, audit *mockAuditRepo) *Service {
	return NewService(testLogger(), transitions, states, audit, &mockTxManager{}, testConfig())
}

// stateIndex serves GetByID from a fixed set of states.
func stateIndex(states ...*domain.DeskState) *mockStateRepo {
	byID := make(map[uuid.UUID]*domain.DeskState, len(states))
	for _, st := range states {
		byID[st.ID] = st
	}
	return &mockStateRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.DeskState, error) {
			if st, ok := byID[id]; ok {
				return st, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}

func deskState(deskID uuid.UUID, name string) *domain.DeskState {
	return &domain.DeskState{
		ID:          uuid.New(),
		DeskID:      deskID,
		Name:        name,
		DisplayName: name,
		IsActive:    true,
	}
}

// ===========================================================================
// CreateTransition
// ===========================================================================

func TestCreateTransition_OK(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	from := deskState(deskID, "new")
	to := deskState(deskID, "contacted")

	audit := &mockAuditRepo{}
	svc := newTestService(&mockTransitionRepo{}, stateIndex(from, to), audit)

	created, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:      deskID,
		FromStateID: &from.ID,
		ToStateID:   to.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransition: %v", err)
	}
	if !created.IsActive {
		t.Error("new transition should be active")
	}
	if created.IsGlobal() {
		t.Error("transition with a source state must not be global")
	}
	if len(audit.records) != 1 || audit.records[0].EntityType != domain.EntityTypeTransition {
		t.Errorf("audit records = %+v, want one transition create", audit.records)
	}
}

func TestCreateTransition_InactiveOnRequest(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	from := deskState(deskID, "new")
	to := deskState(deskID, "contacted")
	inactive := false

	svc := newTestService(&mockTransitionRepo{}, stateIndex(from, to), &mockAuditRepo{})

	created, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:      deskID,
		FromStateID: &from.ID,
		ToStateID:   to.ID,
		IsActive:    &inactive,
	})
	if err != nil {
		t.Fatalf("CreateTransition: %v", err)
	}
	if created.IsActive {
		t.Error("transition requested inactive was created active")
	}
}

func TestCreateTransition_Wildcard(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	to := deskState(deskID, "lost")

	svc := newTestService(&mockTransitionRepo{}, stateIndex(to), &mockAuditRepo{})

	created, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:    deskID,
		ToStateID: to.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransition: %v", err)
	}
	if !created.IsGlobal() {
		t.Error("transition without a source state should be global")
	}
}

func TestCreateTransition_CrossDesk(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	foreign := deskState(uuid.New(), "contacted")

	svc := newTestService(&mockTransitionRepo{}, stateIndex(foreign), &mockAuditRepo{})

	_, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:    deskID,
		ToStateID: foreign.ID,
	})
	if !errors.Is(err, domain.ErrCrossDesk) {
		t.Fatalf("err = %v, want ErrCrossDesk", err)
	}
}

func TestCreateTransition_UnknownEndpoint(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockTransitionRepo{}, &mockStateRepo{}, &mockAuditRepo{})

	_, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:    uuid.New(),
		ToStateID: uuid.New(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateTransition_InvalidConditions(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockTransitionRepo{}, &mockStateRepo{}, &mockAuditRepo{})

	_, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:     uuid.New(),
		ToStateID:  uuid.New(),
		Conditions: json.RawMessage(`{"min_amount":`),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateTransition_LimitReached(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	to := deskState(deskID, "contacted")

	transitions := &mockTransitionRepo{
		CountByDeskFunc: func(ctx context.Context, deskID uuid.UUID) (int, error) {
			return 500, nil
		},
	}
	svc := newTestService(transitions, stateIndex(to), &mockAuditRepo{})

	_, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:    deskID,
		ToStateID: to.ID,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateTransition_DuplicatePropagates(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	to := deskState(deskID, "contacted")

	transitions := &mockTransitionRepo{
		CreateFunc: func(ctx context.Context, tr *domain.StateTransition) (*domain.StateTransition, error) {
			return nil, domain.ErrAlreadyExists
		},
	}
	svc := newTestService(transitions, stateIndex(to), &mockAuditRepo{})

	_, err := svc.CreateTransition(context.Background(), CreateInput{
		DeskID:    deskID,
		ToStateID: to.ID,
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

// ===========================================================================
// IsValidTransition
// ===========================================================================

func TestIsValidTransition_Permitted(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	from := deskState(deskID, "new")
	to := deskState(deskID, "contacted")

	transitions := &mockTransitionRepo{
		EdgeExistsFunc: func(ctx context.Context, d, f, tt uuid.UUID) (bool, error) {
			return d == deskID && f == from.ID && tt == to.ID, nil
		},
	}
	svc := newTestService(transitions, stateIndex(from, to), &mockAuditRepo{})

	ok, err := svc.IsValidTransition(context.Background(), from.ID, to.ID)
	if err != nil {
		t.Fatalf("IsValidTransition: %v", err)
	}
	if !ok {
		t.Error("expected transition to be permitted")
	}
}

func TestIsValidTransition_UnknownStateIsNotAnError(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockTransitionRepo{}, &mockStateRepo{}, &mockAuditRepo{})

	ok, err := svc.IsValidTransition(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("IsValidTransition: %v", err)
	}
	if ok {
		t.Error("unknown states must not be permitted")
	}
}

func TestIsValidTransition_CrossDeskDenied(t *testing.T) {
	t.Parallel()

	from := deskState(uuid.New(), "new")
	to := deskState(uuid.New(), "contacted")

	transitions := &mockTransitionRepo{
		EdgeExistsFunc: func(ctx context.Context, d, f, tt uuid.UUID) (bool, error) {
			t.Error("EdgeExists must not be reached for cross-desk states")
			return true, nil
		},
	}
	svc := newTestService(transitions, stateIndex(from, to), &mockAuditRepo{})

	ok, err := svc.IsValidTransition(context.Background(), from.ID, to.ID)
	if err != nil {
		t.Fatalf("IsValidTransition: %v", err)
	}
	if ok {
		t.Error("cross-desk transition must not be permitted")
	}
}

func TestIsValidTransition_RepoErrorPropagates(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	from := deskState(deskID, "new")
	to := deskState(deskID, "contacted")

	repoErr := errors.New("connection refused")
	transitions := &mockTransitionRepo{
		EdgeExistsFunc: func(ctx context.Context, d, f, tt uuid.UUID) (bool, error) {
			return false, repoErr
		},
	}
	svc := newTestService(transitions, stateIndex(from, to), &mockAuditRepo{})

	_, err := svc.IsValidTransition(context.Background(), from.ID, to.ID)
	if !errors.Is(err, repoErr) {
		t.Fatalf("err = %v, want %v", err, repoErr)
	}
}

// ===========================================================================
// Matrix
// ===========================================================================

func TestMatrix_WildcardFillsColumn(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	a := deskState(deskID, "new")
	b := deskState(deskID, "contacted")
	lost := deskState(deskID, "lost")

	states := &mockStateRepo{
		ListFunc: func(ctx context.Context, d uuid.UUID, activeOnly bool) ([]domain.DeskState, error) {
			return []domain.DeskState{*a, *b, *lost}, nil
		},
	}
	transitions := &mockTransitionRepo{
		ListActiveFunc: func(ctx context.Context, d uuid.UUID) ([]domain.StateTransition, error) {
			return []domain.StateTransition{
				{ID: uuid.New(), DeskID: deskID, FromStateID: &a.ID, ToStateID: b.ID, IsActive: true},
				{ID: uuid.New(), DeskID: deskID, ToStateID: lost.ID, IsActive: true},
			}, nil
		},
	}
	svc := newTestService(transitions, states, &mockAuditRepo{})

	matrix, err := svc.Matrix(context.Background(), deskID)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}

	if !matrix.Permitted(a.ID, b.ID) {
		t.Error("explicit edge new->contacted missing")
	}
	if matrix.Permitted(b.ID, a.ID) {
		t.Error("reverse edge contacted->new must not be permitted")
	}
	for _, st := range []*domain.DeskState{a, b, lost} {
		if !matrix.Permitted(st.ID, lost.ID) {
			t.Errorf("wildcard edge %s->lost missing", st.Name)
		}
	}
	if len(matrix.States) != 3 {
		t.Errorf("states = %d, want 3", len(matrix.States))
	}
	if len(matrix.Transitions) != 2 {
		t.Errorf("transitions = %d, want 2", len(matrix.Transitions))
	}
}

func TestMatrix_SkipsEdgesIntoInactiveStates(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	a := deskState(deskID, "new")
	inactive := deskState(deskID, "stale")

	states := &mockStateRepo{
		ListFunc: func(ctx context.Context, d uuid.UUID, activeOnly bool) ([]domain.DeskState, error) {
			// Active listing excludes the deactivated state.
			return []domain.DeskState{*a}, nil
		},
	}
	transitions := &mockTransitionRepo{
		ListActiveFunc: func(ctx context.Context, d uuid.UUID) ([]domain.StateTransition, error) {
			return []domain.StateTransition{
				{ID: uuid.New(), DeskID: deskID, FromStateID: &a.ID, ToStateID: inactive.ID, IsActive: true},
			}, nil
		},
	}
	svc := newTestService(transitions, states, &mockAuditRepo{})

	matrix, err := svc.Matrix(context.Background(), deskID)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if matrix.Permitted(a.ID, inactive.ID) {
		t.Error("edge into a deactivated state must not appear in the matrix")
	}
}

// ===========================================================================
// Update / Delete / AvailableTransitions
// ===========================================================================

func TestUpdateTransition_EmptyPatch(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockTransitionRepo{}, &mockStateRepo{}, &mockAuditRepo{})

	_, err := svc.UpdateTransition(context.Background(), UpdateInput{TransitionID: uuid.New()})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDeleteTransition_OK(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	tr := &domain.StateTransition{ID: uuid.New(), DeskID: deskID, ToStateID: uuid.New(), IsActive: true}

	deleted := false
	transitions := &mockTransitionRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.StateTransition, error) {
			return tr, nil
		},
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newTestService(transitions, &mockStateRepo{}, audit)

	if err := svc.DeleteTransition(context.Background(), tr.ID); err != nil {
		t.Fatalf("DeleteTransition: %v", err)
	}
	if !deleted {
		t.Error("repo Delete was not called")
	}
	if len(audit.records) != 1 || audit.records[0].Action != domain.AuditActionDelete {
		t.Errorf("audit records = %+v, want one delete", audit.records)
	}
}

func TestAvailableTransitions_MergesWildcards(t *testing.T) {
	t.Parallel()

	deskID := uuid.New()
	from := deskState(deskID, "new")
	contacted := deskState(deskID, "contacted")
	lost := deskState(deskID, "lost")

	explicit := domain.TransitionView{
		StateTransition: domain.StateTransition{
			ID: uuid.New(), DeskID: deskID, FromStateID: &from.ID, ToStateID: contacted.ID, IsActive: true,
		},
		ToState: domain.StateRef{ID: contacted.ID, Name: contacted.Name},
	}
	wildcard := domain.StateTransition{ID: uuid.New(), DeskID: deskID, ToStateID: lost.ID, IsActive: true}

	states := stateIndex(from, contacted, lost)
	states.ListFunc = func(ctx context.Context, d uuid.UUID, activeOnly bool) ([]domain.DeskState, error) {
		return []domain.DeskState{*from, *contacted, *lost}, nil
	}
	transitions := &mockTransitionRepo{
		AvailableFromFunc: func(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error) {
			return []domain.TransitionView{explicit}, nil
		},
		GlobalFunc: func(ctx context.Context, d uuid.UUID, toStateID *uuid.UUID) ([]domain.StateTransition, error) {
			return []domain.StateTransition{wildcard}, nil
		},
	}
	svc := newTestService(transitions, states, &mockAuditRepo{})

	views, err := svc.AvailableTransitions(context.Background(), from.ID)
	if err != nil {
		t.Fatalf("AvailableTransitions: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d transitions, want explicit + wildcard", len(views))
	}
	last := views[len(views)-1]
	if !last.IsGlobal() || last.ToState.Name != "lost" {
		t.Errorf("wildcard view = %+v, want global into lost", last)
	}
}

func TestAvailableTransitions_InactiveSource(t *testing.T) {
	t.Parallel()

	st := deskState(uuid.New(), "stale")
	st.IsActive = false

	transitions := &mockTransitionRepo{
		AvailableFromFunc: func(ctx context.Context, fromStateID uuid.UUID) ([]domain.TransitionView, error) {
			t.Error("repo must not be queried for an inactive source state")
			return nil, nil
		},
	}
	svc := newTestService(transitions, stateIndex(st), &mockAuditRepo{})

	views, err := svc.AvailableTransitions(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("AvailableTransitions: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("got %d transitions, want none from an inactive state", len(views))
	}
}

func TestAvailableTransitions_UnknownState(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockTransitionRepo{}, &mockStateRepo{}, &mockAuditRepo{})

	_, err := svc.AvailableTransitions(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
