package lead_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leaddesk/crm-backend/internal/adapter/postgres/lead"
	"github.com/leaddesk/crm-backend/internal/adapter/postgres/testhelper"
	"github.com/leaddesk/crm-backend/internal/domain"
)

func newRepo(t *testing.T) (*lead.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return lead.New(pool), pool
}

func TestRepo_CountByState(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	deskID := testhelper.SeedDesk(t, pool)
	st := testhelper.SeedState(t, pool, deskID, "client", 1)

	testhelper.SeedLead(t, pool, deskID, "client", &st.ID)
	testhelper.SeedLead(t, pool, deskID, "client", &st.ID)
	testhelper.SeedLead(t, pool, deskID, "new", nil)

	count, err := repo.CountByState(ctx, st.ID)
	if err != nil {
		t.Fatalf("CountByState: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}

	count, err = repo.CountByState(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CountByState unknown: %v", err)
	}
	if count != 0 {
		t.Errorf("count for unknown state: got %d, want 0", count)
	}
}

func TestRepo_BackfillLegacyStatuses(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	deskID := testhelper.SeedDesk(t, pool)
	contacted := testhelper.SeedState(t, pool, deskID, "contacted", 1)
	inactive := testhelper.SeedState(t, pool, deskID, "archived", 2)
	if _, err := pool.Exec(ctx, `UPDATE desk_states SET is_active = false WHERE id = $1`, inactive.ID); err != nil {
		t.Fatalf("deactivate state: %v", err)
	}

	matching := testhelper.SeedLead(t, pool, deskID, "contacted", nil)
	unmatched := testhelper.SeedLead(t, pool, deskID, "some-free-text", nil)
	inactiveMatch := testhelper.SeedLead(t, pool, deskID, "archived", nil)
	alreadySet := testhelper.SeedLead(t, pool, deskID, "contacted", &contacted.ID)

	updated, err := repo.BackfillLegacyStatuses(ctx, deskID)
	if err != nil {
		t.Fatalf("BackfillLegacyStatuses: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated count: got %d, want 1", updated)
	}

	got, err := repo.GetByID(ctx, matching)
	if err != nil {
		t.Fatalf("read matching lead: %v", err)
	}
	if got.DeskStateID == nil || *got.DeskStateID != contacted.ID {
		t.Errorf("matching lead: desk_state_id = %v, want %s", got.DeskStateID, contacted.ID)
	}
	if got.Status != "contacted" {
		t.Errorf("legacy status overwritten: %q", got.Status)
	}

	for name, id := range map[string]uuid.UUID{"unmatched": unmatched, "inactive match": inactiveMatch} {
		got, err = repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("read %s lead: %v", name, err)
		}
		if got.DeskStateID != nil {
			t.Errorf("%s lead should remain unmigrated, got %v", name, got.DeskStateID)
		}
	}

	// Already-normalized lead untouched.
	got, err = repo.GetByID(ctx, alreadySet)
	if err != nil {
		t.Fatalf("read already-set lead: %v", err)
	}
	if got.DeskStateID == nil || *got.DeskStateID != contacted.ID {
		t.Errorf("already-set lead changed: %v", got.DeskStateID)
	}

	// Second run is a no-op.
	updated, err = repo.BackfillLegacyStatuses(ctx, deskID)
	if err != nil {
		t.Fatalf("BackfillLegacyStatuses second run: %v", err)
	}
	if updated != 0 {
		t.Errorf("second run updated %d leads, want 0", updated)
	}
}

func TestRepo_BackfillLegacyStatuses_DeskScoping(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	deskA := testhelper.SeedDesk(t, pool)
	deskB := testhelper.SeedDesk(t, pool)
	testhelper.SeedState(t, pool, deskA, "contacted", 1)
	testhelper.SeedState(t, pool, deskB, "contacted", 1)
	otherLead := testhelper.SeedLead(t, pool, deskB, "contacted", nil)

	updated, err := repo.BackfillLegacyStatuses(ctx, deskA)
	if err != nil {
		t.Fatalf("BackfillLegacyStatuses: %v", err)
	}
	if updated != 0 {
		t.Errorf("desk A backfill touched %d leads, want 0", updated)
	}

	got, err := repo.GetByID(ctx, otherLead)
	if err != nil {
		t.Fatalf("read desk B lead: %v", err)
	}
	if got.DeskStateID != nil {
		t.Errorf("desk B lead must not be migrated by desk A backfill, got %v", got.DeskStateID)
	}
	if got.DeskID != deskB {
		t.Errorf("lead desk: got %s, want %s", got.DeskID, deskB)
	}
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
