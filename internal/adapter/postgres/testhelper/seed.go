package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leaddesk/crm-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedDesk creates a desk row and returns its id.
func SeedDesk(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO desks (id, name) VALUES ($1, $2)`,
		id, "Desk "+uniqueSuffix(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDesk: %v", err)
	}

	return id
}

// SeedUser creates a user row and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	suffix := uniqueSuffix()
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`,
		id, "agent-"+suffix+"@example.com", "Agent "+suffix,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser: %v", err)
	}

	return id
}

// SeedState creates a desk state with the given name and sort order.
// The state is active, non-initial, non-final, with default presentation.
func SeedState(t *testing.T, pool *pgxpool.Pool, deskID uuid.UUID, name string, sortOrder int) domain.DeskState {
	t.Helper()
	ctx := context.Background()

	st := domain.DeskState{
		ID:          uuid.New(),
		DeskID:      deskID,
		Name:        name,
		DisplayName: name,
		Color:       domain.DefaultStateColor,
		Icon:        domain.DefaultStateIcon,
		IsActive:    true,
		SortOrder:   sortOrder,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO desk_states (id, desk_id, name, display_name, color, icon, is_active, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		st.ID, st.DeskID, st.Name, st.DisplayName, st.Color, st.Icon, st.IsActive, st.SortOrder,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedState %q: %v", name, err)
	}

	return st
}

// SeedTransition creates an active transition edge. A nil from makes it a
// wildcard transition.
func SeedTransition(t *testing.T, pool *pgxpool.Pool, deskID uuid.UUID, from *uuid.UUID, to uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO state_transitions (id, desk_id, from_state_id, to_state_id, is_active)
		 VALUES ($1, $2, $3, $4, true)`,
		id, deskID, from, to,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTransition: %v", err)
	}

	return id
}

// SeedLead creates a lead with a legacy status string and an optional
// normalized state reference.
func SeedLead(t *testing.T, pool *pgxpool.Pool, deskID uuid.UUID, status string, stateID *uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO leads (id, desk_id, status, desk_state_id) VALUES ($1, $2, $3, $4)`,
		id, deskID, status, stateID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLead: %v", err)
	}

	return id
}
