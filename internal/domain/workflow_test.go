package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestStateUpdateParams_Empty(t *testing.T) {
	t.Parallel()

	if !(StateUpdateParams{}).Empty() {
		t.Error("zero params should be empty")
	}

	name := "new"
	if (StateUpdateParams{Name: &name}).Empty() {
		t.Error("params with Name should not be empty")
	}

	active := false
	if (StateUpdateParams{IsActive: &active}).Empty() {
		t.Error("params with IsActive should not be empty")
	}
}

func TestTransitionUpdateParams_Empty(t *testing.T) {
	t.Parallel()

	if !(TransitionUpdateParams{}).Empty() {
		t.Error("zero params should be empty")
	}

	auto := true
	if (TransitionUpdateParams{IsAutomatic: &auto}).Empty() {
		t.Error("params with IsAutomatic should not be empty")
	}
}

func TestStateTransition_IsGlobal(t *testing.T) {
	t.Parallel()

	if !(StateTransition{}).IsGlobal() {
		t.Error("transition without a source should be global")
	}

	from := uuid.New()
	if (StateTransition{FromStateID: &from}).IsGlobal() {
		t.Error("transition with a source should not be global")
	}
}

func TestTransitionMatrix_Permitted(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	m := TransitionMatrix{
		Allowed: map[uuid.UUID]map[uuid.UUID]bool{
			a: {b: true},
			b: {},
		},
	}

	if !m.Permitted(a, b) {
		t.Error("a -> b should be permitted")
	}
	if m.Permitted(b, a) {
		t.Error("b -> a should not be permitted")
	}
	if m.Permitted(c, b) {
		t.Error("unknown row should not be permitted")
	}
}
