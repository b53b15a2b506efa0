package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type leadRow struct {
	id        uuid.UUID
	stageID   uuid.UUID
	updatedAt time.Time
}

func (r leadRow) RowID() uuid.UUID        { return r.id }
func (r leadRow) RowUpdatedAt() time.Time { return r.updatedAt }

func TestApplyDuplicateIsNoop(t *testing.T) {
	view := NewView[leadRow]()
	row := leadRow{id: uuid.New(), updatedAt: time.Now()}

	if !view.Apply(Change[leadRow]{Op: OpInsert, Row: row}) {
		t.Fatal("first delivery must change the view")
	}
	if view.Apply(Change[leadRow]{Op: OpInsert, Row: row}) {
		t.Fatal("redelivery of the same notification must be a no-op")
	}
	if view.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", view.Len())
	}
}

func TestApplyKeepsNewerRowOnReorderedDelivery(t *testing.T) {
	view := NewView[leadRow]()
	id := uuid.New()
	newStage := uuid.New()
	base := time.Now()

	newer := leadRow{id: id, stageID: newStage, updatedAt: base.Add(time.Second)}
	older := leadRow{id: id, stageID: uuid.New(), updatedAt: base}

	if !view.Apply(Change[leadRow]{Op: OpUpdate, Row: newer}) {
		t.Fatal("newer row must apply")
	}
	if view.Apply(Change[leadRow]{Op: OpInsert, Row: older}) {
		t.Fatal("a late older notification must not regress the view")
	}

	got, ok := view.Get(id)
	if !ok || got.stageID != newStage {
		t.Fatalf("view lost the newer stage assignment: %+v", got)
	}
}

func TestApplyConvergesUnderAnyPermutation(t *testing.T) {
	id := uuid.New()
	base := time.Now()
	versions := []leadRow{
		{id: id, stageID: uuid.New(), updatedAt: base},
		{id: id, stageID: uuid.New(), updatedAt: base.Add(time.Second)},
		{id: id, stageID: uuid.New(), updatedAt: base.Add(2 * time.Second)},
	}
	final := versions[2]

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
		// with duplication
		{2, 2, 0, 1, 1},
	}

	for _, perm := range permutations {
		view := NewView[leadRow]()
		for _, i := range perm {
			view.Apply(Change[leadRow]{Op: OpUpdate, Row: versions[i]})
		}

		got, ok := view.Get(id)
		if !ok || got.stageID != final.stageID {
			t.Fatalf("permutation %v did not converge: %+v", perm, got)
		}
		if view.Len() != 1 {
			t.Fatalf("permutation %v produced %d rows", perm, view.Len())
		}
	}
}

func TestViewTracksIndependentRows(t *testing.T) {
	view := NewView[leadRow]()
	now := time.Now()

	a := leadRow{id: uuid.New(), updatedAt: now}
	b := leadRow{id: uuid.New(), updatedAt: now}
	view.Apply(Change[leadRow]{Op: OpInsert, Row: a})
	view.Apply(Change[leadRow]{Op: OpInsert, Row: b})

	if view.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", view.Len())
	}
	if len(view.Rows()) != 2 {
		t.Fatal("Rows must return every tracked row")
	}
}
