package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/pipeline/repository"
	"clinicportal_backend/internal/pipeline/transport"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStageStore keeps stages in memory, with an optional injected delete failure.
type fakeStageStore struct {
	stages     map[uuid.UUID]*repository.Stage
	failDelete error
}

func newFakeStageStore() *fakeStageStore {
	return &fakeStageStore{stages: make(map[uuid.UUID]*repository.Stage)}
}

func (f *fakeStageStore) add(clinicID uuid.UUID, name string, order int) *repository.Stage {
	stage := &repository.Stage{ID: uuid.New(), ClinicID: clinicID, Name: name, DisplayOrder: order}
	f.stages[stage.ID] = stage
	return stage
}

func (f *fakeStageStore) Create(_ context.Context, clinicID uuid.UUID, name string, displayOrder int) (repository.Stage, error) {
	return *f.add(clinicID, name, displayOrder), nil
}

func (f *fakeStageStore) GetByID(_ context.Context, clinicID, id uuid.UUID) (repository.Stage, error) {
	stage, ok := f.stages[id]
	if !ok || stage.ClinicID != clinicID {
		return repository.Stage{}, repository.ErrNotFound
	}
	return *stage, nil
}

func (f *fakeStageStore) ListByClinic(_ context.Context, clinicID uuid.UUID) ([]repository.Stage, error) {
	out := make([]repository.Stage, 0)
	for _, stage := range f.stages {
		if stage.ClinicID == clinicID {
			out = append(out, *stage)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f *fakeStageStore) Rename(_ context.Context, clinicID, id uuid.UUID, name string) (repository.Stage, error) {
	stage, ok := f.stages[id]
	if !ok || stage.ClinicID != clinicID {
		return repository.Stage{}, repository.ErrNotFound
	}
	stage.Name = name
	return *stage, nil
}

func (f *fakeStageStore) UpsertStageOrder(_ context.Context, clinicID uuid.UUID, updates []repository.StageOrderUpdate) error {
	// All-or-nothing: validate every id before applying anything.
	for _, update := range updates {
		stage, ok := f.stages[update.ID]
		if !ok || stage.ClinicID != clinicID {
			return repository.ErrNotFound
		}
	}
	for _, update := range updates {
		f.stages[update.ID].DisplayOrder = update.DisplayOrder
	}
	return nil
}

func (f *fakeStageStore) Delete(_ context.Context, clinicID, id uuid.UUID) error {
	if f.failDelete != nil {
		err := f.failDelete
		f.failDelete = nil
		return err
	}
	stage, ok := f.stages[id]
	if !ok || stage.ClinicID != clinicID {
		return repository.ErrNotFound
	}
	delete(f.stages, id)
	return nil
}

// fakeLeadMover keeps lead→stage assignments in memory.
type fakeLeadMover struct {
	leadStages map[uuid.UUID]uuid.UUID
}

func newFakeLeadMover() *fakeLeadMover {
	return &fakeLeadMover{leadStages: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeLeadMover) CountByStage(_ context.Context, _ uuid.UUID, stageID uuid.UUID) (int, error) {
	count := 0
	for _, sid := range f.leadStages {
		if sid == stageID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLeadMover) ListIDsByStage(_ context.Context, _ uuid.UUID, stageID uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	for id, sid := range f.leadStages {
		if sid == stageID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeLeadMover) ReassignStage(_ context.Context, _ uuid.UUID, leadIDs []uuid.UUID, targetStageID uuid.UUID) (int, error) {
	moved := 0
	for _, id := range leadIDs {
		if f.leadStages[id] != targetStageID {
			f.leadStages[id] = targetStageID
			moved++
		}
	}
	return moved, nil
}

func newTestService(stages *fakeStageStore, leads *fakeLeadMover) *Service {
	return New(stages, leads, events.NewInMemoryBus(logger.New("development")))
}

func TestCreateAssignsNextOrder(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	svc := newTestService(stages, newFakeLeadMover())

	first, err := svc.Create(context.Background(), clinicID, transport.CreateStageRequest{Name: "Novo contato"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.Order != 0 {
		t.Fatalf("first stage must get order 0, got %d", first.Order)
	}

	second, err := svc.Create(context.Background(), clinicID, transport.CreateStageRequest{Name: "Agendado"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if second.Order != 1 {
		t.Fatalf("second stage must get order 1, got %d", second.Order)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := newTestService(newFakeStageStore(), newFakeLeadMover())

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateStageRequest{Name: "   "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReorderProducesDenseUniqueOrder(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	a := stages.add(clinicID, "A", 0)
	b := stages.add(clinicID, "B", 1)
	c := stages.add(clinicID, "C", 2)
	d := stages.add(clinicID, "D", 3)

	svc := newTestService(stages, newFakeLeadMover())

	out, err := svc.Reorder(context.Background(), clinicID, d.ID, b.ID)
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}

	wantNames := []string{"A", "D", "B", "C"}
	if len(out) != len(wantNames) {
		t.Fatalf("expected %d stages, got %d", len(wantNames), len(out))
	}
	for i, resp := range out {
		if resp.Name != wantNames[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantNames[i], resp.Name)
		}
		if resp.Order != i {
			t.Fatalf("stage %s: expected dense order %d, got %d", resp.Name, i, resp.Order)
		}
	}

	// No stage lost or duplicated.
	seen := map[uuid.UUID]bool{}
	for _, resp := range out {
		if seen[resp.ID] {
			t.Fatalf("stage %s appears twice after reorder", resp.Name)
		}
		seen[resp.ID] = true
	}
	for _, stage := range []*repository.Stage{a, b, c, d} {
		if !seen[stage.ID] {
			t.Fatalf("stage %s lost after reorder", stage.Name)
		}
	}
}

func TestReorderUnknownStageLeavesOrdersUnchanged(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	a := stages.add(clinicID, "A", 0)
	stages.add(clinicID, "B", 1)

	svc := newTestService(stages, newFakeLeadMover())

	_, err := svc.Reorder(context.Background(), clinicID, a.ID, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	listed, _ := stages.ListByClinic(context.Background(), clinicID)
	for i, stage := range listed {
		if stage.DisplayOrder != i {
			t.Fatalf("orders must be untouched after a failed reorder, got %d at %d", stage.DisplayOrder, i)
		}
	}
}

func TestDeleteEmptyStage(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	stage := stages.add(clinicID, "Perdido", 0)
	leads := newFakeLeadMover()

	svc := newTestService(stages, leads)

	if err := svc.Delete(context.Background(), clinicID, stage.ID, nil); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := stages.GetByID(context.Background(), clinicID, stage.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("stage must be gone after delete")
	}
	if len(leads.leadStages) != 0 {
		t.Fatal("no lead may be touched when deleting an empty stage")
	}
}

func TestDeleteNonEmptyStageRequiresTarget(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	stage := stages.add(clinicID, "Em atendimento", 0)

	leads := newFakeLeadMover()
	leadID := uuid.New()
	leads.leadStages[leadID] = stage.ID

	svc := newTestService(stages, leads)

	err := svc.Delete(context.Background(), clinicID, stage.ID, nil)
	if !apperr.Is(err, apperr.KindPreconditionRequired) {
		t.Fatalf("expected precondition required, got %v", err)
	}
	if _, err := stages.GetByID(context.Background(), clinicID, stage.ID); err != nil {
		t.Fatal("stage must survive a refused delete")
	}
	if leads.leadStages[leadID] != stage.ID {
		t.Fatal("leads must be unchanged after a refused delete")
	}
}

func TestDeleteWithTargetMigratesLeads(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	source := stages.add(clinicID, "A", 0)
	target := stages.add(clinicID, "B", 1)

	leads := newFakeLeadMover()
	l1, l2 := uuid.New(), uuid.New()
	leads.leadStages[l1] = source.ID
	leads.leadStages[l2] = source.ID

	svc := newTestService(stages, leads)

	if err := svc.Delete(context.Background(), clinicID, source.ID, &target.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if leads.leadStages[l1] != target.ID || leads.leadStages[l2] != target.ID {
		t.Fatal("all leads must be migrated to the target stage")
	}
	if _, err := stages.GetByID(context.Background(), clinicID, source.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("source stage must be deleted after migration")
	}
}

func TestDeleteRetryAfterCrashBeforeStageRemoval(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	source := stages.add(clinicID, "A", 0)
	target := stages.add(clinicID, "B", 1)

	leads := newFakeLeadMover()
	l1, l2 := uuid.New(), uuid.New()
	leads.leadStages[l1] = source.ID
	leads.leadStages[l2] = source.ID

	svc := newTestService(stages, leads)

	// First attempt: migration succeeds, the stage delete itself fails.
	stages.failDelete = errors.New("connection reset")
	if err := svc.Delete(context.Background(), clinicID, source.ID, &target.ID); err == nil {
		t.Fatal("expected first delete attempt to fail")
	}
	if _, err := stages.GetByID(context.Background(), clinicID, source.ID); err != nil {
		t.Fatal("stage must never be deleted before the operation completes")
	}
	if leads.leadStages[l1] != target.ID {
		t.Fatal("migration should have completed before the crash")
	}

	// Retry: leads are already on the target, so the re-run is a no-op
	// migration followed by the delete.
	if err := svc.Delete(context.Background(), clinicID, source.ID, &target.ID); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if leads.leadStages[l1] != target.ID || leads.leadStages[l2] != target.ID {
		t.Fatal("retry must leave leads on the target stage")
	}
	if _, err := stages.GetByID(context.Background(), clinicID, source.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("retry must delete the source stage")
	}
}

func TestDeleteRejectsTargetEqualToSource(t *testing.T) {
	clinicID := uuid.New()
	stages := newFakeStageStore()
	stage := stages.add(clinicID, "A", 0)

	leads := newFakeLeadMover()
	leads.leadStages[uuid.New()] = stage.ID

	svc := newTestService(stages, leads)

	err := svc.Delete(context.Background(), clinicID, stage.ID, &stage.ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
