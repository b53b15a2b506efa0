// Package service implements the pipeline stage lifecycle: create, rename,
// drag-and-drop reorder, and deletion with lead migration.
package service

import (
	"context"
	"errors"
	"strings"

	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/pipeline/repository"
	"clinicportal_backend/internal/pipeline/transport"
	"clinicportal_backend/platform/apperr"

	"github.com/google/uuid"
)

// StageStore is the persistence surface for stages. *repository.Repository
// implements it; tests substitute an in-memory fake.
type StageStore interface {
	Create(ctx context.Context, clinicID uuid.UUID, name string, displayOrder int) (repository.Stage, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (repository.Stage, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]repository.Stage, error)
	Rename(ctx context.Context, clinicID, id uuid.UUID, name string) (repository.Stage, error)
	UpsertStageOrder(ctx context.Context, clinicID uuid.UUID, updates []repository.StageOrderUpdate) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
}

// LeadMover is the slice of the leads bounded context the stage-deletion
// migration needs.
type LeadMover interface {
	CountByStage(ctx context.Context, clinicID, stageID uuid.UUID) (int, error)
	ListIDsByStage(ctx context.Context, clinicID, stageID uuid.UUID) ([]uuid.UUID, error)
	ReassignStage(ctx context.Context, clinicID uuid.UUID, leadIDs []uuid.UUID, targetStageID uuid.UUID) (int, error)
}

type Service struct {
	stages StageStore
	leads  LeadMover
	bus    events.Bus
}

func New(stages StageStore, leads LeadMover, bus events.Bus) *Service {
	return &Service{stages: stages, leads: leads, bus: bus}
}

// Create appends a new stage at the right edge of the board: its order is the
// clinic's current maximum plus one, or zero for the first stage.
func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req transport.CreateStageRequest) (transport.StageResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.StageResponse{}, apperr.Validation("stage name must not be empty")
	}

	existing, err := s.stages.ListByClinic(ctx, clinicID)
	if err != nil {
		return transport.StageResponse{}, storeErr("list stages", err)
	}

	order := 0
	for _, stage := range existing {
		if stage.DisplayOrder >= order {
			order = stage.DisplayOrder + 1
		}
	}

	stage, err := s.stages.Create(ctx, clinicID, name, order)
	if err != nil {
		return transport.StageResponse{}, storeErr("create stage", err)
	}

	return toStageResponse(stage), nil
}

func (s *Service) Rename(ctx context.Context, clinicID, stageID uuid.UUID, req transport.RenameStageRequest) (transport.StageResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.StageResponse{}, apperr.Validation("stage name must not be empty")
	}

	stage, err := s.stages.Rename(ctx, clinicID, stageID, name)
	if err != nil {
		return transport.StageResponse{}, mapNotFound(err)
	}

	return toStageResponse(stage), nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID) ([]transport.StageResponse, error) {
	stages, err := s.stages.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, storeErr("list stages", err)
	}

	out := make([]transport.StageResponse, len(stages))
	for i, stage := range stages {
		out[i] = toStageResponse(stage)
	}
	return out, nil
}

// Board returns the kanban columns with their lead counts.
func (s *Service) Board(ctx context.Context, clinicID uuid.UUID) ([]transport.BoardColumnResponse, error) {
	stages, err := s.stages.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, storeErr("list stages", err)
	}

	columns := make([]transport.BoardColumnResponse, len(stages))
	for i, stage := range stages {
		count, err := s.leads.CountByStage(ctx, clinicID, stage.ID)
		if err != nil {
			return nil, storeErr("count stage leads", err)
		}
		columns[i] = transport.BoardColumnResponse{
			Stage:     toStageResponse(stage),
			LeadCount: count,
		}
	}
	return columns, nil
}

// Reorder moves sourceID to the position currently occupied by targetID and
// reassigns every stage a dense 0..n-1 order. The bulk order write is
// all-or-nothing: either every stage ends up with its new order or none do.
func (s *Service) Reorder(ctx context.Context, clinicID, sourceID, targetID uuid.UUID) ([]transport.StageResponse, error) {
	stages, err := s.stages.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, storeErr("list stages", err)
	}

	sourceIdx, targetIdx := -1, -1
	for i, stage := range stages {
		if stage.ID == sourceID {
			sourceIdx = i
		}
		if stage.ID == targetID {
			targetIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return nil, apperr.NotFound("stage not found")
	}

	if sourceIdx != targetIdx {
		moved := stages[sourceIdx]
		stages = append(stages[:sourceIdx], stages[sourceIdx+1:]...)
		stages = append(stages[:targetIdx], append([]repository.Stage{moved}, stages[targetIdx:]...)...)
	}

	updates := make([]repository.StageOrderUpdate, 0, len(stages))
	for i := range stages {
		if stages[i].DisplayOrder != i {
			updates = append(updates, repository.StageOrderUpdate{ID: stages[i].ID, DisplayOrder: i})
			stages[i].DisplayOrder = i
		}
	}

	if err := s.stages.UpsertStageOrder(ctx, clinicID, updates); err != nil {
		return nil, storeErr("persist stage order", err)
	}

	ids := make([]uuid.UUID, len(stages))
	out := make([]transport.StageResponse, len(stages))
	for i, stage := range stages {
		ids[i] = stage.ID
		out[i] = toStageResponse(stage)
	}

	s.bus.Publish(ctx, events.StagesReordered{
		BaseEvent: events.NewBaseEvent(),
		ClinicID:  clinicID,
		StageIDs:  ids,
	})

	return out, nil
}

// Delete removes a stage. An empty stage is deleted directly. A stage with
// leads requires a target stage to receive them; without one the call fails
// with PreconditionRequired and nothing changes. With a target the operation
// is two-phase: migrate every lead, then delete the stage. A failure during
// migration leaves the stage in place, and the whole call is safe to retry
// because re-migrating an already-moved lead is a no-op.
func (s *Service) Delete(ctx context.Context, clinicID, stageID uuid.UUID, targetStageID *uuid.UUID) error {
	if _, err := s.stages.GetByID(ctx, clinicID, stageID); err != nil {
		return mapNotFound(err)
	}

	count, err := s.leads.CountByStage(ctx, clinicID, stageID)
	if err != nil {
		return storeErr("count stage leads", err)
	}

	moved := 0
	if count > 0 {
		if targetStageID == nil {
			return apperr.PreconditionRequired("stage still has leads; supply a target stage to move them to").
				WithDetails(map[string]int{"leadCount": count})
		}
		if *targetStageID == stageID {
			return apperr.Validation("target stage must differ from the stage being deleted")
		}
		if _, err := s.stages.GetByID(ctx, clinicID, *targetStageID); err != nil {
			return mapNotFound(err)
		}

		leadIDs, err := s.leads.ListIDsByStage(ctx, clinicID, stageID)
		if err != nil {
			return storeErr("list stage leads", err)
		}

		moved, err = s.leads.ReassignStage(ctx, clinicID, leadIDs, *targetStageID)
		if err != nil {
			// Migration failed partway: the stage must survive. Re-invoking
			// Delete resumes where it left off.
			return storeErr("migrate stage leads", err)
		}
	}

	if err := s.stages.Delete(ctx, clinicID, stageID); err != nil {
		return mapNotFound(err)
	}

	s.bus.Publish(ctx, events.StageDeleted{
		BaseEvent:     events.NewBaseEvent(),
		StageID:       stageID,
		ClinicID:      clinicID,
		TargetStageID: targetStageID,
		MovedLeads:    moved,
	})

	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("pipeline stage not found")
	}
	return storeErr("stage lookup", err)
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}

func toStageResponse(stage repository.Stage) transport.StageResponse {
	return transport.StageResponse{
		ID:        stage.ID,
		ClinicID:  stage.ClinicID,
		Name:      stage.Name,
		Order:     stage.DisplayOrder,
		CreatedAt: stage.CreatedAt,
		UpdatedAt: stage.UpdatedAt,
	}
}
