package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"clinicportal_backend/internal/email"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/reports/domain"
	"clinicportal_backend/internal/reports/repository"
	"clinicportal_backend/internal/reports/transport"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	jobs map[uuid.UUID]*repository.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[uuid.UUID]*repository.Job)}
}

func (f *fakeStore) Create(_ context.Context, clinicID, requestedBy uuid.UUID, requestedEmail, kind string) (repository.Job, error) {
	j := &repository.Job{
		ID:             uuid.New(),
		ClinicID:       clinicID,
		RequestedBy:    requestedBy,
		RequestedEmail: requestedEmail,
		Kind:           kind,
		Status:         repository.StatusPending,
		CreatedAt:      time.Now(),
	}
	f.jobs[j.ID] = j
	return *j, nil
}

func (f *fakeStore) GetByID(_ context.Context, clinicID, id uuid.UUID) (repository.Job, error) {
	j, ok := f.jobs[id]
	if !ok || j.ClinicID != clinicID {
		return repository.Job{}, repository.ErrNotFound
	}
	return *j, nil
}

func (f *fakeStore) List(_ context.Context, clinicID uuid.UUID, _ int) ([]repository.Job, error) {
	out := make([]repository.Job, 0)
	for _, j := range f.jobs {
		if j.ClinicID == clinicID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) Cancel(_ context.Context, clinicID, id uuid.UUID) (bool, error) {
	j, ok := f.jobs[id]
	if !ok || j.ClinicID != clinicID || j.Status != repository.StatusPending {
		return false, nil
	}
	j.Status = repository.StatusCancelled
	return true, nil
}

func (f *fakeStore) Claim(_ context.Context, clinicID, id uuid.UUID) (bool, error) {
	j, ok := f.jobs[id]
	if !ok || j.ClinicID != clinicID {
		return false, nil
	}
	switch j.Status {
	case repository.StatusPending, repository.StatusProcessing, repository.StatusFailed:
		j.Status = repository.StatusProcessing
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, id uuid.UUID, fileKey string) error {
	now := time.Now()
	j := f.jobs[id]
	j.Status = repository.StatusCompleted
	j.FileKey = &fileKey
	j.CompletedAt = &now
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	j := f.jobs[id]
	j.Status = repository.StatusFailed
	j.LastError = &lastError
	return nil
}

type fakeArtifacts struct {
	uploads int
}

func (f *fakeArtifacts) Upload(_ context.Context, clinicID uuid.UUID, fileName, _ string, _ []byte) (string, error) {
	f.uploads++
	return clinicID.String() + "/" + fileName, nil
}

func (f *fakeArtifacts) DownloadURL(_ context.Context, fileKey string) (string, error) {
	return "https://storage.example/" + fileKey, nil
}

func newTestService(store *fakeStore, artifacts *fakeArtifacts) *Service {
	log := logger.New("development")
	return New(
		store,
		artifacts,
		func(_ context.Context, _ uuid.UUID) ([]domain.StageStat, error) {
			return []domain.StageStat{{StageName: "Novo contato", LeadCount: 2}}, nil
		},
		func(_ context.Context, _ uuid.UUID) (string, bool, error) { return "Clínica Sorriso", false, nil },
		func(_ context.Context, _, _ uuid.UUID) error { return nil },
		email.NoopSender{},
		events.NewInMemoryBus(log),
		log,
	)
}

func request(t *testing.T, svc *Service, clinicID uuid.UUID) transport.ReportJobResponse {
	t.Helper()
	job, err := svc.Request(context.Background(), clinicID, uuid.New(),
		transport.RequestReportRequest{Kind: KindPipelineFunnel, NotifyEmail: "dr@clinic.example"})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return job
}

func TestCancelWhilePending(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeArtifacts{})
	clinicID := uuid.New()

	job := request(t, svc, clinicID)

	cancelled, err := svc.Cancel(context.Background(), clinicID, job.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != repository.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestCancelledJobIsNeverProcessed(t *testing.T) {
	store := newFakeStore()
	artifacts := &fakeArtifacts{}
	svc := newTestService(store, artifacts)
	clinicID := uuid.New()

	job := request(t, svc, clinicID)
	if _, err := svc.Cancel(context.Background(), clinicID, job.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.Process(context.Background(), clinicID, job.ID); err != nil {
		t.Fatalf("processing a cancelled job must be a silent skip, got %v", err)
	}
	if artifacts.uploads != 0 {
		t.Fatal("a cancelled job must not produce an artifact")
	}
	if store.jobs[job.ID].Status != repository.StatusCancelled {
		t.Fatal("the job must stay cancelled")
	}
}

func TestCancelAfterProcessingConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeArtifacts{})
	clinicID := uuid.New()

	job := request(t, svc, clinicID)
	if err := svc.Process(context.Background(), clinicID, job.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), clinicID, job.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("cancelling a finished job must conflict, got %v", err)
	}
}

func TestProcessCompletesJob(t *testing.T) {
	store := newFakeStore()
	artifacts := &fakeArtifacts{}
	svc := newTestService(store, artifacts)
	clinicID := uuid.New()

	job := request(t, svc, clinicID)
	if err := svc.Process(context.Background(), clinicID, job.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	stored := store.jobs[job.ID]
	if stored.Status != repository.StatusCompleted || stored.FileKey == nil {
		t.Fatalf("job must be completed with an artifact, got %s", stored.Status)
	}
	if artifacts.uploads != 1 {
		t.Fatalf("expected one upload, got %d", artifacts.uploads)
	}

	download, err := svc.DownloadURL(context.Background(), clinicID, job.ID)
	if err != nil {
		t.Fatalf("download url failed: %v", err)
	}
	if !strings.HasPrefix(download.URL, "https://storage.example/") {
		t.Fatalf("unexpected download url %s", download.URL)
	}
}

func TestProcessUnknownKindFailsJob(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeArtifacts{})
	clinicID := uuid.New()

	j, err := store.Create(context.Background(), clinicID, uuid.New(), "", "unknown_kind")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Process(context.Background(), clinicID, j.ID); err == nil {
		t.Fatal("expected an error for an unknown report kind")
	}
	stored := store.jobs[j.ID]
	if stored.Status != repository.StatusFailed || stored.LastError == nil {
		t.Fatalf("job must record the failure, got %s", stored.Status)
	}
	if !strings.Contains(*stored.LastError, fmt.Sprintf("%q", "unknown_kind")) {
		t.Fatalf("failure reason must name the kind, got %s", *stored.LastError)
	}
}
