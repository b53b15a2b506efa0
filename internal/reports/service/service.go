// Package service implements report jobs: requested over HTTP, rendered by
// the worker, stored in object storage, announced by email. A job can be
// cancelled only while it is still pending.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicportal_backend/internal/email"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/reports/domain"
	"clinicportal_backend/internal/reports/ports"
	"clinicportal_backend/internal/reports/repository"
	"clinicportal_backend/internal/reports/storage"
	"clinicportal_backend/internal/reports/transport"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

const KindPipelineFunnel = "pipeline_funnel"

// Store is the persistence surface for report jobs.
type Store interface {
	Create(ctx context.Context, clinicID, requestedBy uuid.UUID, requestedEmail, kind string) (repository.Job, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (repository.Job, error)
	List(ctx context.Context, clinicID uuid.UUID, limit int) ([]repository.Job, error)
	Cancel(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
	Claim(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, fileKey string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// ArtifactStore is the object-storage surface. *storage.MinIO implements it.
type ArtifactStore interface {
	Upload(ctx context.Context, clinicID uuid.UUID, fileName, contentType string, content []byte) (string, error)
	DownloadURL(ctx context.Context, fileKey string) (string, error)
}

type Service struct {
	repo       Store
	artifacts  ArtifactStore
	funnel     ports.FunnelStatsReader
	clinicInfo ports.ClinicInfoReader
	enqueue    ports.JobEnqueuer
	mail       email.Sender
	bus        events.Bus
	log        *logger.Logger
}

func New(repo Store, artifacts ArtifactStore, funnel ports.FunnelStatsReader,
	clinicInfo ports.ClinicInfoReader, enqueue ports.JobEnqueuer,
	mail email.Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		artifacts:  artifacts,
		funnel:     funnel,
		clinicInfo: clinicInfo,
		enqueue:    enqueue,
		mail:       mail,
		bus:        bus,
		log:        log,
	}
}

// Request creates a pending job and hands it to the worker queue.
func (s *Service) Request(ctx context.Context, clinicID, requestedBy uuid.UUID, req transport.RequestReportRequest) (transport.ReportJobResponse, error) {
	job, err := s.repo.Create(ctx, clinicID, requestedBy, req.NotifyEmail, req.Kind)
	if err != nil {
		return transport.ReportJobResponse{}, storeErr("create report job", err)
	}

	if err := s.enqueue(ctx, job.ID, clinicID); err != nil {
		// Leave the job pending; an operator can re-enqueue it.
		s.log.Error("failed to enqueue report job", "error", err, "jobId", job.ID)
	}

	return toResponse(job), nil
}

func (s *Service) GetByID(ctx context.Context, clinicID, id uuid.UUID) (transport.ReportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return transport.ReportJobResponse{}, mapNotFound(err)
	}
	return toResponse(job), nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, limit int) ([]transport.ReportJobResponse, error) {
	jobs, err := s.repo.List(ctx, clinicID, limit)
	if err != nil {
		return nil, storeErr("list report jobs", err)
	}

	out := make([]transport.ReportJobResponse, len(jobs))
	for i, job := range jobs {
		out[i] = toResponse(job)
	}
	return out, nil
}

// Cancel aborts a job that has not started yet. Once the worker has picked
// it up the job runs to completion and cancellation fails with Conflict.
func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID) (transport.ReportJobResponse, error) {
	cancelled, err := s.repo.Cancel(ctx, clinicID, id)
	if err != nil {
		return transport.ReportJobResponse{}, storeErr("cancel report job", err)
	}
	if !cancelled {
		job, err := s.repo.GetByID(ctx, clinicID, id)
		if err != nil {
			return transport.ReportJobResponse{}, mapNotFound(err)
		}
		return transport.ReportJobResponse{}, apperr.Conflict(
			fmt.Sprintf("report job is %s and can no longer be cancelled", job.Status))
	}

	job, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return transport.ReportJobResponse{}, mapNotFound(err)
	}
	return toResponse(job), nil
}

// DownloadURL returns a short-lived link to a completed report's artifact.
func (s *Service) DownloadURL(ctx context.Context, clinicID, id uuid.UUID) (transport.ReportDownloadResponse, error) {
	job, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return transport.ReportDownloadResponse{}, mapNotFound(err)
	}
	if job.Status != repository.StatusCompleted || job.FileKey == nil {
		return transport.ReportDownloadResponse{}, apperr.Conflict("report is not ready for download")
	}

	url, err := s.artifacts.DownloadURL(ctx, *job.FileKey)
	if err != nil {
		return transport.ReportDownloadResponse{}, apperr.Wrap(apperr.KindUnavailable, "object storage unavailable", err)
	}

	return transport.ReportDownloadResponse{
		URL:       url,
		ExpiresAt: time.Now().Add(storage.DownloadURLTTL),
	}, nil
}

// Process is the worker entry point. A job cancelled before the worker got
// to it is skipped without error.
func (s *Service) Process(ctx context.Context, clinicID, jobID uuid.UUID) error {
	claimed, err := s.repo.Claim(ctx, clinicID, jobID)
	if err != nil {
		return storeErr("claim report job", err)
	}
	if !claimed {
		s.log.Info("skipping unclaimable report job", "jobId", jobID)
		return nil
	}

	job, err := s.repo.GetByID(ctx, clinicID, jobID)
	if err != nil {
		return mapNotFound(err)
	}

	fileKey, err := s.render(ctx, clinicID, job)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
			s.log.Error("failed to mark report job failed", "error", markErr, "jobId", jobID)
		}
		return err
	}

	if err := s.repo.MarkCompleted(ctx, jobID, fileKey); err != nil {
		return storeErr("mark report job completed", err)
	}

	s.bus.Publish(ctx, events.ReportCompleted{
		BaseEvent: events.NewBaseEvent(),
		JobID:     jobID,
		ClinicID:  clinicID,
		Status:    repository.StatusCompleted,
	})

	s.notify(ctx, clinicID, job, fileKey)
	return nil
}

func (s *Service) render(ctx context.Context, clinicID uuid.UUID, job repository.Job) (string, error) {
	if job.Kind != KindPipelineFunnel {
		return "", fmt.Errorf("unknown report kind %q", job.Kind)
	}

	clinicName, _, err := s.clinicInfo(ctx, clinicID)
	if err != nil {
		return "", err
	}

	stats, err := s.funnel(ctx, clinicID)
	if err != nil {
		return "", err
	}

	content, err := domain.RenderFunnelCSV(clinicName, time.Now(), stats)
	if err != nil {
		return "", err
	}

	return s.artifacts.Upload(ctx, clinicID, "pipeline_funnel.csv", "text/csv", content)
}

// notify emails the requester when the clinic has email enabled. Failure is
// logged, never propagated: the report itself is done.
func (s *Service) notify(ctx context.Context, clinicID uuid.UUID, job repository.Job, fileKey string) {
	if job.RequestedEmail == "" {
		return
	}

	_, emailEnabled, err := s.clinicInfo(ctx, clinicID)
	if err != nil || !emailEnabled {
		return
	}

	url, err := s.artifacts.DownloadURL(ctx, fileKey)
	if err != nil {
		s.log.Error("failed to presign report for email", "error", err, "jobId", job.ID)
		return
	}

	if err := s.mail.SendReportReady(ctx, job.RequestedEmail, job.Kind, url); err != nil {
		s.log.Error("failed to send report email", "error", err, "jobId", job.ID)
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("report job not found")
	}
	return storeErr("report job lookup", err)
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}

func toResponse(j repository.Job) transport.ReportJobResponse {
	return transport.ReportJobResponse{
		ID:          j.ID,
		Kind:        j.Kind,
		Status:      j.Status,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
}
