package scheduler

import (
	"context"
	"fmt"

	"clinicportal_backend/platform/config"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// MessageDeliverer delivers one outbound chat message. The chat service
// implements it.
type MessageDeliverer interface {
	DeliverOutbound(ctx context.Context, messageID uuid.UUID) error
}

// ReportProcessor runs one report job end to end. The reports service
// implements it.
type ReportProcessor interface {
	Process(ctx context.Context, clinicID, jobID uuid.UUID) error
}

// ReminderNotifier handles a due appointment reminder. The appointments
// service implements it.
type ReminderNotifier interface {
	HandleReminderDue(ctx context.Context, clinicID, appointmentID uuid.UUID) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	chat      MessageDeliverer
	reports   ReportProcessor
	reminders ReminderNotifier
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, chat MessageDeliverer, reports ReportProcessor,
	reminders ReminderNotifier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		chat:      chat,
		reports:   reports,
		reminders: reminders,
		log:       log,
	}

	mux.HandleFunc(TaskChatDeliverMessage, w.handleChatDeliverMessage)
	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)
	mux.HandleFunc(TaskGenerateReport, w.handleGenerateReport)

	return w, nil
}

// Run serves tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleChatDeliverMessage(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseChatDeliverMessagePayload(task)
	if err != nil {
		return err
	}

	messageID, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return err
	}

	return w.chat.DeliverOutbound(ctx, messageID)
}

func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return err
	}

	appointmentID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return err
	}
	clinicID, err := uuid.Parse(payload.ClinicID)
	if err != nil {
		return err
	}

	return w.reminders.HandleReminderDue(ctx, clinicID, appointmentID)
}

func (w *Worker) handleGenerateReport(ctx context.Context, task *asynq.Task) error {
	if w.reports == nil {
		w.log.Warn("report generation requested but object storage is not configured")
		return nil
	}

	payload, err := ParseGenerateReportPayload(task)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return err
	}
	clinicID, err := uuid.Parse(payload.ClinicID)
	if err != nil {
		return err
	}

	return w.reports.Process(ctx, clinicID, jobID)
}
