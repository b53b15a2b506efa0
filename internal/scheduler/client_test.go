package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "test" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + s.Addr()})
	if err != nil {
		t.Fatalf("failed to create scheduler client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, s
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestEnqueueChatDelivery(t *testing.T) {
	client, s := newTestClient(t)

	if err := client.EnqueueChatDelivery(context.Background(), uuid.New()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// asynq stores pending tasks in the queue's pending list.
	if !s.Exists("asynq:{test}:pending") {
		t.Fatal("expected a pending task in the test queue")
	}
}

func TestScheduleAppointmentReminderIsDelayed(t *testing.T) {
	client, s := newTestClient(t)

	runAt := time.Now().Add(time.Hour)
	if err := client.ScheduleAppointmentReminder(context.Background(), uuid.New(), uuid.New(), runAt); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	if s.Exists("asynq:{test}:pending") {
		t.Fatal("a future reminder must not be pending immediately")
	}
	if !s.Exists("asynq:{test}:scheduled") {
		t.Fatal("expected the reminder in the scheduled set")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueChatDelivery(context.Background(), uuid.New()); err != nil {
		t.Fatalf("nil client must be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client close must be a no-op, got %v", err)
	}
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	id := uuid.New().String()
	task, err := NewGenerateReportTask(GenerateReportPayload{JobID: id, ClinicID: id})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskGenerateReport {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	payload, err := ParseGenerateReportPayload(asynq.NewTask(task.Type(), task.Payload()))
	if err != nil {
		t.Fatal(err)
	}
	if payload.JobID != id {
		t.Fatalf("payload lost job id: %s", payload.JobID)
	}
}
