package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskChatDeliverMessage = "chat.deliver_message"

const TaskAppointmentReminder = "appointments.reminder"

const TaskGenerateReport = "reports.generate"

type ChatDeliverMessagePayload struct {
	MessageID string `json:"messageId"`
}

type AppointmentReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
	ClinicID      string `json:"clinicId"`
}

type GenerateReportPayload struct {
	JobID    string `json:"jobId"`
	ClinicID string `json:"clinicId"`
}

func NewChatDeliverMessageTask(payload ChatDeliverMessagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChatDeliverMessage, data), nil
}

func ParseChatDeliverMessagePayload(task *asynq.Task) (ChatDeliverMessagePayload, error) {
	var payload ChatDeliverMessagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ChatDeliverMessagePayload{}, err
	}
	return payload, nil
}

func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

func ParseAppointmentReminderPayload(task *asynq.Task) (AppointmentReminderPayload, error) {
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentReminderPayload{}, err
	}
	return payload, nil
}

func NewGenerateReportTask(payload GenerateReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateReport, data), nil
}

func ParseGenerateReportPayload(task *asynq.Task) (GenerateReportPayload, error) {
	var payload GenerateReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GenerateReportPayload{}, err
	}
	return payload, nil
}
