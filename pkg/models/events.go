package models

import "time"

const (
	EventTypeHeartbeatReceived           = "HeartbeatReceived"
	EventTypeHeartbeatGracePeriodElapsed = "HeartbeatGracePeriodElapsed"
	EventTypeCustomCheckFailed           = "CustomCheckFailed"
	EventTypeCustomCheckSucceeded        = "CustomCheckSucceeded"
)

// Event is a domain notification published by the monitor or check tracker.
type Event interface {
	EventType() string
}

type HeartbeatReceived struct {
	Endpoint   string    `json:"endpoint"`
	Machine    string    `json:"machine"`
	LastSentAt time.Time `json:"last_sent_at"`
}

func (HeartbeatReceived) EventType() string { return EventTypeHeartbeatReceived }

type HeartbeatGracePeriodElapsed struct {
	Endpoint   string    `json:"endpoint"`
	Machine    string    `json:"machine"`
	LastSentAt time.Time `json:"last_sent_at"`
	DetectedAt time.Time `json:"detected_at"`
}

func (HeartbeatGracePeriodElapsed) EventType() string { return EventTypeHeartbeatGracePeriodElapsed }

type CustomCheckFailed struct {
	CustomCheckID string    `json:"custom_check_id"`
	Category      string    `json:"category"`
	Endpoint      string    `json:"endpoint"`
	Host          string    `json:"host"`
	FailureReason string    `json:"failure_reason"`
	FailedAt      time.Time `json:"failed_at"`
}

func (CustomCheckFailed) EventType() string { return EventTypeCustomCheckFailed }

type CustomCheckSucceeded struct {
	CustomCheckID string    `json:"custom_check_id"`
	Category      string    `json:"category"`
	Endpoint      string    `json:"endpoint"`
	Host          string    `json:"host"`
	SucceededAt   time.Time `json:"succeeded_at"`
}

func (CustomCheckSucceeded) EventType() string { return EventTypeCustomCheckSucceeded }
