package models

import (
	"fmt"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// HeartbeatMessage is the payload endpoints publish on the heartbeat topic.
type HeartbeatMessage struct {
	EndpointName string    `json:"endpoint_name"`
	Host         string    `json:"host"`
	ExecutedAt   time.Time `json:"executed_at"`
}

func (m *HeartbeatMessage) Validate() error {
	if m.EndpointName == "" {
		return &ValidationError{Field: "endpoint_name", Message: "endpoint name is required"}
	}
	if m.Host == "" {
		return &ValidationError{Field: "host", Message: "host is required"}
	}
	if m.ExecutedAt.IsZero() {
		return &ValidationError{Field: "executed_at", Message: "execution time is required"}
	}
	return nil
}

// CustomCheckReport is the payload endpoints publish after running a custom check.
type CustomCheckReport struct {
	CustomCheckID string    `json:"custom_check_id"`
	Category      string    `json:"category"`
	EndpointName  string    `json:"endpoint_name"`
	Host          string    `json:"host"`
	HasFailed     bool      `json:"has_failed"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ReportedAt    time.Time `json:"reported_at"`
}

func (r *CustomCheckReport) Validate() error {
	if r.CustomCheckID == "" {
		return &ValidationError{Field: "custom_check_id", Message: "custom check id is required"}
	}
	if r.EndpointName == "" {
		return &ValidationError{Field: "endpoint_name", Message: "endpoint name is required"}
	}
	if r.Host == "" {
		return &ValidationError{Field: "host", Message: "host is required"}
	}
	if r.ReportedAt.IsZero() {
		return &ValidationError{Field: "reported_at", Message: "report time is required"}
	}
	return nil
}
