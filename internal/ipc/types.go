package ipc

import (
	"mintwatch/internal/daemon"
	"mintwatch/internal/mintlog"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/pipeline status information.
type StatusResponse struct {
	daemon.Status
	PID int `json:"pid"`
}

// WatcherStartRequest resumes inbox watching.
type WatcherStartRequest struct{}

// WatcherStartResponse indicates whether the watcher was started.
type WatcherStartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// WatcherStopRequest pauses inbox watching.
type WatcherStopRequest struct{}

// WatcherStopResponse indicates whether a running watcher was stopped.
type WatcherStopResponse struct {
	Stopped  bool `json:"stopped"`
	InFlight int  `json:"in_flight"`
}

// MintedRequest lists minted assets.
type MintedRequest struct {
	Limit int `json:"limit"`
}

// MintedResponse contains minted assets, oldest first.
type MintedResponse struct {
	Records []mintlog.Record `json:"records"`
	Total   int              `json:"total"`
}

// FailuresRequest lists journaled failures.
type FailuresRequest struct {
	Limit int `json:"limit"`
}

// FailuresResponse contains failures, newest first.
type FailuresResponse struct {
	Failures []mintlog.Failure `json:"failures"`
}

// TestNotificationRequest sends a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
