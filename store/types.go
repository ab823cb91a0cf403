package store

// Alert kinds.
const (
	AlertStatusChange   = "status_change"
	AlertDeflection     = "deflection"
	AlertDeadlineMissed = "deadline_missed"
)

// Run terminal states.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ProtocolCheck is one immutable observation of one tracked protocol.
//
// ContentHash is computed over the full raw page content, not the truncated
// StatusText excerpt, so Changed can be true even when the excerpt looks
// identical — byte-level differences invisible in the excerpt still count.
// Changed is derived purely from fingerprint comparison against the most
// recent prior snapshot; a first-ever observation is never changed.
type ProtocolCheck struct {
	ID                 int64   `json:"id"`
	ProtocolNumber     string  `json:"protocol_number"`
	StatusText         string  `json:"status_text"`
	StatusDate         string  `json:"status_date"`
	Agency             string  `json:"agency"`
	Subject            string  `json:"subject"`
	ResponseText       string  `json:"response_text"`
	DeflectionType     *string `json:"deflection_type,omitempty"`
	DeflectionSeverity *string `json:"deflection_severity,omitempty"`
	EvidencePath       string  `json:"evidence_path"`
	EvidenceHash       string  `json:"evidence_hash"`
	ContentHash        string  `json:"content_hash"`
	RawLength          int64   `json:"raw_length"`
	Changed            bool    `json:"changed"`
	CheckedAt          int64   `json:"checked_at"` // unix ms UTC
}

// Alert is one notification decision. Immutable after insert; successful
// transports are recorded in alert_deliveries.
type Alert struct {
	ID             int64  `json:"id"`
	ProtocolNumber string `json:"protocol_number"`
	AlertType      string `json:"alert_type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Details        string `json:"details"`
	CreatedAt      int64  `json:"created_at"` // unix ms UTC
}

// Run is one polling cycle. CompletedAt is nil while the cycle is in flight.
type Run struct {
	ID               int64  `json:"id"`
	StartedAt        int64  `json:"started_at"` // unix ms UTC
	CompletedAt      *int64 `json:"completed_at,omitempty"`
	ProtocolsChecked int    `json:"protocols_checked"`
	AlertsGenerated  int    `json:"alerts_generated"`
	Errors           int    `json:"errors"`
	Status           string `json:"status"`
}

// Stats holds aggregate ledger counters.
type Stats struct {
	Protocols int `json:"protocols"`
	Checks    int `json:"checks"`
	Alerts    int `json:"alerts"`
	Runs      int `json:"runs"`
}
