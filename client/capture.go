package client

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Coords is a captured location.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IncidentDraft is a device-side incident report. ClientTempID is
// stamped by ReportIncident; callers leave it empty.
type IncidentDraft struct {
	CompanyID    uuid.UUID  `json:"companyId"`
	SiteID       uuid.UUID  `json:"siteId"`
	ReporterID   *uuid.UUID `json:"reporterId,omitempty"`
	ReporterName string     `json:"reporterName,omitempty"`
	Type         string     `json:"type"`
	Severity     string     `json:"severity"`
	Description  string     `json:"description"`
	Coords       *Coords    `json:"coords,omitempty"`
	Photos       []string   `json:"photos,omitempty"`
	ClientTempID string     `json:"clientTempId,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// ResponseDraft is one answered checklist item.
type ResponseDraft struct {
	ItemID    string   `json:"itemId"`
	Response  string   `json:"response"`
	Comment   string   `json:"comment,omitempty"`
	PhotoURLs []string `json:"photoUrls,omitempty"`
}

// InspectionDraft is a device-side inspection submission. ClientTempID
// is stamped by SubmitInspection; callers leave it empty.
type InspectionDraft struct {
	CompanyID     uuid.UUID       `json:"companyId"`
	SiteID        uuid.UUID       `json:"siteId"`
	TemplateID    uuid.UUID       `json:"templateId"`
	InspectorID   uuid.UUID       `json:"inspectorId"`
	InspectorName string          `json:"inspectorName"`
	Responses     []ResponseDraft `json:"responses"`
	ClientTempID  string          `json:"clientTempId,omitempty"`
}

// ReportIncident stamps a fresh client temp id and captures the report:
// sent directly when online, durably queued otherwise. Every call gets
// its own temp id, so two identical drafts are two distinct records.
func (d *Dispatcher) ReportIncident(ctx context.Context, inc IncidentDraft) (*CaptureResult, error) {
	inc.ClientTempID = NewTempID()
	return d.CaptureJSON(ctx, "/api/v1/incidents", http.MethodPost, inc)
}

// SubmitInspection stamps a fresh client temp id and captures the
// submission the same way.
func (d *Dispatcher) SubmitInspection(ctx context.Context, insp InspectionDraft) (*CaptureResult, error) {
	insp.ClientTempID = NewTempID()
	return d.CaptureJSON(ctx, "/api/v1/inspections", http.MethodPost, insp)
}
