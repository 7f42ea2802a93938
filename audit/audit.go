// Package audit provides the fire-and-forget audit event seam. Capture
// handlers record events here; delivery to the real audit store is an
// external concern, so the default recorder just logs.
package audit

import (
	"log"

	"github.com/google/uuid"
)

// Event is one recorded action.
type Event struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	Action    string // e.g. "incident.created"
	Entity    string
	EntityID  uuid.UUID
}

// Recorder accepts audit events. Implementations must not block the
// caller and must never return an error to it.
type Recorder interface {
	Record(e Event)
}

type logRecorder struct{}

func (logRecorder) Record(e Event) {
	go log.Printf("audit: company=%s user=%s action=%s %s/%s",
		e.CompanyID, e.UserID, e.Action, e.Entity, e.EntityID)
}

// Default is the process-wide recorder. Replaceable in tests or by main
// wiring.
var Default Recorder = logRecorder{}

// Record sends an event to the default recorder.
func Record(e Event) {
	Default.Record(e)
}
