package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CAPA status values.
const (
	CapaStatusOpen       = "open"
	CapaStatusInProgress = "in_progress"
	CapaStatusDone       = "done"
	CapaStatusOverdue    = "overdue"
)

// CAPA priority values.
const (
	CapaPriorityLow    = "low"
	CapaPriorityMedium = "medium"
	CapaPriorityHigh   = "high"
)

// CAPA origin types.
const (
	CapaOriginIncident   = "incident"
	CapaOriginInspection = "inspection"
)

// Capa is a corrective/preventive action. Auto-derived CAPAs point back
// at the inspection that spawned them via (OriginType, OriginID).
type Capa struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"companyId"`
	OriginType  string    `gorm:"size:20;not null;index:idx_capas_origin" json:"originType"`
	OriginID    uuid.UUID `gorm:"type:uuid;not null;index:idx_capas_origin" json:"originId"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null" json:"ownerId"`
	CreatorID   uuid.UUID `gorm:"type:uuid;not null" json:"creatorId"`
	Status      string    `gorm:"size:20;default:'open'" json:"status"`
	Priority    string    `gorm:"size:20;default:'medium'" json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Capa) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// CanTransitionTo reports whether a status change is a legal workflow
// step. Any state may be closed directly; reopening a done CAPA is not
// allowed.
func (c *Capa) CanTransitionTo(status string) bool {
	switch status {
	case CapaStatusDone:
		return true
	case CapaStatusInProgress:
		return c.Status == CapaStatusOpen || c.Status == CapaStatusOverdue
	case CapaStatusOpen:
		return c.Status == CapaStatusInProgress
	case CapaStatusOverdue:
		return c.Status == CapaStatusOpen || c.Status == CapaStatusInProgress
	default:
		return false
	}
}
