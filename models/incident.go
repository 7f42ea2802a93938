package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Incident is a tenant-scoped safety incident report. Records captured
// offline carry a client-generated ClientTempID which acts as the
// idempotency key: the composite unique index on
// (company_id, client_temp_id) is what makes retried submissions collapse
// onto the first persisted row. Rows created online without a temp id
// store NULL and never conflict.
type Incident struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID          uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_incidents_company_client_temp" json:"companyId"`
	SiteID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"siteId"`
	Site               *Site          `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	ReporterID         *uuid.UUID     `gorm:"type:uuid" json:"reporterId,omitempty"`
	ReporterName       string         `gorm:"size:150" json:"reporterName,omitempty"`
	Type               string         `gorm:"size:50;not null" json:"type"`
	Severity           string         `gorm:"size:20;not null" json:"severity"`
	Description        string         `gorm:"type:text" json:"description"`
	CoordsLat          *float64       `json:"coordsLat,omitempty"`
	CoordsLng          *float64       `json:"coordsLng,omitempty"`
	InsideGeofence     *bool          `json:"insideGeofence,omitempty"`
	Photos             datatypes.JSON `gorm:"type:jsonb" json:"photos,omitempty"`
	Status             string         `gorm:"size:30;default:'new'" json:"status"`
	ClientTempID       *string        `gorm:"size:64;uniqueIndex:idx_incidents_company_client_temp" json:"clientTempId,omitempty"`
	SyncedFromClientID *string        `gorm:"size:64" json:"syncedFromClientId,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func (i *Incident) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
