package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Site represents a physical work location within a company.
// Incidents and inspections are always reported against a site.
type Site struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"companyId"`
	Company   Company        `gorm:"foreignKey:CompanyID" json:"-"`
	Name      string         `gorm:"size:150;not null" json:"name"`
	Address   string         `gorm:"size:255" json:"address"`
	Geofence  datatypes.JSON `gorm:"type:jsonb" json:"geofence,omitempty"` // JSON array of {lat, lng} vertices
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Site) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
