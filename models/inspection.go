package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InspectionTemplate holds a checklist definition. Global templates
// (CompanyID null, IsGlobal true) are visible to every tenant.
type InspectionTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   *uuid.UUID     `gorm:"type:uuid;index" json:"companyId,omitempty"`
	Name        string         `gorm:"size:150;not null" json:"name"`
	Description string         `gorm:"size:255" json:"description"`
	Schema      datatypes.JSON `gorm:"type:jsonb;not null" json:"schema"` // {"items": [{"id", "question", ...}]}
	IsGlobal    bool           `gorm:"default:false" json:"isGlobal"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (t *InspectionTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// TemplateItem is one checklist question within a template schema.
type TemplateItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
}

// Items decodes the template schema and returns its checklist items.
// A malformed schema yields an empty slice rather than an error; callers
// fall back to generic labels for unknown item ids.
func (t *InspectionTemplate) Items() []TemplateItem {
	var schema struct {
		Items []TemplateItem `json:"items"`
	}
	if err := json.Unmarshal(t.Schema, &schema); err != nil {
		return nil
	}
	return schema.Items
}

// InspectionResponse is one answered checklist item.
type InspectionResponse struct {
	ItemID    string   `json:"itemId"`
	Response  string   `json:"response"`
	Comment   string   `json:"comment,omitempty"`
	PhotoURLs []string `json:"photoUrls,omitempty"`
}

// Inspection is a completed checklist submission. Like incidents it
// carries an optional ClientTempID under a composite unique index, so a
// replayed submission returns the original row instead of deriving a
// second set of corrective actions.
type Inspection struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID     uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_inspections_company_client_temp" json:"companyId"`
	SiteID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"siteId"`
	TemplateID    uuid.UUID           `gorm:"type:uuid;not null" json:"templateId"`
	Template      *InspectionTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	InspectorID   uuid.UUID           `gorm:"type:uuid;not null" json:"inspectorId"`
	InspectorName string              `gorm:"size:150" json:"inspectorName"`
	Responses     datatypes.JSON      `gorm:"type:jsonb;not null" json:"responses"`
	ClientTempID  *string             `gorm:"size:64;uniqueIndex:idx_inspections_company_client_temp" json:"clientTempId,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// ResponseList decodes the stored responses.
func (i *Inspection) ResponseList() ([]InspectionResponse, error) {
	var responses []InspectionResponse
	if err := json.Unmarshal(i.Responses, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}
