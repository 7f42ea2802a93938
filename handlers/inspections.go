package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/frontline/audit"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
)

// capaDueOffset is how far out auto-derived corrective actions are due.
const capaDueOffset = 30 * 24 * time.Hour

// InspectionInput is the submission payload, shared by the direct
// endpoint and the bulk sync path.
type InspectionInput struct {
	CompanyID     uuid.UUID                   `json:"companyId"`
	SiteID        uuid.UUID                   `json:"siteId"`
	TemplateID    uuid.UUID                   `json:"templateId"`
	InspectorID   uuid.UUID                   `json:"inspectorId"`
	InspectorName string                      `json:"inspectorName"`
	Responses     []models.InspectionResponse `json:"responses"`
	ClientTempID  *string                     `json:"clientTempId,omitempty"`
}

// InspectionResult is the response for both first submissions and
// duplicate confirmations. Capas lists the corrective actions derived
// from failed checklist items.
type InspectionResult struct {
	ClientTempID *string            `json:"clientTempId,omitempty"`
	Duplicate    bool               `json:"duplicate"`
	Inspection   *models.Inspection `json:"inspection"`
	Capas        []models.Capa      `json:"capas"`
}

// isFailedResponse applies the fixed classification rule: only "no" and
// "failed" (case-insensitive) count as failed checklist answers.
func isFailedResponse(response string) bool {
	switch strings.ToLower(response) {
	case "no", "failed":
		return true
	}
	return false
}

// deriveCapas builds one corrective action per failed response. Question
// text comes from the template schema, falling back to a generic label
// when the item id is unknown.
func deriveCapas(template *models.InspectionTemplate, inspection *models.Inspection, in InspectionInput) []models.Capa {
	questions := make(map[string]string)
	for _, item := range template.Items() {
		questions[item.ID] = item.Question
	}

	now := time.Now()
	var capas []models.Capa
	for _, resp := range in.Responses {
		if !isFailedResponse(resp.Response) {
			continue
		}

		title := "CAPA: Failed inspection item"
		if q, ok := questions[resp.ItemID]; ok && q != "" {
			title = "CAPA: " + q
		}
		description := resp.Comment
		if description == "" {
			description = fmt.Sprintf("Failed item: %s", resp.ItemID)
		}

		capas = append(capas, models.Capa{
			CompanyID:   in.CompanyID,
			OriginType:  models.CapaOriginInspection,
			OriginID:    inspection.ID,
			Title:       title,
			Description: description,
			OwnerID:     in.InspectorID,
			CreatorID:   in.InspectorID,
			Status:      models.CapaStatusOpen,
			Priority:    models.CapaPriorityMedium,
			DueDate:     now.Add(capaDueOffset),
		})
	}
	return capas
}

// createInspection persists one inspection and derives corrective
// actions from its failed items inside a single transaction: either the
// inspection and every derived CAPA commit together, or nothing does.
// Submissions carrying a clientTempId get the same at-most-once
// treatment as incidents; a replay returns the original inspection and
// its previously derived CAPAs without creating anything.
func createInspection(db *gorm.DB, claims *middleware.Claims, in InspectionInput) (*models.Inspection, []models.Capa, bool, error) {
	if in.CompanyID != claims.CompanyID {
		return nil, nil, false, fmt.Errorf("%w: company %s does not match caller tenant", errAccessDenied, in.CompanyID)
	}
	if len(in.Responses) == 0 {
		return nil, nil, false, fmt.Errorf("%w: responses are required", errValidation)
	}

	var template models.InspectionTemplate
	err := db.Where("id = ? AND (is_global = ? OR company_id = ?)", in.TemplateID, true, in.CompanyID).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, false, fmt.Errorf("%w: template %s", errInvalidReference, in.TemplateID)
		}
		return nil, nil, false, err
	}

	var site models.Site
	if err := db.Where("id = ? AND company_id = ?", in.SiteID, in.CompanyID).First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, false, fmt.Errorf("%w: site %s", errInvalidReference, in.SiteID)
		}
		return nil, nil, false, err
	}

	responses, err := json.Marshal(in.Responses)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: responses: %v", errValidation, err)
	}

	inspection := models.Inspection{
		CompanyID:     in.CompanyID,
		SiteID:        in.SiteID,
		TemplateID:    in.TemplateID,
		InspectorID:   in.InspectorID,
		InspectorName: in.InspectorName,
		Responses:     responses,
		ClientTempID:  in.ClientTempID,
	}

	var capas []models.Capa
	duplicate := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if in.ClientTempID != nil {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "company_id"}, {Name: "client_temp_id"}},
				DoNothing: true,
			}).Create(&inspection)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Already applied. The failed Create stamped a fresh id into
				// the struct, so fetch into a clean value or the primary key
				// ends up in the WHERE clause and the lookup misses.
				duplicate = true
				var existing models.Inspection
				err := tx.Where("company_id = ? AND client_temp_id = ?", in.CompanyID, *in.ClientTempID).
					First(&existing).Error
				if err != nil {
					return err
				}
				inspection = existing
				return tx.Where("company_id = ? AND origin_type = ? AND origin_id = ?",
					in.CompanyID, models.CapaOriginInspection, inspection.ID).
					Order("created_at").Find(&capas).Error
			}
		} else {
			if err := tx.Create(&inspection).Error; err != nil {
				return err
			}
		}

		capas = deriveCapas(&template, &inspection, in)
		for i := range capas {
			if err := tx.Create(&capas[i]).Error; err != nil {
				return fmt.Errorf("derive capa for failed item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, false, err
	}

	if !duplicate {
		audit.Record(audit.Event{
			CompanyID: claims.CompanyID,
			UserID:    claims.UserID,
			Action:    "inspection.created",
			Entity:    "inspection",
			EntityID:  inspection.ID,
		})
	}
	return &inspection, capas, duplicate, nil
}

// CreateInspection handles POST /inspections.
func CreateInspection(w http.ResponseWriter, r *http.Request) {
	var in InspectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)

	inspection, capas, duplicate, err := createInspection(config.DB, claims, in)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	if capas == nil {
		capas = []models.Capa{}
	}
	writeJSON(w, status, InspectionResult{
		ClientTempID: inspection.ClientTempID,
		Duplicate:    duplicate,
		Inspection:   inspection,
		Capas:        capas,
	})
}

// GetAllInspections handles GET /inspections with an optional siteId
// filter, newest first.
func GetAllInspections(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)

	query := config.DB.Where("company_id = ?", claims.CompanyID)
	if siteID := r.URL.Query().Get("siteId"); siteID != "" {
		query = query.Where("site_id = ?", siteID)
	}

	var inspections []models.Inspection
	if err := query.Order("created_at DESC").Find(&inspections).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, inspections)
}

// GetInspection handles GET /inspections/{id}, returning the inspection
// together with the CAPAs it derived.
func GetInspection(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	claims := middleware.GetClaims(r)

	var inspection models.Inspection
	result := config.DB.Preload("Template").
		Where("id = ? AND company_id = ?", params["id"], claims.CompanyID).
		First(&inspection)
	if result.Error != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	var capas []models.Capa
	config.DB.Where("company_id = ? AND origin_type = ? AND origin_id = ?",
		claims.CompanyID, models.CapaOriginInspection, inspection.ID).
		Order("created_at").Find(&capas)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"inspection": inspection,
		"capas":      capas,
	})
}
