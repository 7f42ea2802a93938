package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
)

// CreateTemplateRequest is the inspection template create payload.
type CreateTemplateRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      datatypes.JSON `json:"schema"`
}

// CreateInspectionTemplate handles POST /inspection-templates. The
// template is always owned by the caller's tenant; global templates are
// seeded, not created over the API.
func CreateInspectionTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || len(req.Schema) == 0 {
		http.Error(w, "name and schema are required", http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)

	companyID := claims.CompanyID
	template := models.InspectionTemplate{
		CompanyID:   &companyID,
		Name:        req.Name,
		Description: req.Description,
		Schema:      req.Schema,
	}
	if err := config.DB.Create(&template).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

// GetAllInspectionTemplates handles GET /inspection-templates, returning
// the tenant's own templates plus the global ones.
func GetAllInspectionTemplates(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)

	var templates []models.InspectionTemplate
	err := config.DB.Where("is_global = ? OR company_id = ?", true, claims.CompanyID).
		Order("created_at DESC").Find(&templates).Error
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// GetInspectionTemplate handles GET /inspection-templates/{id}.
func GetInspectionTemplate(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	claims := middleware.GetClaims(r)

	var template models.InspectionTemplate
	result := config.DB.Where("id = ? AND (is_global = ? OR company_id = ?)",
		params["id"], true, claims.CompanyID).First(&template)
	if result.Error != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, template)
}
