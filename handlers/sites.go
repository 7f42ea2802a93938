package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
	"p9e.in/frontline/utils"
)

// CreateSiteRequest is the site create payload.
type CreateSiteRequest struct {
	Name     string         `json:"name"`
	Address  string         `json:"address"`
	Geofence datatypes.JSON `json:"geofence,omitempty"`
}

// CreateSite handles POST /sites.
func CreateSite(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if len(req.Geofence) > 0 {
		if _, err := utils.ParseGeofence(req.Geofence); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	claims := middleware.GetClaims(r)

	site := models.Site{
		CompanyID: claims.CompanyID,
		Name:      req.Name,
		Address:   req.Address,
		Geofence:  req.Geofence,
		IsActive:  true,
	}
	if err := config.DB.Create(&site).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, site)
}

// GetAllSites handles GET /sites.
func GetAllSites(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)

	var sites []models.Site
	err := config.DB.Where("company_id = ? AND is_active = ?", claims.CompanyID, true).
		Order("name").Find(&sites).Error
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// GetSite handles GET /sites/{id}.
func GetSite(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	claims := middleware.GetClaims(r)

	var site models.Site
	result := config.DB.Where("id = ? AND company_id = ?", params["id"], claims.CompanyID).First(&site)
	if result.Error != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, site)
}
