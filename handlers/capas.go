package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
)

// GetAllCapas handles GET /capas with optional status and originType
// filters.
func GetAllCapas(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)

	query := config.DB.Where("company_id = ?", claims.CompanyID)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if originType := r.URL.Query().Get("originType"); originType != "" {
		query = query.Where("origin_type = ?", originType)
	}

	var capas []models.Capa
	if err := query.Order("due_date ASC").Find(&capas).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, capas)
}

// GetCapa handles GET /capas/{id}, tenant-scoped.
func GetCapa(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	claims := middleware.GetClaims(r)

	var capa models.Capa
	result := config.DB.Where("id = ? AND company_id = ?", params["id"], claims.CompanyID).First(&capa)
	if result.Error != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, capa)
}

// UpdateCapaStatus handles PATCH /capas/{id}/status, enforcing the
// transition rules (a done CAPA cannot be reopened).
func UpdateCapaStatus(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	claims := middleware.GetClaims(r)

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var capa models.Capa
	result := config.DB.Where("id = ? AND company_id = ?", params["id"], claims.CompanyID).First(&capa)
	if result.Error != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	if !capa.CanTransitionTo(body.Status) {
		http.Error(w, "invalid status transition", http.StatusBadRequest)
		return
	}

	capa.Status = body.Status
	if err := config.DB.Save(&capa).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, capa)
}
