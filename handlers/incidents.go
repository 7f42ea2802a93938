package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/frontline/audit"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
	"p9e.in/frontline/utils"
)

// Coords is a reported incident location.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IncidentInput is the create payload, shared by the direct endpoint and
// the bulk sync path. ClientTempID is the idempotency key for records
// captured offline.
type IncidentInput struct {
	CompanyID    uuid.UUID  `json:"companyId"`
	SiteID       uuid.UUID  `json:"siteId"`
	ReporterID   *uuid.UUID `json:"reporterId,omitempty"`
	ReporterName string     `json:"reporterName,omitempty"`
	Type         string     `json:"type"`
	Severity     string     `json:"severity"`
	Description  string     `json:"description"`
	Coords       *Coords    `json:"coords,omitempty"`
	Photos       []string   `json:"photos,omitempty"`
	ClientTempID *string    `json:"clientTempId,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// IncidentResult is the response shape for both first creates and
// duplicate confirmations.
type IncidentResult struct {
	ClientTempID *string          `json:"clientTempId,omitempty"`
	Duplicate    bool             `json:"duplicate"`
	Incident     *models.Incident `json:"incident"`
}

// createIncident persists one incident with at-most-once semantics per
// (companyId, clientTempId). The insert goes through ON CONFLICT DO
// NOTHING against the composite unique index, so a replayed submission
// or a lost race both land on the RowsAffected == 0 path and return the
// already-persisted row instead of an error.
func createIncident(db *gorm.DB, claims *middleware.Claims, in IncidentInput) (*models.Incident, bool, error) {
	if in.CompanyID != claims.CompanyID {
		return nil, false, fmt.Errorf("%w: company %s does not match caller tenant", errAccessDenied, in.CompanyID)
	}
	if in.Type == "" || in.Severity == "" {
		return nil, false, fmt.Errorf("%w: type and severity are required", errValidation)
	}

	var site models.Site
	if err := db.Where("id = ? AND company_id = ?", in.SiteID, in.CompanyID).First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: site %s", errInvalidReference, in.SiteID)
		}
		return nil, false, err
	}

	incident := models.Incident{
		CompanyID:          in.CompanyID,
		SiteID:             in.SiteID,
		ReporterID:         in.ReporterID,
		ReporterName:       in.ReporterName,
		Type:               in.Type,
		Severity:           in.Severity,
		Description:        in.Description,
		Status:             "new",
		ClientTempID:       in.ClientTempID,
		SyncedFromClientID: in.ClientTempID,
	}
	if in.CreatedAt != nil {
		incident.CreatedAt = *in.CreatedAt
	}
	if in.Coords != nil {
		incident.CoordsLat = &in.Coords.Lat
		incident.CoordsLng = &in.Coords.Lng
	}
	if len(in.Photos) > 0 {
		photos, err := json.Marshal(in.Photos)
		if err != nil {
			return nil, false, fmt.Errorf("%w: photos: %v", errValidation, err)
		}
		incident.Photos = photos
	}

	// Tag whether the reported location falls inside the site geofence.
	if in.Coords != nil && len(site.Geofence) > 0 {
		if polygon, err := utils.ParseGeofence(site.Geofence); err == nil && polygon != nil {
			inside := utils.PointInPolygon(utils.Coordinate{Lat: in.Coords.Lat, Lng: in.Coords.Lng}, polygon)
			incident.InsideGeofence = &inside
		}
	}

	if in.ClientTempID == nil {
		// No idempotency key, no dedup possible or required.
		if err := db.Create(&incident).Error; err != nil {
			return nil, false, err
		}
		recordIncidentAudit(claims, &incident)
		return &incident, false, nil
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "client_temp_id"}},
		DoNothing: true,
	}).Create(&incident)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Already applied, either before this call or by a concurrent
		// duplicate that won the insert.
		var existing models.Incident
		err := db.Where("company_id = ? AND client_temp_id = ?", in.CompanyID, *in.ClientTempID).
			First(&existing).Error
		if err != nil {
			return nil, false, err
		}
		return &existing, true, nil
	}

	recordIncidentAudit(claims, &incident)
	return &incident, false, nil
}

func recordIncidentAudit(claims *middleware.Claims, incident *models.Incident) {
	audit.Record(audit.Event{
		CompanyID: claims.CompanyID,
		UserID:    claims.UserID,
		Action:    "incident.created",
		Entity:    "incident",
		EntityID:  incident.ID,
	})
}

// CreateIncident handles POST /incidents. Duplicate confirmations come
// back as 200 with the existing record; first creates as 201.
func CreateIncident(w http.ResponseWriter, r *http.Request) {
	var in IncidentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)

	incident, duplicate, err := createIncident(config.DB, claims, in)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, IncidentResult{
		ClientTempID: incident.ClientTempID,
		Duplicate:    duplicate,
		Incident:     incident,
	})
}

// GetAllIncidents handles GET /incidents with optional siteId and
// severity filters, newest first.
func GetAllIncidents(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)

	query := config.DB.Where("company_id = ?", claims.CompanyID)
	if siteID := r.URL.Query().Get("siteId"); siteID != "" {
		query = query.Where("site_id = ?", siteID)
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var incidents []models.Incident
	if err := query.Order("created_at DESC").Find(&incidents).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

// GetIncident handles GET /incidents/{id}, tenant-scoped.
func GetIncident(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	claims := middleware.GetClaims(r)

	var incident models.Incident
	result := config.DB.Where("id = ? AND company_id = ?", params["id"], claims.CompanyID).First(&incident)
	if result.Error != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, incident)
}
