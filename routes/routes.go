package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/frontline/handlers"
	"p9e.in/frontline/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	// Incident capture and reads. The export route must be registered
	// before the {id} route so mux does not swallow it as an id.
	api.HandleFunc("/incidents/export", handlers.ExportIncidents).Methods("GET")
	api.HandleFunc("/incidents", handlers.CreateIncident).Methods("POST")
	api.HandleFunc("/incidents", handlers.GetAllIncidents).Methods("GET")
	api.HandleFunc("/incidents/{id}", handlers.GetIncident).Methods("GET")

	// Inspection templates
	api.Handle("/inspection-templates",
		middleware.RequireRole("admin", "manager")(http.HandlerFunc(handlers.CreateInspectionTemplate))).Methods("POST")
	api.HandleFunc("/inspection-templates", handlers.GetAllInspectionTemplates).Methods("GET")
	api.HandleFunc("/inspection-templates/{id}", handlers.GetInspectionTemplate).Methods("GET")

	// Inspection submission with CAPA derivation
	api.HandleFunc("/inspections", handlers.CreateInspection).Methods("POST")
	api.HandleFunc("/inspections", handlers.GetAllInspections).Methods("GET")
	api.HandleFunc("/inspections/{id}", handlers.GetInspection).Methods("GET")

	// Corrective actions
	api.HandleFunc("/capas", handlers.GetAllCapas).Methods("GET")
	api.HandleFunc("/capas/{id}", handlers.GetCapa).Methods("GET")
	api.HandleFunc("/capas/{id}/status", handlers.UpdateCapaStatus).Methods("PATCH")

	// Sites
	api.Handle("/sites",
		middleware.RequireRole("admin", "manager")(http.HandlerFunc(handlers.CreateSite))).Methods("POST")
	api.HandleFunc("/sites", handlers.GetAllSites).Methods("GET")
	api.HandleFunc("/sites/{id}", handlers.GetSite).Methods("GET")

	// Bulk reconciliation of offline-captured items
	api.HandleFunc("/sync", handlers.BulkSync).Methods("POST")

	return r
}
