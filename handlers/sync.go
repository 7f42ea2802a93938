package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
)

// SyncItem is one offline-captured record in a reconciliation batch. The
// item-level clientTempId is authoritative; it overrides whatever the
// embedded payload carries so the mapping the client keys its queue
// removal on is always consistent.
type SyncItem struct {
	Type         string          `json:"type"`
	ClientTempID string          `json:"clientTempId"`
	Data         json.RawMessage `json:"data"`
}

// SyncMapping pairs a client temp id with the server-assigned record id.
type SyncMapping struct {
	ClientTempID string    `json:"clientTempId"`
	ServerID     uuid.UUID `json:"serverId"`
}

// BulkSync handles POST /sync. Items are processed independently and in
// order; a failed item is logged and skipped, never aborting the batch.
// Only successes appear in the mapping — anything absent must stay
// queued on the device for a future retry.
func BulkSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []SyncItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)

	mappings := make([]SyncMapping, 0, len(body.Items))
	for _, item := range body.Items {
		serverID, err := applySyncItem(claims, item)
		if err != nil {
			log.Printf("sync: item %s (%s) failed: %v", item.ClientTempID, item.Type, err)
			continue
		}
		mappings = append(mappings, SyncMapping{
			ClientTempID: item.ClientTempID,
			ServerID:     serverID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"mappings": mappings})
}

// applySyncItem dispatches one item to the creation path matching its
// type tag. Both arms are the exact same functions the direct endpoints
// use, so replayed and online captures cannot diverge.
func applySyncItem(claims *middleware.Claims, item SyncItem) (uuid.UUID, error) {
	switch item.Type {
	case "incident":
		var in IncidentInput
		if err := json.Unmarshal(item.Data, &in); err != nil {
			return uuid.Nil, err
		}
		in.ClientTempID = &item.ClientTempID
		incident, _, err := createIncident(config.DB, claims, in)
		if err != nil {
			return uuid.Nil, err
		}
		return incident.ID, nil

	case "inspection":
		var in InspectionInput
		if err := json.Unmarshal(item.Data, &in); err != nil {
			return uuid.Nil, err
		}
		in.ClientTempID = &item.ClientTempID
		inspection, _, _, err := createInspection(config.DB, claims, in)
		if err != nil {
			return uuid.Nil, err
		}
		return inspection.ID, nil

	default:
		return uuid.Nil, fmt.Errorf("%w: unknown sync item type %q", errValidation, item.Type)
	}
}
