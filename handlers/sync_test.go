package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
)

// protect wires a handler the way the real router does: behind the JWT
// middleware, so the tests exercise the same claims extraction.
func protect(h http.HandlerFunc) http.Handler {
	return middleware.JWTMiddleware(h)
}

func init() {
	middleware.SetTestSigningKey([]byte("sync-test-secret"))
}

func authedRequest(t *testing.T, tenant *testTenant, method, url string, body interface{}) *http.Request {
	t.Helper()

	token, err := middleware.GenerateToken(
		tenant.Claims.UserID, tenant.Claims.CompanyID, tenant.Claims.Name, tenant.Claims.Role)
	require.NoError(t, err)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func syncIncidentItem(tenant *testTenant, clientTempID string) SyncItem {
	data, _ := json.Marshal(IncidentInput{
		CompanyID:   tenant.Claims.CompanyID,
		SiteID:      tenant.Site.ID,
		Type:        "hazard",
		Severity:    "low",
		Description: "Loose cable across walkway",
	})
	return SyncItem{Type: "incident", ClientTempID: clientTempID, Data: data}
}

func TestBulkSyncPartialBatchSuccess(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	item1 := syncIncidentItem(tenant, uuid.NewString())
	item3 := syncIncidentItem(tenant, uuid.NewString())

	// Item 2 references a site that does not exist; it must fail alone.
	badData, _ := json.Marshal(IncidentInput{
		CompanyID:   tenant.Claims.CompanyID,
		SiteID:      uuid.New(),
		Type:        "hazard",
		Severity:    "low",
		Description: "Referencing a deleted site",
	})
	item2 := SyncItem{Type: "incident", ClientTempID: uuid.NewString(), Data: badData}

	body := map[string]interface{}{"items": []SyncItem{item1, item2, item3}}
	rec := httptest.NewRecorder()
	protect(BulkSync).ServeHTTP(rec, authedRequest(t, tenant, "POST", "/api/v1/sync", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Mappings []SyncMapping `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Mappings, 2)
	assert.Equal(t, item1.ClientTempID, resp.Mappings[0].ClientTempID)
	assert.Equal(t, item3.ClientTempID, resp.Mappings[1].ClientTempID)

	var count int64
	db.Model(&models.Incident{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestBulkSyncReplayReturnsExistingIDs(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	item := syncIncidentItem(tenant, uuid.NewString())
	body := map[string]interface{}{"items": []SyncItem{item}}

	var first, second struct {
		Mappings []SyncMapping `json:"mappings"`
	}

	rec := httptest.NewRecorder()
	protect(BulkSync).ServeHTTP(rec, authedRequest(t, tenant, "POST", "/api/v1/sync", body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = httptest.NewRecorder()
	protect(BulkSync).ServeHTTP(rec, authedRequest(t, tenant, "POST", "/api/v1/sync", body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))

	require.Len(t, first.Mappings, 1)
	require.Len(t, second.Mappings, 1)
	assert.Equal(t, first.Mappings[0].ServerID, second.Mappings[0].ServerID)

	var count int64
	db.Model(&models.Incident{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestBulkSyncUnknownTypeSkipped(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	good := syncIncidentItem(tenant, uuid.NewString())
	unknown := SyncItem{Type: "timesheet", ClientTempID: uuid.NewString(), Data: []byte(`{}`)}

	body := map[string]interface{}{"items": []SyncItem{unknown, good}}
	rec := httptest.NewRecorder()
	protect(BulkSync).ServeHTTP(rec, authedRequest(t, tenant, "POST", "/api/v1/sync", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Mappings []SyncMapping `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Mappings, 1)
	assert.Equal(t, good.ClientTempID, resp.Mappings[0].ClientTempID)
}

func TestBulkSyncTenantMismatchItemExcluded(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "Acme")
	rival := seedTenant(t, db, "Rival")

	// An item declaring another tenant's companyId must be denied, not
	// silently redirected into the caller's tenant.
	foreign := syncIncidentItem(rival, uuid.NewString())
	body := map[string]interface{}{"items": []SyncItem{foreign}}

	rec := httptest.NewRecorder()
	protect(BulkSync).ServeHTTP(rec, authedRequest(t, acme, "POST", "/api/v1/sync", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Mappings []SyncMapping `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Mappings)

	var count int64
	db.Model(&models.Incident{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestDirectIncidentEndpointDuplicateFlag(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	in := IncidentInput{
		CompanyID:    tenant.Claims.CompanyID,
		SiteID:       tenant.Site.ID,
		Type:         "injury",
		Severity:     "high",
		Description:  "Slip on wet floor",
		ClientTempID: tempID(uuid.NewString()),
	}

	rec := httptest.NewRecorder()
	protect(CreateIncident).ServeHTTP(rec, authedRequest(t, tenant, "POST", "/api/v1/incidents", in))
	require.Equal(t, http.StatusCreated, rec.Code)
	var first IncidentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.False(t, first.Duplicate)

	rec = httptest.NewRecorder()
	protect(CreateIncident).ServeHTTP(rec, authedRequest(t, tenant, "POST", "/api/v1/incidents", in))
	require.Equal(t, http.StatusOK, rec.Code)
	var second IncidentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Incident.ID, second.Incident.ID)
}
