package handlers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"p9e.in/frontline/models"
)

func tempID(s string) *string { return &s }

func baseIncidentInput(tenant *testTenant) IncidentInput {
	return IncidentInput{
		CompanyID:   tenant.Claims.CompanyID,
		SiteID:      tenant.Site.ID,
		Type:        "near_miss",
		Severity:    "medium",
		Description: "Pallet stacked above rated height",
	}
}

func TestCreateIncidentIdempotent(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	in := baseIncidentInput(tenant)
	in.ClientTempID = tempID("11111111-1111-1111-1111-111111111111")

	first, duplicate, err := createIncident(db, tenant.Claims, in)
	require.NoError(t, err)
	assert.False(t, duplicate)

	second, duplicate, err := createIncident(db, tenant.Claims, in)
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Incident{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateIncidentWithoutTempIDAlwaysCreates(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	in := baseIncidentInput(tenant)

	first, _, err := createIncident(db, tenant.Claims, in)
	require.NoError(t, err)
	second, _, err := createIncident(db, tenant.Claims, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Incident{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestCreateIncidentConcurrentDuplicateCollapse(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	in := baseIncidentInput(tenant)
	in.ClientTempID = tempID("22222222-2222-2222-2222-222222222222")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = createIncident(db, tenant.Claims, in)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var count int64
	db.Model(&models.Incident{}).Where("client_temp_id = ?", *in.ClientTempID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateIncidentTenantMismatchRejected(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "Acme")
	rival := seedTenant(t, db, "Rival")

	// Rival tries to write into Acme's tenant, including replaying a
	// temp id Acme already used. Both attempts must be denied outright.
	in := baseIncidentInput(acme)
	in.ClientTempID = tempID("33333333-3333-3333-3333-333333333333")
	_, _, err := createIncident(db, acme.Claims, in)
	require.NoError(t, err)

	_, _, err = createIncident(db, rival.Claims, in)
	require.ErrorIs(t, err, errAccessDenied)

	var count int64
	db.Model(&models.Incident{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateIncidentUnknownSiteRejected(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "Acme")
	rival := seedTenant(t, db, "Rival")

	// A site belonging to another tenant is as invalid as a missing one.
	in := baseIncidentInput(acme)
	in.SiteID = rival.Site.ID

	_, _, err := createIncident(db, acme.Claims, in)
	require.ErrorIs(t, err, errInvalidReference)
}

func TestCreateIncidentGeofenceTagging(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "Acme")

	// Unit square around the site.
	tenant.Site.Geofence = datatypes.JSON([]byte(
		`[{"lat":0,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":1},{"lat":1,"lng":0}]`))
	require.NoError(t, db.Save(&tenant.Site).Error)

	inside := baseIncidentInput(tenant)
	inside.Coords = &Coords{Lat: 0.5, Lng: 0.5}
	incident, _, err := createIncident(db, tenant.Claims, inside)
	require.NoError(t, err)
	require.NotNil(t, incident.InsideGeofence)
	assert.True(t, *incident.InsideGeofence)

	outside := baseIncidentInput(tenant)
	outside.Coords = &Coords{Lat: 5, Lng: 5}
	incident, _, err = createIncident(db, tenant.Claims, outside)
	require.NoError(t, err)
	require.NotNil(t, incident.InsideGeofence)
	assert.False(t, *incident.InsideGeofence)

	noCoords := baseIncidentInput(tenant)
	incident, _, err = createIncident(db, tenant.Claims, noCoords)
	require.NoError(t, err)
	assert.Nil(t, incident.InsideGeofence)
}
