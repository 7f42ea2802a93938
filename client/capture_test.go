package client

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportIncidentStampsTempIDWhenOffline(t *testing.T) {
	d, q := newTestDispatcher(t, "http://127.0.0.1:0")

	draft := IncidentDraft{
		CompanyID:   uuid.New(),
		SiteID:      uuid.New(),
		Type:        "hazard",
		Severity:    "low",
		Description: "Spilled oil near loading dock",
	}

	res, err := d.ReportIncident(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, res.Queued)

	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "/api/v1/incidents", pending[0].URL)

	var stored struct {
		ClientTempID string `json:"clientTempId"`
	}
	require.NoError(t, json.Unmarshal(pending[0].Payload, &stored))
	assert.NotEmpty(t, stored.ClientTempID)
}

func TestReportIncidentFreshTempIDPerCall(t *testing.T) {
	d, q := newTestDispatcher(t, "http://127.0.0.1:0")

	draft := IncidentDraft{
		CompanyID: uuid.New(),
		SiteID:    uuid.New(),
		Type:      "hazard",
		Severity:  "low",
	}

	// Two captures of an identical draft are two distinct records.
	_, err := d.ReportIncident(context.Background(), draft)
	require.NoError(t, err)
	_, err = d.ReportIncident(context.Background(), draft)
	require.NoError(t, err)

	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)

	ids := make(map[string]bool)
	for _, m := range pending {
		var stored struct {
			ClientTempID string `json:"clientTempId"`
		}
		require.NoError(t, json.Unmarshal(m.Payload, &stored))
		ids[stored.ClientTempID] = true
	}
	assert.Len(t, ids, 2)
}

func TestSubmitInspectionSendsDirectlyWhenOnline(t *testing.T) {
	server := &captureServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	d, q := newTestDispatcher(t, ts.URL)
	d.SetOnline(context.Background(), true)

	draft := InspectionDraft{
		CompanyID:  uuid.New(),
		SiteID:     uuid.New(),
		TemplateID: uuid.New(),
		Responses: []ResponseDraft{
			{ItemID: "item-1", Response: "yes"},
		},
	}

	res, err := d.SubmitInspection(context.Background(), draft)
	require.NoError(t, err)
	assert.False(t, res.Queued)
	require.Equal(t, 1, server.count())

	server.mu.Lock()
	tempID := server.received[0]
	server.mu.Unlock()
	assert.NotEmpty(t, tempID)

	n, _ := q.Len()
	assert.Equal(t, 0, n)
}
