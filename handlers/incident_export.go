package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
)

var incidentExportHeader = []string{
	"ID", "Site", "Type", "Severity", "Status", "Description", "Reporter", "Created At",
}

// ExportIncidents handles GET /incidents/export?format=xlsx|csv and
// streams the tenant's incident register as a download.
func ExportIncidents(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)

	var incidents []models.Incident
	err := config.DB.Preload("Site").
		Where("company_id = ?", claims.CompanyID).
		Order("created_at DESC").Find(&incidents).Error
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case "xlsx":
		buffer, err := buildIncidentWorkbook(incidents)
		if err != nil {
			http.Error(w, "failed to generate Excel file", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=incidents_%s.xlsx", timestamp))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buffer.Bytes())

	case "csv":
		data, err := buildIncidentCSV(incidents)
		if err != nil {
			http.Error(w, "failed to generate CSV file", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=incidents_%s.csv", timestamp))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)

	default:
		http.Error(w, "unsupported format: "+format, http.StatusBadRequest)
	}
}

func incidentExportRow(inc models.Incident) []string {
	siteName := ""
	if inc.Site != nil {
		siteName = inc.Site.Name
	}
	return []string{
		inc.ID.String(),
		siteName,
		inc.Type,
		inc.Severity,
		inc.Status,
		inc.Description,
		inc.ReporterName,
		inc.CreatedAt.Format(time.RFC3339),
	}
}

func buildIncidentWorkbook(incidents []models.Incident) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Incidents"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range incidentExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, header)
	}

	for row, inc := range incidents {
		for col, value := range incidentExportRow(inc) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	return f.WriteToBuffer()
}

func buildIncidentCSV(incidents []models.Incident) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(incidentExportHeader); err != nil {
		return nil, err
	}
	for _, inc := range incidents {
		if err := writer.Write(incidentExportRow(inc)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
