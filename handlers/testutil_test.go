package handlers

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"p9e.in/frontline/config"
	"p9e.in/frontline/middleware"
	"p9e.in/frontline/models"
)

// setupTestDB opens a fresh sqlite-backed database for one test, runs
// the real migrations and points config.DB at it.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frontline_test.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, config.Migrations(db))

	config.DB = db
	return db
}

// testTenant is a seeded company + site + caller identity.
type testTenant struct {
	Company models.Company
	Site    models.Site
	Claims  *middleware.Claims
}

func seedTenant(t *testing.T, db *gorm.DB, name string) *testTenant {
	t.Helper()

	company := models.Company{Name: name}
	require.NoError(t, db.Create(&company).Error)

	site := models.Site{
		CompanyID: company.ID,
		Name:      name + " HQ",
		Address:   "1 Main St",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&site).Error)

	return &testTenant{
		Company: company,
		Site:    site,
		Claims: &middleware.Claims{
			UserID:    uuid.New(),
			CompanyID: company.ID,
			Name:      name + " worker",
			Role:      "worker",
		},
	}
}

// seedTemplate creates a tenant-owned template with the given checklist
// questions, keyed item-1, item-2, ...
func seedTemplate(t *testing.T, db *gorm.DB, companyID uuid.UUID, questions ...string) models.InspectionTemplate {
	t.Helper()

	items := ""
	for i, q := range questions {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"id":"item-%d","question":%q}`, i+1, q)
	}

	template := models.InspectionTemplate{
		CompanyID: &companyID,
		Name:      "Test checklist",
		Schema:    datatypes.JSON([]byte(`{"items":[` + items + `]}`)),
	}
	require.NoError(t, db.Create(&template).Error)
	return template
}
