package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/frontline/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260815_create_tenant_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Company{}, &models.Site{})
			},
		},
		{
			ID: "20260815_create_capture_tables",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate also creates the composite unique indexes on
				// (company_id, client_temp_id) that the idempotent create
				// paths depend on.
				return tx.AutoMigrate(&models.Incident{}, &models.InspectionTemplate{},
					&models.Inspection{}, &models.Capa{})
			},
		},
	})

	return m.Migrate()
}
