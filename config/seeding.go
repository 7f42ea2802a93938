package config

import (
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"p9e.in/frontline/models"
)

// SeedGlobalTemplates creates the built-in global inspection templates.
// Skips seeding when any global template already exists.
func SeedGlobalTemplates(db *gorm.DB) {
	var count int64
	db.Model(&models.InspectionTemplate{}).Where("is_global = ?", true).Count(&count)
	if count > 0 {
		return
	}

	templates := []models.InspectionTemplate{
		{
			Name:        "Daily Site Walkthrough",
			Description: "General housekeeping and access checks",
			IsGlobal:    true,
			Schema: datatypes.JSON([]byte(`{"items":[
				{"id":"walk-1","question":"Are walkways clear of obstructions?"},
				{"id":"walk-2","question":"Is signage in place and legible?"},
				{"id":"walk-3","question":"Are emergency exits unobstructed?"}
			]}`)),
		},
		{
			Name:        "PPE Spot Check",
			Description: "Personal protective equipment compliance",
			IsGlobal:    true,
			Schema: datatypes.JSON([]byte(`{"items":[
				{"id":"ppe-1","question":"Are hard hats worn in designated areas?"},
				{"id":"ppe-2","question":"Is eye protection available and in use?"},
				{"id":"ppe-3","question":"Are high-visibility vests worn near vehicles?"}
			]}`)),
		},
	}

	for i := range templates {
		if err := db.Create(&templates[i]).Error; err != nil {
			log.Printf("Warning: failed to seed template %q: %v", templates[i].Name, err)
		}
	}
	log.Printf("Seeded %d global inspection templates", len(templates))
}
