package database

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/config"
	"github.com/vacathon/vacathon-api/internal/models"
)

// AllModels is the migration set shared by the server, the importer, and
// the test helpers.
var AllModels = []any{
	&models.User{},
	&models.UserProfile{},
	&models.Event{},
	&models.EventCategory{},
	&models.EventSchedule{},
	&models.AidStation{},
	&models.RouteSegment{},
	&models.EventDocument{},
	&models.EventRegistration{},
	&models.UserRaceHistory{},
	&models.RunnerAchievement{},
	&models.ForumThread{},
	&models.ForumPost{},
	&models.PostLike{},
	&models.PostReport{},
	&models.Notification{},
}

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(AllModels...); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}
