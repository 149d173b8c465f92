package seeders

import (
	"log"

	"gorm.io/gorm"

	"github.com/algoviz-app/algoviz_api/model"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.db.AutoMigrate(&model.User{}, &model.Lesson{}); err != nil {
		return err
	}

	lessonSeeder := NewLessonSeeder(s.db)
	if err := lessonSeeder.SeedLessons(); err != nil {
		log.Printf("Lesson seeding failed: %v", err)
		return err
	}

	adminSeeder := NewAdminSeeder(s.db)
	if err := adminSeeder.SeedAdmin(); err != nil {
		log.Printf("Admin seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func (s *MainSeeder) SeedLessonsOnly() error {
	return NewLessonSeeder(s.db).SeedLessons()
}

func (s *MainSeeder) SeedAdminOnly() error {
	return NewAdminSeeder(s.db).SeedAdmin()
}
