package seeders

import (
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

// AdminSeeder creates the initial admin account from environment credentials
type AdminSeeder struct {
	db *gorm.DB
}

func NewAdminSeeder(db *gorm.DB) *AdminSeeder {
	return &AdminSeeder{db: db}
}

func (s *AdminSeeder) SeedAdmin() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	userID := shared.CanonicalUserID(email)

	var existing model.User
	err := s.db.Where("id = ?", userID).First(&existing).Error
	if err == nil {
		log.Printf("Admin user %s already exists, skipping", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		ID:                 userID,
		Email:              email,
		Name:               "Admin",
		Provider:           "credentials",
		Password:           string(hashed),
		Role:               shared.RoleAdmin,
		Language:           "python",
		Theme:              "system",
		EmailNotifications: true,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s", email)
	return nil
}
