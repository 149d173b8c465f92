package model

import "time"

// User is the identity projection plus learning stats. The primary key is the
// canonical user id derived from the login email (shared.CanonicalUserID), the
// same key the entitlement and progress records hang off.
type User struct {
	ID         string `json:"id" gorm:"primaryKey"`
	Email      string `json:"email" gorm:"unique"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
	Password   string `json:"-"`
	Role       string `json:"role" gorm:"default:user"`

	// Preferences
	Language           string `json:"language" gorm:"default:python"`
	Theme              string `json:"theme" gorm:"default:system"`
	EmailNotifications bool   `json:"email_notifications" gorm:"default:true"`

	// Stats
	TotalCompleted int        `json:"total_completed" gorm:"default:0"`
	CurrentStreak  int        `json:"current_streak" gorm:"default:0"`
	LongestStreak  int        `json:"longest_streak" gorm:"default:0"`
	LastActivityAt *time.Time `json:"last_activity_at"`

	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
