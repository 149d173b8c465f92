package dto

import "time"

// User Profile DTOs
type UserProfileResponse struct {
	UserID      string            `json:"user_id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Image       string            `json:"image,omitempty"`
	Provider    string            `json:"provider,omitempty"`
	Preferences PreferencesDTO    `json:"preferences"`
	Stats       UserStatsResponse `json:"stats"`
	JoinedAt    time.Time         `json:"joined_at"`
	LastLoginAt time.Time         `json:"last_login_at"`
}

type PreferencesDTO struct {
	Language           string `json:"language"`
	Theme              string `json:"theme"`
	EmailNotifications bool   `json:"email_notifications"`
}

type UserStatsResponse struct {
	TotalCompleted int        `json:"total_completed"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

type UpdatePreferencesRequest struct {
	Language           *string `json:"language,omitempty" validate:"omitempty,oneof=python javascript go java"`
	Theme              *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
}

func (u UpdatePreferencesRequest) Validate() error {
	return GetValidator().Struct(u)
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=60"`
	Image string `json:"image" validate:"omitempty,url"`
}

func (u UpdateProfileRequest) Validate() error {
	return GetValidator().Struct(u)
}
