package model

import "time"

// LessonProgress tracks one user's position in one lesson. A row appears on
// the first explicit save, never on read. All writes are merges; Attempts and
// CompletedAt carry once-only semantics guarded by StartedAt and the
// Completed flag respectively.
type LessonProgress struct {
	ID       string `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;uniqueIndex:idx_user_lesson"`
	LessonID string `json:"lesson_id" gorm:"not null;uniqueIndex:idx_user_lesson"`

	CurrentStep int    `json:"current_step"`
	TotalSteps  int    `json:"total_steps"`
	Status      string `json:"status" gorm:"default:not_started"` // not_started, in_progress, completed
	Completed   bool   `json:"completed"`

	TimeSpent int `json:"time_spent"` // accumulated seconds across sessions
	Attempts  int `json:"attempts"`

	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Bookmark marks a lesson a user wants to come back to.
type Bookmark struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_bookmark"`
	LessonID     string    `json:"lesson_id" gorm:"not null;uniqueIndex:idx_user_bookmark"`
	Title        string    `json:"title"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}
