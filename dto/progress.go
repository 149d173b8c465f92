package dto

import "time"

// ==================== PROGRESS REQUEST DTOs ====================

type SaveProgressRequest struct {
	CurrentStep int  `json:"current_step" validate:"min=0"`
	TotalSteps  int  `json:"total_steps" validate:"min=0"`
	Completed   bool `json:"completed"`
}

func (s SaveProgressRequest) Validate() error {
	return GetValidator().Struct(s)
}

// AddTimeRequest flushes one session's elapsed seconds into the accumulated
// lesson time.
type AddTimeRequest struct {
	Seconds int `json:"seconds" validate:"required,min=1,max=86400"`
}

func (a AddTimeRequest) Validate() error {
	return GetValidator().Struct(a)
}

// ==================== PROGRESS RESPONSE DTOs ====================

type ProgressResponse struct {
	LessonID       string     `json:"lesson_id"`
	CurrentStep    int        `json:"current_step"`
	TotalSteps     int        `json:"total_steps"`
	Status         string     `json:"status"`
	Completed      bool       `json:"completed"`
	TimeSpent      int        `json:"time_spent"`
	Attempts       int        `json:"attempts"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

type ProgressSummaryResponse struct {
	Completed  int                `json:"completed"`
	InProgress int                `json:"in_progress"`
	NotStarted int                `json:"not_started"`
	TotalTime  int                `json:"total_time"`
	Lessons    []ProgressResponse `json:"lessons"`
}

// ==================== BOOKMARK DTOs ====================

type BookmarkRequest struct {
	Title string `json:"title" validate:"max=120"`
}

func (b BookmarkRequest) Validate() error {
	return GetValidator().Struct(b)
}

type BookmarkResponse struct {
	LessonID     string    `json:"lesson_id"`
	Title        string    `json:"title"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}
