package model

import "time"

// Lesson is one entry of the fixed problem catalog. The slug doubles as the
// primary key and as the lesson id in progress and bookmark rows.
type Lesson struct {
	ID         string `json:"id" gorm:"primaryKey"` // slug, e.g. "two-sum"
	Title      string `json:"title" gorm:"not null"`
	Category   string `json:"category"`   // arrays, linked-list, trees, graphs, ...
	Difficulty string `json:"difficulty"` // easy, medium, hard
	Order      int    `json:"order" gorm:"not null"`
	TotalSteps int    `json:"total_steps"`
	Premium    bool   `json:"premium" gorm:"default:false"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonAsset is an uploaded media object (diagram, voice-over) attached to a
// lesson and stored in object storage.
type LessonAsset struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	LessonID   string    `json:"lesson_id" gorm:"not null;index"`
	Kind       string    `json:"kind"` // diagram, voiceover, solution
	FileName   string    `json:"file_name"`
	ObjectKey  string    `json:"object_key" gorm:"not null"`
	ContentLen int64     `json:"content_len"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
