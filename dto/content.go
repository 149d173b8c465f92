package dto

// Lesson catalog DTOs
type LessonResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Order      int    `json:"order"`
	TotalSteps int    `json:"total_steps"`
	Premium    bool   `json:"premium"`

	// Locked is set when the lesson is premium and the caller is not.
	Locked bool `json:"locked"`
}

type LessonListResponse struct {
	Lessons []LessonResponse `json:"lessons"`
	Total   int              `json:"total"`
}

type LessonAccessResponse struct {
	CanAccess bool   `json:"can_access"`
	Reason    string `json:"reason,omitempty"`
}

type UpsertLessonRequest struct {
	ID         string `json:"id" validate:"required,min=2,max=80"`
	Title      string `json:"title" validate:"required"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Order      int    `json:"order" validate:"min=0"`
	TotalSteps int    `json:"total_steps" validate:"min=0"`
	Premium    bool   `json:"premium"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

func (u UpsertLessonRequest) Validate() error {
	return GetValidator().Struct(u)
}
