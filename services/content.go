package services

import (
	"context"

	appContext "github.com/alphabatem/common/context"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
)

// ContentService serves the lesson catalog. Premium lessons are listed for
// everyone but flagged locked until the caller's entitlement says otherwise.
type ContentService struct {
	appContext.DefaultService

	sqlSvc *SqlService
	entSvc *EntitlementService
}

const CONTENT_SVC = "content_svc"

func (svc ContentService) Id() string {
	return CONTENT_SVC
}

func (svc *ContentService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.entSvc = svc.Service(ENTITLEMENT_SVC).(*EntitlementService)
	return nil
}

// ListLessons returns the active catalog. userID may be empty for anonymous
// browsing, in which case every premium lesson is locked.
func (svc *ContentService) ListLessons(ctx context.Context, userID string) (*dto.LessonListResponse, error) {
	lessons, err := svc.sqlSvc.ListLessons()
	if err != nil {
		return nil, err
	}

	premium := userID != "" && svc.entSvc.IsPremium(ctx, userID)

	out := &dto.LessonListResponse{
		Lessons: make([]dto.LessonResponse, 0, len(lessons)),
		Total:   len(lessons),
	}
	for i := range lessons {
		out.Lessons = append(out.Lessons, *svc.toResponse(&lessons[i], premium))
	}
	return out, nil
}

func (svc *ContentService) GetLesson(ctx context.Context, userID, lessonID string) (*dto.LessonResponse, error) {
	lesson, err := svc.sqlSvc.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	premium := userID != "" && svc.entSvc.IsPremium(ctx, userID)
	return svc.toResponse(lesson, premium), nil
}

// CheckLessonAccess answers the gate the player asks before loading steps.
func (svc *ContentService) CheckLessonAccess(ctx context.Context, userID, lessonID string) (*dto.LessonAccessResponse, error) {
	lesson, err := svc.sqlSvc.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	if !lesson.Premium {
		return &dto.LessonAccessResponse{CanAccess: true}, nil
	}

	if userID != "" && svc.entSvc.IsPremium(ctx, userID) {
		return &dto.LessonAccessResponse{CanAccess: true}, nil
	}

	return &dto.LessonAccessResponse{
		CanAccess: false,
		Reason:    "premium_required",
	}, nil
}

// UpsertLesson creates or replaces a catalog entry. Admin only, enforced at
// the route.
func (svc *ContentService) UpsertLesson(req *dto.UpsertLessonRequest) (*dto.LessonResponse, error) {
	lesson := &model.Lesson{
		ID:         req.ID,
		Title:      req.Title,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Order:      req.Order,
		TotalSteps: req.TotalSteps,
		Premium:    req.Premium,
		IsActive:   true,
	}
	if req.IsActive != nil {
		lesson.IsActive = *req.IsActive
	}

	if err := svc.sqlSvc.UpsertLesson(lesson); err != nil {
		return nil, err
	}

	return svc.toResponse(lesson, true), nil
}

func (svc *ContentService) toResponse(lesson *model.Lesson, premium bool) *dto.LessonResponse {
	return &dto.LessonResponse{
		ID:         lesson.ID,
		Title:      lesson.Title,
		Category:   lesson.Category,
		Difficulty: lesson.Difficulty,
		Order:      lesson.Order,
		TotalSteps: lesson.TotalSteps,
		Premium:    lesson.Premium,
		Locked:     lesson.Premium && !premium,
	}
}
