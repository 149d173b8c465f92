package services

import (
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

// ProgressService tracks per-lesson progress, time spent and bookmarks.
// Writes are merge-upserts so a save and a time flush racing for the same
// lesson both land; the first-completion transition feeds the user streak.
type ProgressService struct {
	context.DefaultService

	sqlSvc  *SqlService
	userSvc *UserService
}

const PROGRESS_SVC = "progress_svc"

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	return nil
}

// GetProgress returns the stored row, or a zero-value default for a lesson
// the user never touched. The default is not persisted.
func (svc *ProgressService) GetProgress(userID, lessonID string) (*dto.ProgressResponse, error) {
	row, err := svc.sqlSvc.GetProgress(userID, lessonID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == 404 {
			return &dto.ProgressResponse{
				LessonID: lessonID,
				Status:   shared.ProgressNotStarted,
			}, nil
		}
		return nil, err
	}
	return svc.toResponse(row), nil
}

// SaveProgress merges a step update. Attempts are counted once per lesson
// start and CompletedAt is stamped only on the first false-to-true
// transition, so replays and out-of-order saves converge.
func (svc *ProgressService) SaveProgress(userID, lessonID string, req *dto.SaveProgressRequest) (*dto.ProgressResponse, error) {
	existing, err := svc.sqlSvc.GetProgress(userID, lessonID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); !ok || appErr.StatusCode != 404 {
			return nil, err
		}
		existing = nil
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"current_step": req.CurrentStep,
		"total_steps":  req.TotalSteps,
	}

	if existing == nil || existing.StartedAt == nil {
		fields["started_at"] = now
		attempts := 1
		if existing != nil {
			attempts = existing.Attempts + 1
		}
		fields["attempts"] = attempts
	}

	wasCompleted := existing != nil && existing.Completed
	completed := wasCompleted || req.Completed
	fields["completed"] = completed

	if completed {
		fields["status"] = shared.ProgressCompleted
		if !wasCompleted {
			fields["completed_at"] = now
		}
	} else {
		fields["status"] = shared.ProgressInProgress
	}

	row, err := svc.sqlSvc.MergeProgress(userID, lessonID, fields)
	if err != nil {
		return nil, err
	}

	if completed && !wasCompleted {
		if err := svc.userSvc.IncrementCompleted(userID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id":   userID,
				"lesson_id": lessonID,
			}).Warn("Failed to update completion stats")
		}
	}

	return svc.toResponse(row), nil
}

// MarkComplete is the shortcut used by the lesson end screen. It flips the
// completed flag at whatever step the user is on; it does not advance the
// position.
func (svc *ProgressService) MarkComplete(userID, lessonID string) (*dto.ProgressResponse, error) {
	existing, _ := svc.sqlSvc.GetProgress(userID, lessonID)

	req := &dto.SaveProgressRequest{Completed: true}
	if existing != nil {
		req.CurrentStep = existing.CurrentStep
		req.TotalSteps = existing.TotalSteps
	}

	return svc.SaveProgress(userID, lessonID, req)
}

// AddTime accumulates viewing time. Called from a beacon on page unload, so
// failures are not worth surfacing to the client.
func (svc *ProgressService) AddTime(userID, lessonID string, seconds int) (*dto.ProgressResponse, error) {
	existing, err := svc.sqlSvc.GetProgress(userID, lessonID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); !ok || appErr.StatusCode != 404 {
			return nil, err
		}
		existing = nil
	}

	total := seconds
	if existing != nil {
		total += existing.TimeSpent
	}

	fields := map[string]interface{}{"time_spent": total}
	if existing == nil {
		fields["status"] = shared.ProgressInProgress
		fields["started_at"] = time.Now().UTC()
		fields["attempts"] = 1
	}

	row, err := svc.sqlSvc.MergeProgress(userID, lessonID, fields)
	if err != nil {
		return nil, err
	}
	return svc.toResponse(row), nil
}

// GetSummary aggregates everything for the dashboard. The not-started count
// is derived from the catalog size and never goes negative.
func (svc *ProgressService) GetSummary(userID string) (*dto.ProgressSummaryResponse, error) {
	rows, err := svc.sqlSvc.ListProgress(userID)
	if err != nil {
		return nil, err
	}

	summary := &dto.ProgressSummaryResponse{
		Lessons: make([]dto.ProgressResponse, 0, len(rows)),
	}

	for i := range rows {
		row := &rows[i]
		summary.TotalTime += row.TimeSpent
		switch {
		case row.Completed:
			summary.Completed++
		case row.Status == shared.ProgressInProgress:
			summary.InProgress++
		}
		summary.Lessons = append(summary.Lessons, *svc.toResponse(row))
	}

	summary.NotStarted = shared.CatalogSize - summary.Completed - summary.InProgress
	if summary.NotStarted < 0 {
		summary.NotStarted = 0
	}

	return summary, nil
}

// ==================== BOOKMARKS ====================

func (svc *ProgressService) AddBookmark(userID, lessonID, title string) (*dto.BookmarkResponse, error) {
	bm, err := svc.sqlSvc.UpsertBookmark(userID, lessonID, title)
	if err != nil {
		return nil, err
	}
	return svc.toBookmark(bm), nil
}

func (svc *ProgressService) RemoveBookmark(userID, lessonID string) error {
	return svc.sqlSvc.DeleteBookmark(userID, lessonID)
}

func (svc *ProgressService) ListBookmarks(userID string) ([]dto.BookmarkResponse, error) {
	rows, err := svc.sqlSvc.ListBookmarks(userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.BookmarkResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *svc.toBookmark(&rows[i]))
	}
	return out, nil
}

func (svc *ProgressService) toResponse(row *model.LessonProgress) *dto.ProgressResponse {
	var lastAccessed *time.Time
	if !row.LastAccessedAt.IsZero() {
		t := row.LastAccessedAt
		lastAccessed = &t
	}

	return &dto.ProgressResponse{
		LessonID:       row.LessonID,
		CurrentStep:    row.CurrentStep,
		TotalSteps:     row.TotalSteps,
		Status:         row.Status,
		Completed:      row.Completed,
		TimeSpent:      row.TimeSpent,
		Attempts:       row.Attempts,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
		LastAccessedAt: lastAccessed,
	}
}

func (svc *ProgressService) toBookmark(bm *model.Bookmark) *dto.BookmarkResponse {
	return &dto.BookmarkResponse{
		LessonID:     bm.LessonID,
		Title:        bm.Title,
		BookmarkedAt: bm.BookmarkedAt,
	}
}
