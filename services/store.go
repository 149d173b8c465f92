package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/algoviz-app/algoviz_api/model"
)

// Store accessors live on the SQL service. Every entitlement and progress
// write goes through a merge helper: create the row if absent, otherwise
// update only the named columns, so gateway redeliveries and partial updates
// converge instead of clobbering unrelated fields.

// ==================== ENTITLEMENTS ====================

func (ds *SqlService) GetEntitlement(userID string) (*model.Entitlement, error) {
	var ent model.Entitlement
	if err := ds.db.Where("user_id = ?", userID).First(&ent).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &ent, nil
}

func (ds *SqlService) MergeEntitlement(userID string, fields map[string]interface{}) (*model.Entitlement, error) {
	now := time.Now().UTC()
	fields["updated_at"] = now

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		var ent model.Entitlement
		err := tx.Where("user_id = ?", userID).First(&ent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ent = model.Entitlement{UserID: userID, CreatedAt: now}
			if err := tx.Create(&ent).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return tx.Model(&model.Entitlement{}).
			Where("user_id = ?", userID).
			Updates(fields).Error
	})
	if err != nil {
		return nil, ds.HandleError(err)
	}

	return ds.GetEntitlement(userID)
}

// ==================== USERS ====================

func (ds *SqlService) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *SqlService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *SqlService) CreateUser(user *model.User) error {
	return ds.HandleError(ds.db.Create(user).Error)
}

func (ds *SqlService) UpdateUserFields(userID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	return ds.HandleError(ds.db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(fields).Error)
}

// ==================== LESSON PROGRESS ====================

func (ds *SqlService) GetProgress(userID, lessonID string) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := ds.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return &progress, nil
}

func (ds *SqlService) MergeProgress(userID, lessonID string, fields map[string]interface{}) (*model.LessonProgress, error) {
	now := time.Now().UTC()
	fields["updated_at"] = now
	fields["last_accessed_at"] = now

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		var progress model.LessonProgress
		err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			id, _ := uuid.NewV7()
			progress = model.LessonProgress{
				ID:             id.String(),
				UserID:         userID,
				LessonID:       lessonID,
				CreatedAt:      now,
				LastAccessedAt: now,
			}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return tx.Model(&model.LessonProgress{}).
			Where("user_id = ? AND lesson_id = ?", userID, lessonID).
			Updates(fields).Error
	})
	if err != nil {
		return nil, ds.HandleError(err)
	}

	return ds.GetProgress(userID, lessonID)
}

func (ds *SqlService) ListProgress(userID string) ([]model.LessonProgress, error) {
	var items []model.LessonProgress
	err := ds.db.Where("user_id = ?", userID).
		Order("last_accessed_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return items, nil
}

// ==================== BOOKMARKS ====================

func (ds *SqlService) UpsertBookmark(userID, lessonID, title string) (*model.Bookmark, error) {
	now := time.Now().UTC()

	var bookmark model.Bookmark
	err := ds.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&bookmark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, _ := uuid.NewV7()
		bookmark = model.Bookmark{
			ID:           id.String(),
			UserID:       userID,
			LessonID:     lessonID,
			Title:        title,
			BookmarkedAt: now,
		}
		if err := ds.db.Create(&bookmark).Error; err != nil {
			return nil, ds.HandleError(err)
		}
		return &bookmark, nil
	} else if err != nil {
		return nil, ds.HandleError(err)
	}

	bookmark.Title = title
	bookmark.BookmarkedAt = now
	if err := ds.db.Save(&bookmark).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &bookmark, nil
}

func (ds *SqlService) DeleteBookmark(userID, lessonID string) error {
	result := ds.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Delete(&model.Bookmark{})
	if result.Error != nil {
		return ds.HandleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ds.HandleError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (ds *SqlService) ListBookmarks(userID string) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	err := ds.db.Where("user_id = ?", userID).
		Order("bookmarked_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return bookmarks, nil
}

// ==================== LESSON CATALOG ====================

func (ds *SqlService) ListLessons() ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := ds.db.Where("is_active = ?", true).
		Order("\"order\" ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return lessons, nil
}

func (ds *SqlService) GetLesson(lessonID string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := ds.db.Where("id = ?", lessonID).First(&lesson).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &lesson, nil
}

func (ds *SqlService) UpsertLesson(lesson *model.Lesson) error {
	now := time.Now().UTC()
	lesson.UpdatedAt = now

	var existing model.Lesson
	err := ds.db.Where("id = ?", lesson.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lesson.CreatedAt = now
		return ds.HandleError(ds.db.Create(lesson).Error)
	} else if err != nil {
		return ds.HandleError(err)
	}

	lesson.CreatedAt = existing.CreatedAt
	return ds.HandleError(ds.db.Save(lesson).Error)
}

// ==================== LESSON ASSETS ====================

func (ds *SqlService) CreateLessonAsset(asset *model.LessonAsset) error {
	return ds.HandleError(ds.db.Create(asset).Error)
}

func (ds *SqlService) ListLessonAssets(lessonID string) ([]model.LessonAsset, error) {
	var assets []model.LessonAsset
	err := ds.db.Where("lesson_id = ?", lessonID).
		Order("created_at DESC").
		Find(&assets).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return assets, nil
}
