package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/shared"
)

type ProgressHandler struct {
	progressSvc ProgressServiceInterface
}

func NewProgressHandler(progressSvc ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// @Summary Progress summary
// @Description Aggregated progress across the catalog for the caller
// @Tags progress
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.ProgressSummaryResponse}
// @Router /api/v1/progress [get]
func (h *ProgressHandler) GetSummary(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.progressSvc.GetSummary(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Progress summary", resp)
}

// @Summary Lesson progress
// @Description Progress for one lesson, zero-valued if never started
// @Tags progress
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{lessonId} [get]
func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	lessonID := c.Params("lessonId")

	resp, err := h.progressSvc.GetProgress(userID, lessonID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lesson progress", resp)
}

// @Summary Save lesson progress
// @Description Merge a step update into the lesson progress record
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Param saveProgressRequest body dto.SaveProgressRequest true "Step update"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{lessonId} [put]
func (h *ProgressHandler) SaveProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	lessonID := c.Params("lessonId")

	var req dto.SaveProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.progressSvc.SaveProgress(userID, lessonID, &req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Progress saved", resp)
}

// @Summary Mark lesson complete
// @Description Complete the lesson regardless of step position
// @Tags progress
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{lessonId}/complete [post]
func (h *ProgressHandler) MarkComplete(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	lessonID := c.Params("lessonId")

	resp, err := h.progressSvc.MarkComplete(userID, lessonID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lesson completed", resp)
}

// @Summary Add lesson time
// @Description Accumulate elapsed seconds into the lesson's time counter
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Param addTimeRequest body dto.AddTimeRequest true "Elapsed seconds"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{lessonId}/time [post]
func (h *ProgressHandler) AddTime(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	lessonID := c.Params("lessonId")

	var req dto.AddTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.progressSvc.AddTime(userID, lessonID, req.Seconds)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Time recorded", resp)
}

// ==================== BOOKMARKS ====================

// @Summary List bookmarks
// @Tags bookmarks
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=[]dto.BookmarkResponse}
// @Router /api/v1/bookmarks [get]
func (h *ProgressHandler) ListBookmarks(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.progressSvc.ListBookmarks(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Bookmarks", resp)
}

// @Summary Add bookmark
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Param bookmarkRequest body dto.BookmarkRequest true "Bookmark title"
// @Success 201 {object} shared.Response{data=dto.BookmarkResponse}
// @Router /api/v1/bookmarks/{lessonId} [put]
func (h *ProgressHandler) AddBookmark(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	lessonID := c.Params("lessonId")

	var req dto.BookmarkRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.progressSvc.AddBookmark(userID, lessonID, req.Title)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Bookmark saved", resp)
}

// @Summary Remove bookmark
// @Tags bookmarks
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/bookmarks/{lessonId} [delete]
func (h *ProgressHandler) RemoveBookmark(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	lessonID := c.Params("lessonId")

	if err := h.progressSvc.RemoveBookmark(userID, lessonID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Bookmark removed", nil)
}
