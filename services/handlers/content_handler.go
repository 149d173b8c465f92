package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/shared"
)

type ContentHandler struct {
	contentSvc ContentServiceInterface
}

func NewContentHandler(contentSvc ContentServiceInterface) *ContentHandler {
	return &ContentHandler{contentSvc: contentSvc}
}

// optionalUserID reads the authenticated user when the route allows
// anonymous access.
func optionalUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok {
		return userID
	}
	return ""
}

// @Summary List lessons
// @Description Active lesson catalog. Premium lessons are flagged locked for non-premium callers.
// @Tags lessons
// @Produce json
// @Success 200 {object} shared.Response{data=dto.LessonListResponse}
// @Router /api/v1/lessons [get]
func (h *ContentHandler) ListLessons(c *fiber.Ctx) error {
	resp, err := h.contentSvc.ListLessons(c.Context(), optionalUserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lessons", resp)
}

// @Summary Get lesson
// @Tags lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.LessonResponse}
// @Router /api/v1/lessons/{lessonId} [get]
func (h *ContentHandler) GetLesson(c *fiber.Ctx) error {
	resp, err := h.contentSvc.GetLesson(c.Context(), optionalUserID(c), c.Params("lessonId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lesson", resp)
}

// @Summary Check lesson access
// @Description Whether the caller may load the lesson's steps
// @Tags lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.LessonAccessResponse}
// @Router /api/v1/lessons/{lessonId}/access [get]
func (h *ContentHandler) CheckAccess(c *fiber.Ctx) error {
	resp, err := h.contentSvc.CheckLessonAccess(c.Context(), optionalUserID(c), c.Params("lessonId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lesson access", resp)
}

// @Summary Upsert lesson
// @Description Create or replace a catalog entry. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param upsertLessonRequest body dto.UpsertLessonRequest true "Lesson"
// @Success 200 {object} shared.Response{data=dto.LessonResponse}
// @Router /api/v1/admin/lessons [put]
func (h *ContentHandler) UpsertLesson(c *fiber.Ctx) error {
	var req dto.UpsertLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.contentSvc.UpsertLesson(&req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lesson saved", resp)
}
