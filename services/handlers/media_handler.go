package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/algoviz-app/algoviz_api/shared"
)

type MediaHandler struct {
	mediaSvc MediaServiceInterface
}

func NewMediaHandler(mediaSvc MediaServiceInterface) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// @Summary Upload lesson media
// @Description Upload an animation, illustration or thumbnail for a lesson. Admin only.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param lessonId path string true "Lesson ID"
// @Param kind path string true "Media kind" Enums(animation, illustration, thumbnail)
// @Param file formData file true "Media file"
// @Success 201 {object} shared.Response{data=dto.MediaUploadResponse}
// @Router /api/v1/admin/lessons/{lessonId}/media/{kind} [post]
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	lessonID := c.Params("lessonId")
	kind := c.Params("kind")

	file, err := c.FormFile("file")
	if err != nil {
		return shared.NewBadRequestError(err, "Missing file upload")
	}

	var resp interface{}
	switch kind {
	case "animation":
		resp, err = h.mediaSvc.UploadLessonAnimation(lessonID, file)
	case "illustration":
		resp, err = h.mediaSvc.UploadLessonIllustration(lessonID, file)
	case "thumbnail":
		resp, err = h.mediaSvc.UploadLessonThumbnail(lessonID, file)
	default:
		return shared.NewBadRequestError(nil, "Unknown media kind")
	}
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Media uploaded", resp)
}

// @Summary List lesson media
// @Tags lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.LessonMediaResponse}
// @Router /api/v1/lessons/{lessonId}/media [get]
func (h *MediaHandler) GetLessonMedia(c *fiber.Ctx) error {
	resp, err := h.mediaSvc.GetLessonMedia(c.Params("lessonId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Lesson media", resp)
}
