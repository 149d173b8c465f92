package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

// MediaService stores lesson media (animation clips, illustrations,
// thumbnails) in object storage and records them against the lesson.
type MediaService struct {
	context.DefaultService
	sqlSvc   *SqlService
	minioSvc *MinIOService
	baseURL  string
}

const MEDIA_SVC = "media_svc"

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *context.Context) error {
	svc.baseURL = os.Getenv("BASE_URL")
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:8000"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)
	return nil
}

// ==================== MEDIA UPLOAD METHODS ====================

func (svc *MediaService) UploadLessonAnimation(lessonID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error) {
	if !svc.isValidVideoFile(file.Filename) {
		return nil, shared.NewBadRequestError(nil, "Invalid animation file format. Supported: MP4, MOV, WEBM")
	}

	if file.Size > 50*1024*1024 {
		return nil, shared.NewBadRequestError(nil, "Animation file too large. Maximum size: 50MB")
	}

	return svc.uploadFile(file, "animation", lessonID)
}

func (svc *MediaService) UploadLessonIllustration(lessonID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error) {
	if !svc.isValidImageFile(file.Filename) {
		return nil, shared.NewBadRequestError(nil, "Invalid image file format. Supported: JPG, PNG, WEBP")
	}

	if file.Size > 5*1024*1024 {
		return nil, shared.NewBadRequestError(nil, "Image file too large. Maximum size: 5MB")
	}

	return svc.uploadFile(file, "illustration", lessonID)
}

func (svc *MediaService) UploadLessonThumbnail(lessonID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error) {
	if !svc.isValidImageFile(file.Filename) {
		return nil, shared.NewBadRequestError(nil, "Invalid image file format. Supported: JPG, PNG, WEBP")
	}

	if file.Size > 2*1024*1024 {
		return nil, shared.NewBadRequestError(nil, "Thumbnail file too large. Maximum size: 2MB")
	}

	return svc.uploadFile(file, "thumbnail", lessonID)
}

func (svc *MediaService) uploadFile(file *multipart.FileHeader, kind, lessonID string) (*dto.MediaUploadResponse, error) {
	if _, err := svc.sqlSvc.GetLesson(lessonID); err != nil {
		return nil, err
	}

	ext := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("%s_%s_%d%s", lessonID, kind, time.Now().Unix(), ext)

	var subDir string
	switch kind {
	case "animation":
		subDir = "animations"
	case "illustration":
		subDir = "illustrations"
	case "thumbnail":
		subDir = "thumbnails"
	default:
		subDir = "misc"
	}

	objectName := fmt.Sprintf("%s/%s", subDir, fileName)

	src, err := file.Open()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to open uploaded file")
	}
	defer src.Close()

	uploadInfo, err := svc.minioSvc.UploadFile(objectName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to upload file to storage")
	}

	// Presigned URL valid for 24 hours, with a plain path fallback
	fileURL, err := svc.minioSvc.GetFileURL(objectName, 24*time.Hour)
	if err != nil {
		log.Printf("Failed to generate presigned URL: %v", err)
		fileURL = fmt.Sprintf("%s/%s/%s", svc.baseURL, svc.minioSvc.GetBucketName(), objectName)
	}

	id, _ := uuid.NewV7()

	asset := &model.LessonAsset{
		ID:         id.String(),
		LessonID:   lessonID,
		Kind:       kind,
		FileName:   fileName,
		ObjectKey:  objectName,
		ContentLen: file.Size,
		URL:        fileURL,
	}

	if err := svc.sqlSvc.CreateLessonAsset(asset); err != nil {
		// Clean up the object if the record fails
		_ = svc.minioSvc.DeleteFile(objectName)
		return nil, err
	}

	log.Printf("Successfully uploaded file %s to MinIO: %s", fileName, uploadInfo.Key)

	return &dto.MediaUploadResponse{
		ID:       asset.ID,
		URL:      asset.URL,
		FileName: asset.FileName,
		FileType: asset.Kind,
		FileSize: asset.ContentLen,
	}, nil
}

// ==================== MEDIA RETRIEVAL METHODS ====================

func (svc *MediaService) GetLessonMedia(lessonID string) (*dto.LessonMediaResponse, error) {
	assets, err := svc.sqlSvc.ListLessonAssets(lessonID)
	if err != nil {
		return nil, err
	}

	response := &dto.LessonMediaResponse{
		LessonID: lessonID,
		Assets:   make([]dto.MediaUploadResponse, 0, len(assets)),
	}

	for _, asset := range assets {
		response.Assets = append(response.Assets, dto.MediaUploadResponse{
			ID:       asset.ID,
			URL:      asset.URL,
			FileName: asset.FileName,
			FileType: asset.Kind,
			FileSize: asset.ContentLen,
		})
	}

	return response, nil
}

// ==================== FILE VALIDATION METHODS ====================

func (svc *MediaService) isValidVideoFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	validExts := []string{".mp4", ".mov", ".webm"}

	for _, validExt := range validExts {
		if ext == validExt {
			return true
		}
	}
	return false
}

func (svc *MediaService) isValidImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	validExts := []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

	for _, validExt := range validExts {
		if ext == validExt {
			return true
		}
	}
	return false
}
