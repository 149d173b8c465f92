package services

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

type SqlService struct {
	context.DefaultService
	db *gorm.DB

	driver   string
	database string
}

const SQL_SVC = "sql_svc"

// Id returns Service ID
func (ds SqlService) Id() string {
	return SQL_SVC
}

// Db Access to raw SqlService db
func (ds SqlService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *SqlService) Configure(ctx *context.Context) error {
	ds.driver = os.Getenv("DB_DRIVER")
	if ds.driver == "" {
		ds.driver = "sqlite"
	}

	ds.database = os.Getenv("DB_DATABASE")
	if ds.database == "" {
		ds.database = "algoviz.db"
	}

	return ds.DefaultService.Configure(ctx)
}

// Start opens the connection and migrates any tables that have changed since
// last runtime.
func (ds *SqlService) Start() (err error) {
	var dialector gorm.Dialector
	switch ds.driver {
	case "postgres":
		dialector = postgres.Open(ds.database)
	default:
		dialector = sqlite.Open(ds.database)
	}

	ds.db, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return err
	}

	err = ds.db.AutoMigrate(
		&model.User{},
		&model.Entitlement{},
		&model.LessonProgress{},
		&model.Bookmark{},
		&model.Lesson{},
		&model.LessonAsset{},
	)
	if err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}

	log.WithField("driver", ds.driver).Info("Database connected and migrated")
	return nil
}

func (ds *SqlService) Shutdown() {
}

func (ds *SqlService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		} else if strings.Contains(err.Error(), "no such table") {
			statusCode = http.StatusInternalServerError
			errorType = "SCHEMA_ERROR"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return shared.NewAppError(statusCode, err, errorType)
}
