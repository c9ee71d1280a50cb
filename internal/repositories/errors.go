package repositories

import (
	"errors"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var log = logrus.WithField("layer", "repository")

// mapError turns driver errors into AppErrors. AppErrors already produced
// inside a transaction pass through untouched.
func mapError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(resource, id)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return models.NewConflictError(resource + " already exists")
	}
	log.WithError(err).WithField("resource", resource).Error("storage failure")
	return models.NewStorageError(err)
}

func storageError(err error) error {
	return mapError(err, "", nil)
}
