package service

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrMediaNotFound = errors.New("media upload not found")

// --- Service Interface ---

// MediaService issues presigned URLs and keeps upload metadata plus the
// exercise's media references in step with the objects in storage.
type MediaService interface {
	RequestUpload(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, kind domain.MediaKind, fileName, contentType string) (uploadURL, objectKey string, err error)
	ConfirmUpload(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, kind domain.MediaKind, objectKey, fileName, contentType string, size int64) (*domain.MediaUpload, error)
	DownloadURL(ctx context.Context, uploadID primitive.ObjectID) (string, error)
	DeleteMedia(ctx context.Context, actor Actor, uploadID primitive.ObjectID) error
}

// --- Service Implementation ---

type mediaService struct {
	uploadRepo   repository.UploadRepository
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(uploadRepo repository.UploadRepository, exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) MediaService {
	return &mediaService{
		uploadRepo:   uploadRepo,
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// RequestUpload runs the edit guard and returns a presigned PUT URL
// with the object key the client must confirm afterwards.
func (s *mediaService) RequestUpload(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, kind domain.MediaKind, fileName, contentType string) (string, string, error) {
	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrExerciseNotFound
		}
		return "", "", err
	}
	if err := CanEditExercise(ex, actor); err != nil {
		return "", "", err
	}

	objectKey := fmt.Sprintf("exercises/%s/%s/%s%s", exerciseID.Hex(), kind, uuid.NewString(), path.Ext(fileName))
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// ConfirmUpload records the metadata once the client finished its PUT
// and attaches the key to the exercise's media references.
func (s *mediaService) ConfirmUpload(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, kind domain.MediaKind, objectKey, fileName, contentType string, size int64) (*domain.MediaUpload, error) {
	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if err := CanEditExercise(ex, actor); err != nil {
		return nil, err
	}

	upload := &domain.MediaUpload{
		ExerciseID:  exerciseID,
		UploaderID:  actor.ID,
		Kind:        kind,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	}
	id, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		return nil, err
	}
	upload.ID = id

	field, value := mediaFieldUpdate(ex, kind, objectKey)
	markChanged := actor.Role == domain.RoleAuthor && ex.Status == domain.StatusChangesRequested
	if err := s.exerciseRepo.UpdateField(ctx, exerciseID, field, value, markChanged); err != nil {
		return nil, err
	}
	return upload, nil
}

// DownloadURL returns a presigned GET URL for one stored asset.
func (s *mediaService) DownloadURL(ctx context.Context, uploadID primitive.ObjectID) (string, error) {
	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrMediaNotFound
		}
		return "", err
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.S3ObjectKey, storage.DefaultPresignedURLExpiry)
}

// DeleteMedia removes the object, its metadata, and the exercise's
// reference to it.
func (s *mediaService) DeleteMedia(ctx context.Context, actor Actor, uploadID primitive.ObjectID) error {
	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMediaNotFound
		}
		return err
	}

	ex, err := s.exerciseRepo.GetByID(ctx, upload.ExerciseID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if ex != nil {
		if err := CanEditExercise(ex, actor); err != nil {
			return err
		}
		field, value := mediaFieldRemoval(ex, upload.Kind, upload.S3ObjectKey)
		if err := s.exerciseRepo.UpdateField(ctx, upload.ExerciseID, field, value, false); err != nil {
			return err
		}
	}

	if err := s.fileStorage.DeleteObject(ctx, upload.S3ObjectKey); err != nil {
		return err
	}
	return s.uploadRepo.Delete(ctx, uploadID)
}

// mediaFieldUpdate computes the reference write for a confirmed upload.
// Images append to the list; video and loop are single slots.
func mediaFieldUpdate(ex *domain.Exercise, kind domain.MediaKind, objectKey string) (string, interface{}) {
	switch kind {
	case domain.MediaVideo:
		return "media.videoKey", objectKey
	case domain.MediaLoop:
		return "media.loopKey", objectKey
	default:
		keys := append(append([]string{}, ex.Media.ImageKeys...), objectKey)
		return "media.imageKeys", keys
	}
}

// mediaFieldRemoval computes the reference write that detaches a key.
func mediaFieldRemoval(ex *domain.Exercise, kind domain.MediaKind, objectKey string) (string, interface{}) {
	switch kind {
	case domain.MediaVideo:
		return "media.videoKey", ""
	case domain.MediaLoop:
		return "media.loopKey", ""
	default:
		keys := make([]string, 0, len(ex.Media.ImageKeys))
		for _, k := range ex.Media.ImageKeys {
			if k != objectKey {
				keys = append(keys, k)
			}
		}
		return "media.imageKeys", keys
	}
}
