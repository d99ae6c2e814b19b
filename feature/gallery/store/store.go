package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gallery/core/realtime"
	"gallery/feature/gallery/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Publisher receives like edge changes after they are committed.
type Publisher interface {
	Publish(e realtime.Event)
}

// Store is the GORM-backed remote store for images and like edges.
type Store struct {
	db        *gorm.DB
	publisher Publisher
	version   atomic.Int64
	// writeMu keeps version order equal to commit order.
	writeMu sync.Mutex
}

// New creates a store. publisher may be nil.
func New(db *gorm.DB, publisher Publisher) *Store {
	s := &Store{db: db, publisher: publisher}
	// Versions stay monotonic across restarts of a single writer.
	s.version.Store(time.Now().UnixNano())
	return s
}

// Migrate creates or updates the gallery tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.ImageRecord{}, &models.LikeEdge{}); err != nil {
		return fmt.Errorf("failed to migrate gallery tables: %w", err)
	}
	return nil
}

// InsertImage stores a new image record, assigning an id when empty.
func (s *Store) InsertImage(ctx context.Context, img *models.ImageRecord) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

// QueryPage returns limit images starting at offset, newest first.
// Records sharing a timestamp are ordered by id ascending.
func (s *Store) QueryPage(ctx context.Context, offset, limit int) ([]models.ImageRecord, error) {
	var records []models.ImageRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	return records, nil
}

// CountImages returns the total number of images.
func (s *Store) CountImages(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ImageRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return n, nil
}

// StoragePaths returns the storage key of every image.
func (s *Store) StoragePaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := s.db.WithContext(ctx).Model(&models.ImageRecord{}).Pluck("storage_path", &paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list storage paths: %w", err)
	}
	return paths, nil
}

// QueryLikeEdges returns the subset of imageIDs liked by userID.
func (s *Store) QueryLikeEdges(ctx context.Context, userID string, imageIDs []string) ([]string, error) {
	if len(imageIDs) == 0 {
		return nil, nil
	}
	var liked []string
	err := s.db.WithContext(ctx).
		Model(&models.LikeEdge{}).
		Where("user_id = ? AND image_id IN ?", userID, imageIDs).
		Pluck("image_id", &liked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	return liked, nil
}

// CountLikes returns how many images userID likes.
func (s *Store) CountLikes(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.LikeEdge{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}

// CreateLikeEdge records that userID likes imageID. Liking twice succeeds.
// The returned version orders this change against realtime events.
func (s *Store) CreateLikeEdge(ctx context.Context, userID, imageID string) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	edge := models.LikeEdge{ID: uuid.NewString(), UserID: userID, ImageID: imageID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	if err != nil {
		return 0, fmt.Errorf("failed to create like: %w", err)
	}
	return s.publish(realtime.EdgeAdded, userID, imageID), nil
}

// DeleteLikeEdge removes the like of userID on imageID. Deleting a missing edge succeeds.
func (s *Store) DeleteLikeEdge(ctx context.Context, userID, imageID string) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND image_id = ?", userID, imageID).
		Delete(&models.LikeEdge{}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to delete like: %w", err)
	}
	return s.publish(realtime.EdgeRemoved, userID, imageID), nil
}

// LikedImages lists the images liked by userID, most recently liked first.
func (s *Store) LikedImages(ctx context.Context, userID string) ([]models.ImageRecord, error) {
	var records []models.ImageRecord
	err := s.db.WithContext(ctx).
		Table("images").
		Select("images.*").
		Joins("JOIN likes ON likes.image_id = images.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC").
		Order("images.id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list liked images: %w", err)
	}
	return records, nil
}

// GetImage returns one image by id, or ErrNotFound.
func (s *Store) GetImage(ctx context.Context, id string) (*models.ImageRecord, error) {
	var img models.ImageRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

func (s *Store) publish(typ realtime.EventType, userID, imageID string) int64 {
	v := s.version.Add(1)
	if s.publisher != nil {
		s.publisher.Publish(realtime.Event{Type: typ, UserID: userID, ImageID: imageID, Version: v})
	}
	return v
}
