package models

import (
	"time"
)

// ImageRecord represents the 'images' table.
type ImageRecord struct {
	ID          string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"column:user_id;size:36;index" json:"user_id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	StoragePath string    `gorm:"column:storage_path" json:"storage_path"` // storage key
	CreatedAt   time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (ImageRecord) TableName() string {
	return "images"
}

// LikeEdge represents the 'likes' table, one row per (user, image) pair.
type LikeEdge struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"column:user_id;size:36;uniqueIndex:idx_likes_user_image" json:"user_id"`
	ImageID   string    `gorm:"column:image_id;size:36;uniqueIndex:idx_likes_user_image" json:"image_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (LikeEdge) TableName() string {
	return "likes"
}

// ResolvedImage is an ImageRecord ready for display.
type ResolvedImage struct {
	ImageRecord

	// DisplayURL is the time-limited access URL. Empty when Unresolved.
	DisplayURL string `json:"display_url"`
	// URLExpiresAt is the instant after which DisplayURL must not be handed out.
	URLExpiresAt time.Time `json:"url_expires_at"`
	// Unresolved marks items whose URL could not be resolved; the UI offers a retry.
	Unresolved bool `json:"unresolved"`
	// Layout is a presentation-only hint.
	Layout LayoutHint `json:"layout"`
}
