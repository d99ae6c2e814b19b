package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gallery/core/database"
	"gallery/core/realtime"
	"gallery/feature/gallery/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type capture struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (c *capture) Publish(e realtime.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func setupStore(t *testing.T) (*Store, *capture) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	pub := &capture{}
	s := New(db, pub)
	require.NoError(t, s.Migrate())
	return s, pub
}

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func seed(t *testing.T, s *Store, n int, base time.Time) []models.ImageRecord {
	out := make([]models.ImageRecord, 0, n)
	for i := 0; i < n; i++ {
		img := models.ImageRecord{
			ID:          fmt.Sprintf("img-%02d", i),
			UserID:      "uploader",
			Title:       fmt.Sprintf("Image %d", i),
			StoragePath: fmt.Sprintf("public/%02d.jpg", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.InsertImage(context.Background(), &img))
		out = append(out, img)
	}
	return out
}

func TestStore_QueryPage(t *testing.T) {
	s, _ := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s, 5, base)

	page, err := s.QueryPage(context.Background(), 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "img-04", page[0].ID)
	assert.Equal(t, "img-03", page[1].ID)
	assert.Equal(t, "img-02", page[2].ID)

	page, err = s.QueryPage(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	n, err := s.CountImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestStore_QueryPage_TieBreak(t *testing.T) {
	s, _ := setupStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"c", "a", "b"} {
		img := models.ImageRecord{ID: id, StoragePath: id + ".jpg", CreatedAt: ts}
		require.NoError(t, s.InsertImage(context.Background(), &img))
	}

	page, err := s.QueryPage(context.Background(), 0, 10)
	require.NoError(t, err)
	ids := []string{page[0].ID, page[1].ID, page[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestStore_LikeEdges(t *testing.T) {
	s, pub := setupStore(t)
	seed(t, s, 3, time.Now().Add(-time.Hour))
	ctx := context.Background()

	v1, err := s.CreateLikeEdge(ctx, "u1", "img-00")
	require.NoError(t, err)
	v2, err := s.CreateLikeEdge(ctx, "u1", "img-00") // already liked
	require.NoError(t, err)
	_, err = s.CreateLikeEdge(ctx, "u1", "img-02")
	require.NoError(t, err)
	_, err = s.CreateLikeEdge(ctx, "u2", "img-01")
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	liked, err := s.QueryLikeEdges(ctx, "u1", []string{"img-00", "img-01", "img-02"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"img-00", "img-02"}, liked)

	n, err := s.CountLikes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	images, err := s.LikedImages(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, images, 2)

	_, err = s.DeleteLikeEdge(ctx, "u1", "img-00")
	require.NoError(t, err)
	_, err = s.DeleteLikeEdge(ctx, "u1", "img-00") // already gone
	require.NoError(t, err)

	n, err = s.CountLikes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 6)
	assert.Equal(t, realtime.EdgeAdded, pub.events[0].Type)
	assert.Equal(t, realtime.EdgeRemoved, pub.events[4].Type)
	for i := 1; i < len(pub.events); i++ {
		assert.Greater(t, pub.events[i].Version, pub.events[i-1].Version)
	}
}

func TestStore_QueryLikeEdges_Empty(t *testing.T) {
	s, _ := setupStore(t)
	liked, err := s.QueryLikeEdges(context.Background(), "u1", nil)
	assert.NoError(t, err)
	assert.Empty(t, liked)
}

func TestStore_GetImage(t *testing.T) {
	s, _ := setupStore(t)
	seed(t, s, 1, time.Now())

	img, err := s.GetImage(context.Background(), "img-00")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "public/00.jpg", img.StoragePath)

	img, err = s.GetImage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, img)

	paths, err := s.StoragePaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"public/00.jpg"}, paths)
}

func TestStore_DatabaseErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &capture{}
	s := New(db, pub)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))
	_, err := s.QueryPage(context.Background(), 0, 12)
	assert.ErrorContains(t, err, "failed to query images")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `likes`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()
	_, err = s.CreateLikeEdge(context.Background(), "u1", "img")
	assert.ErrorContains(t, err, "failed to create like")

	assert.Empty(t, pub.events)
}
