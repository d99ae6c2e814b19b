package integrity

import (
	"context"
	"errors"
	"testing"

	"gallery/core/database"
	"gallery/core/storage/mocks"
	"gallery/feature/gallery/models"
	"gallery/feature/gallery/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

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

func setupStore(t *testing.T, paths ...string) *store.Store {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	s := store.New(db, nil)
	require.NoError(t, s.Migrate())
	for _, p := range paths {
		require.NoError(t, s.InsertImage(context.Background(), &models.ImageRecord{StoragePath: p}))
	}
	return s
}

func objects(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

func TestService_CheckImages(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "images").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "images", minio.ListObjectsOptions{Prefix: "public/", Recursive: true}).
		Return(objects("public/", "public/a.jpg", "public/b.jpg", "public/orphan.jpg"))

	svc := NewService(mockClient, "images", "public", setupStore(t, "public/a.jpg", "public/b.jpg", "public/gone.jpg"), zap.NewNop())

	report, err := svc.CheckImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 3, report.Objects)
	assert.Equal(t, []string{"public/gone.jpg"}, report.MissingObjects)
	assert.Equal(t, []string{"public/orphan.jpg"}, report.Orphans)
	assert.False(t, report.Healthy())
	mockClient.AssertExpectations(t)
}

func TestService_CheckImagesHealthy(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "images").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "images", mock.Anything).Return(objects("public/a.jpg"))

	svc := NewService(mockClient, "images", "public/", setupStore(t, "public/a.jpg"), zap.NewNop())

	report, err := svc.CheckImages(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Empty(t, report.MissingObjects)
	assert.Empty(t, report.Orphans)
}

func TestService_CheckImagesErrors(t *testing.T) {
	t.Run("bucket missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "images").Return(false, nil)

		svc := NewService(mockClient, "images", "public", setupStore(t), zap.NewNop())
		_, err := svc.CheckImages(context.Background())
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("listing fails", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "images").Return(true, nil)
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: errors.New("access denied")}
		close(ch)
		mockClient.On("ListObjects", mock.Anything, "images", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

		svc := NewService(mockClient, "images", "public", setupStore(t), zap.NewNop())
		_, err := svc.CheckImages(context.Background())
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("database fails", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "images").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "images", mock.Anything).Return(objects())

		db, sqlMock := setupMockDB(t)
		sqlMock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

		svc := NewService(mockClient, "images", "public", store.New(db, nil), zap.NewNop())
		_, err := svc.CheckImages(context.Background())
		assert.ErrorContains(t, err, "failed to list storage paths")
	})
}
