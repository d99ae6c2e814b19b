package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"gallery/core/database"
	"gallery/feature/gallery/models"
	"gallery/feature/gallery/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticResolver map[string]string

func (r staticResolver) Resolve(ctx context.Context, key string) (string, bool) {
	url, ok := r[key]
	return url, ok
}

type brokenGetter struct{}

func (brokenGetter) GetImage(ctx context.Context, id string) (*models.ImageRecord, error) {
	return nil, errors.New("connection reset")
}

func setupApp(t *testing.T, images ImageGetter, resolver URLResolver) *fiber.App {
	app := fiber.New()
	require.NoError(t, NewFeature(images, resolver, zap.NewNop()).Load(app))
	return app
}

func setupStore(t *testing.T) *store.Store {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	s := store.New(db, nil)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.InsertImage(context.Background(), &models.ImageRecord{
		ID:          "img-1",
		UserID:      "uploader",
		Title:       "Harbour",
		StoragePath: "public/1.jpg",
		CreatedAt:   time.Now(),
	}))
	require.NoError(t, s.InsertImage(context.Background(), &models.ImageRecord{
		ID:          "img-2",
		UserID:      "uploader",
		Title:       "Dunes",
		StoragePath: "public/2.jpg",
		CreatedAt:   time.Now(),
	}))
	return s
}

func TestHandleGet(t *testing.T) {
	app := setupApp(t, setupStore(t), staticResolver{"public/1.jpg": "https://cdn.test/public/1.jpg"})

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantURL    any
	}{
		{name: "resolved", id: "img-1", wantStatus: fiber.StatusOK, wantURL: "https://cdn.test/public/1.jpg"},
		{name: "unresolved", id: "img-2", wantStatus: fiber.StatusOK, wantURL: nil},
		{name: "missing", id: "nope", wantStatus: fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/images/"+tt.id, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantStatus != fiber.StatusOK {
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.Equal(t, tt.id, body["image"].(map[string]any)["id"])
			assert.Equal(t, tt.wantURL, body["display_url"])
		})
	}
}

func TestHandleGetStoreError(t *testing.T) {
	app := setupApp(t, brokenGetter{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/images/img-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestLoader(t *testing.T) {
	feature := NewFeature(brokenGetter{}, nil, zap.NewNop())
	assert.Equal(t, "images", feature.Name())
	assert.True(t, feature.IsEnabled())
}
