package cmd

import (
	"context"
	"errors"
	"fmt"

	"gallery/core/config"
	"gallery/core/database"
	"gallery/core/logger"
	"gallery/core/realtime"
	"gallery/core/session"
	"gallery/core/storage"
	"gallery/core/urlcache"
	"gallery/feature/feed"
	"gallery/feature/gallery/models"
	"gallery/feature/gallery/store"
	"gallery/feature/likes"

	"go.uber.org/zap"
)

// deps is the object graph shared by the commands.
type deps struct {
	cfg        *config.Config
	logger     *zap.Logger
	storage    storage.Client
	hub        *realtime.Hub
	repo       *store.Store
	urls       *urlcache.Cache
	sessions   *session.Manager
	likes      *likes.Store
	reconciler *likes.Reconciler
	fetcher    *feed.Fetcher
}

func newDeps(cfg *config.Config, logg *zap.Logger) (*deps, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	hub := realtime.NewHub(logger.Named(logg, logger.ComponentRealtime))
	repo := store.New(db, hub)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}

	presign := storage.NewPresignResolver(client, cfg.Storage.Bucket, cfg.Storage.PresignRate, cfg.Storage.PresignBurst)
	urls := urlcache.New(presign, urlcache.OptionsFromConfig(cfg.URLs), logger.Named(logg, logger.ComponentURLs))

	sessions := session.NewManager()
	likesLog := logger.Named(logg, logger.ComponentLikes)
	likeStore := likes.NewStore(repo, sessions, likes.OptionsFromConfig(cfg.Likes), likesLog)

	return &deps{
		cfg:        cfg,
		logger:     logg,
		storage:    client,
		hub:        hub,
		repo:       repo,
		urls:       urls,
		sessions:   sessions,
		likes:      likeStore,
		reconciler: likes.NewReconciler(likeStore, hub, sessions, likesLog),
		fetcher:    feed.NewFetcher(repo, urls, cfg.Feed.Policy(), logger.Named(logg, logger.ComponentFeed)),
	}, nil
}

// reconcileGrowth refreshes the like state of every newly visible item.
func (d *deps) reconcileGrowth(ctx context.Context, added []models.ResolvedImage) {
	ids := make([]string, len(added))
	for i, it := range added {
		ids[i] = it.ID
	}
	err := d.likes.Reconcile(ctx, ids)
	if err != nil && !errors.Is(err, likes.ErrNoSession) {
		// Partial failures heal on the next page.
		d.logger.Warn("Like reconcile after feed growth", zap.Int("ids", len(ids)), zap.Error(err))
	}
}
