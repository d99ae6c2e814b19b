package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gallery/core/config"
	"gallery/core/loader"
	"gallery/core/logger"
	"gallery/core/server"
	"gallery/feature/account"
	"gallery/feature/feed"
	"gallery/feature/gallery"
	"gallery/feature/integrity"
	"gallery/feature/likes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gallery server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Wire database, storage, realtime hub and session
		d, err := newDeps(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to initialize dependencies", zap.Error(err))
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := d.reconciler.Start(ctx); err != nil {
			logg.Fatal("Failed to start like reconciler", zap.Error(err))
		}
		defer d.reconciler.Stop()

		feedSvc := feed.NewService(d.fetcher, cfg.Feed.PageSize, d.reconcileGrowth, logger.Named(logg, logger.ComponentFeed))
		// The scrolling view belongs to the viewer.
		d.sessions.OnChange(func(string) { feedSvc.Reset() })

		// 4. Initialize Fiber App with global middleware
		app := server.NewApp(cfg.Server, logger.Named(logg, logger.ComponentHTTP))

		// 5. Register and load features
		mgr := loader.NewManager()
		mgr.Register(account.NewFeature(d.sessions, logg))
		mgr.Register(feed.NewFeature(feedSvc, logg))
		mgr.Register(likes.NewFeature(d.likes, d.repo, logg))
		mgr.Register(gallery.NewFeature(d.repo, d.urls, logg))
		mgr.Register(integrity.NewFeature(d.storage, cfg.Storage.Bucket, cfg.Storage.Prefix, d.repo, logg))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		feedSvc.Current().Close()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
