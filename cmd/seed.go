package cmd

import (
	"fmt"
	"time"

	"gallery/core/config"
	"gallery/core/database"
	"gallery/core/logger"
	"gallery/feature/gallery/models"
	"gallery/feature/gallery/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample image records",
	Long:  `Creates the gallery tables if needed and inserts sample image records pointing at keys under the storage prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		owner, _ := cmd.Flags().GetString("user")

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}

		repo := store.New(db, nil)
		if err := repo.Migrate(); err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := 0; i < count; i++ {
			id := uuid.NewString()
			img := models.ImageRecord{
				ID:          id,
				UserID:      owner,
				Title:       fmt.Sprintf("Sample %d", i+1),
				StoragePath: fmt.Sprintf("%s/%s.jpg", cfg.Storage.Prefix, id),
				CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
			}
			if err := repo.InsertImage(cmd.Context(), &img); err != nil {
				return err
			}
		}

		logg.Info("Seeded image records", zap.Int("count", count), zap.String("user_id", owner))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Int("count", 25, "Number of records to insert")
	seedCmd.Flags().String("user", uuid.Nil.String(), "Uploader user id")
}
