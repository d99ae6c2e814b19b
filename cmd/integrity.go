package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gallery/core/config"
	"gallery/core/database"
	"gallery/core/logger"
	"gallery/core/storage"
	"gallery/feature/gallery/store"
	"gallery/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Compare stored objects with image records",
	Long:  `Lists every object under the image prefix and every storage key in the database and reports records without objects and objects without records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}

		svc := integrity.NewService(client, cfg.Storage.Bucket, cfg.Storage.Prefix, store.New(db, nil), logg)

		logg.Info("Checking image integrity...", zap.String("bucket", cfg.Storage.Bucket))
		report, err := svc.CheckImages(cmd.Context())
		if err != nil {
			return fmt.Errorf("image integrity check failed: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Println("\n=== Image Integrity ===")
		fmt.Printf("Records: %d\n", report.Records)
		fmt.Printf("Objects: %d\n", report.Objects)
		fmt.Printf("Missing Objects: %d\n", len(report.MissingObjects))
		fmt.Printf("Orphans: %d\n", len(report.Orphans))

		if report.Healthy() {
			logg.Info("Images are intact.")
		} else {
			logg.Warn("Image integrity issues detected",
				zap.Strings("missing_objects", report.MissingObjects),
				zap.Strings("orphans", report.Orphans))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.Flags().Bool("json", false, "Output the report as JSON")
}
