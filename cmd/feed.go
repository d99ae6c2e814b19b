package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gallery/core/config"
	"gallery/core/logger"
	"gallery/feature/feed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print the feed as a viewer would scroll it",
	Long:  `Loads feed pages through the URL cache and prints every item. With --user the viewer is signed in and like state is reconciled for every page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, _ := cmd.Flags().GetInt("pages")
		user, _ := cmd.Flags().GetString("user")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		d, err := newDeps(cfg, logg)
		if err != nil {
			return err
		}
		if user != "" {
			d.sessions.SignIn(user)
		}

		f := feed.New(d.fetcher, cfg.Feed.PageSize, d.reconcileGrowth, logg)
		defer f.Close()

		for i := 0; (pages <= 0 || i < pages) && !f.Done(); i++ {
			if _, err := f.LoadNext(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load page %d: %w", i, err)
			}
		}

		items := f.State().Items()
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(f.Snapshot())
		}

		for i, it := range items {
			status := it.DisplayURL
			if it.Unresolved {
				status = "(unresolved)"
			}
			liked := " "
			if d.likes.IsLiked(it.ID) {
				liked = "*"
			}
			fmt.Printf("%3d %s %s %-24s %s\n", i+1, liked, it.ID, it.Title, status)
		}
		fmt.Printf("\nItems: %d  Done: %t  Liked: %d\n", len(items), f.Done(), d.likes.LikedCount())

		logg.Debug("Feed printed", zap.Int("items", len(items)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(feedCmd)
	feedCmd.Flags().Int("pages", 0, "Number of pages to load (0 loads all)")
	feedCmd.Flags().String("user", "", "Viewer user id")
	feedCmd.Flags().Bool("json", false, "Output the feed snapshot as JSON")
}
