package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/coursechat-go/internal/client"
)

var (
	coursesRemote bool
	coursesServer string
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List indexed courses and corpus statistics",
	Long: `List all indexed courses with chunk counts.

By default the local index is queried. With --remote the command asks a
running coursechat-server instead, so no database or embedder needs to be
reachable from this machine.

Examples:
  coursechat courses
  coursechat courses --remote
  coursechat courses --remote --server http://corpus.internal:8000`,
	Args: cobra.NoArgs,
	RunE: runCourses,
}

func init() {
	coursesCmd.Flags().BoolVar(&coursesRemote, "remote", false, "query a running coursechat-server")
	coursesCmd.Flags().StringVar(&coursesServer, "server", "", "server URL for --remote (default COURSECHAT_SERVER_URL or http://localhost:8000)")
}

func runCourses(cmd *cobra.Command, args []string) error {
	if coursesRemote {
		stats, err := client.New(coursesServer).Courses(context.Background())
		if err != nil {
			return fmt.Errorf("remote corpus stats: %w", err)
		}
		printCourseStats(stats.Courses, stats.Chunks, stats.Titles)
		return nil
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("corpus stats: %w", err)
	}
	printCourseStats(stats.Courses, stats.Chunks, stats.Titles)
	return nil
}

func printCourseStats(courses, chunks int, titles []string) {
	fmt.Printf("Courses: %d  Chunks: %d\n", courses, chunks)
	for _, title := range titles {
		fmt.Printf("  %s\n", title)
	}
}
