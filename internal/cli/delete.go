package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <course-name>",
	Short: "Remove a course and its chunks from the corpus",
	Long: `Remove a course from the corpus. The name is fuzzy-matched the same
way the search tools match it, so a partial title works.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	title, err := store.ResolveCourseName(ctx, args[0])
	if err != nil {
		return err
	}
	if err := store.DeleteCourse(ctx, title); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	fmt.Printf("Removed %q\n", title)
	return nil
}
