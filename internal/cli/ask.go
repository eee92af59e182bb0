package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/coursechat-go/internal/models"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about the course materials",
	Long: `Ask a single question and get a grounded answer.

The assistant searches the course corpus when the question is about
course content and answers general questions directly.

Examples:
  coursechat ask "What does lesson 2 of the MCP course cover?"
  coursechat ask "Are there courses about retrieval?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := getAssistant()
	if err != nil {
		return err
	}

	answer, err := a.Answer(context.Background(), "", args[0])
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	fmt.Println(answer.Text)
	printSources(answer.Sources)
	return nil
}

var sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)

// printSources lists retrieval sources under the answer, dimmed.
func printSources(sources []models.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(sourceStyle.Render("Sources:"))
	for _, src := range sources {
		line := "  " + src.Label()
		if src.Link != "" {
			line += " <" + src.Link + ">"
		}
		fmt.Println(sourceStyle.Render(line))
	}
}
