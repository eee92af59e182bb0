package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session over the course materials",
	Long: `Start an interactive chat session. Follow-up questions can reference
earlier exchanges; the assistant keeps a short conversation window.

Type 'exit' or press Ctrl+D to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := getAssistant()
	if err != nil {
		return err
	}

	fmt.Println("coursechat: ask about your course materials (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := a.Answer(context.Background(), sessionID, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		sessionID = answer.SessionID

		fmt.Println(answer.Text)
		printSources(answer.Sources)
		fmt.Println()
	}
}
