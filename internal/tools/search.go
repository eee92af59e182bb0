package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/models"
)

// SearchToolName is the name the model uses to invoke content search.
const SearchToolName = "search_course_content"

// SearchInput is the argument schema for the search tool.
type SearchInput struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name,omitempty"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
}

// SearchTool retrieves course chunks by semantic similarity, with optional
// fuzzy course and lesson filters. The provenance of each hit travels in
// the Result's sources.
type SearchTool struct {
	deps *Dependencies
}

var _ Tool = (*SearchTool)(nil)

// NewSearchTool creates the content search tool.
func NewSearchTool(deps *Dependencies) *SearchTool {
	return &SearchTool{deps: deps}
}

// Definition describes the tool for the model.
func (t *SearchTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        SearchToolName,
			Description: "Search course materials with smart course name matching and lesson filtering",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to search for in the course content",
					},
					"course_name": map[string]any{
						"type":        "string",
						"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
					},
					"lesson_number": map[string]any{
						"type":        "integer",
						"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Execute runs the search and formats hits for the model. Empty results,
// unresolvable course names and backend outages come back as plain text,
// not errors, so the model can tell the user what happened.
func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var input SearchInput
	if err := json.Unmarshal(args, &input); err != nil {
		return Result{}, fmt.Errorf("parse search arguments: %w", err)
	}
	if input.Query == "" {
		return Result{Text: "Search query cannot be empty."}, nil
	}

	result, err := t.deps.Store.Search(ctx, input.Query, input.CourseName, input.LessonNumber)
	if errors.Is(err, corpus.ErrNoMatchingCourse) {
		return Result{Text: fmt.Sprintf("No course found matching '%s'", input.CourseName)}, nil
	}
	if errors.Is(err, corpus.ErrBackendUnavailable) {
		t.deps.Logger.Error("search backend unavailable", "error", err)
		return Result{Text: "Search is temporarily unavailable. Please try again later."}, nil
	}
	if err != nil {
		return Result{}, err
	}

	if result.IsEmpty() {
		return Result{Text: emptyResultMessage(input)}, nil
	}

	var blocks []string
	var sources []models.Source
	for _, hit := range result.Hits {
		source := models.Source{
			Course: hit.Chunk.CourseTitle,
			Lesson: hit.Chunk.LessonNumber,
			Link:   t.deps.Store.SourceLink(ctx, hit.Chunk.CourseTitle, hit.Chunk.LessonNumber),
		}
		sources = append(sources, source)
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", source.Label(), hit.Chunk.Content))
	}

	queryLog := input.Query
	if len(queryLog) > 30 {
		queryLog = queryLog[:30] + "..."
	}
	t.deps.Logger.Info("content search completed", "query", queryLog, "hits", len(result.Hits))

	return Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}, nil
}

// emptyResultMessage names the active filters so the model can explain why
// nothing was found.
func emptyResultMessage(input SearchInput) string {
	var filters strings.Builder
	if input.CourseName != "" {
		fmt.Fprintf(&filters, " in course '%s'", input.CourseName)
	}
	if input.LessonNumber != nil {
		fmt.Fprintf(&filters, " in lesson %d", *input.LessonNumber)
	}
	return fmt.Sprintf("No relevant content found%s.", filters.String())
}
