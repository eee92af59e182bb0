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

// OutlineToolName is the name the model uses to fetch a course outline.
const OutlineToolName = "get_course_outline"

// OutlineInput is the argument schema for the outline tool.
type OutlineInput struct {
	CourseName string `json:"course_name"`
}

// OutlineTool returns a course's full lesson list and metadata. Used for
// structural questions ("what does lesson 4 cover?") where similarity
// search over content is the wrong instrument.
type OutlineTool struct {
	deps *Dependencies
}

var _ Tool = (*OutlineTool)(nil)

// NewOutlineTool creates the course outline tool.
func NewOutlineTool(deps *Dependencies) *OutlineTool {
	return &OutlineTool{deps: deps}
}

// Definition describes the tool for the model.
func (t *OutlineTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        OutlineToolName,
			Description: "Get the complete outline of a course: title, link and the full numbered lesson list",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"course_name": map[string]any{
						"type":        "string",
						"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
					},
				},
				"required": []string{"course_name"},
			},
		},
	}
}

// Execute resolves the course and renders its outline.
func (t *OutlineTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var input OutlineInput
	if err := json.Unmarshal(args, &input); err != nil {
		return Result{}, fmt.Errorf("parse outline arguments: %w", err)
	}
	if input.CourseName == "" {
		return Result{Text: "Course name cannot be empty."}, nil
	}

	course, err := t.deps.Store.Outline(ctx, input.CourseName)
	if errors.Is(err, corpus.ErrNoMatchingCourse) {
		return Result{Text: fmt.Sprintf("No course found matching '%s'", input.CourseName)}, nil
	}
	if errors.Is(err, corpus.ErrBackendUnavailable) {
		t.deps.Logger.Error("outline backend unavailable", "error", err)
		return Result{Text: "Search is temporarily unavailable. Please try again later."}, nil
	}
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", lesson.Number, lesson.Title)
	}

	t.deps.Logger.Info("outline retrieved", "course", course.Title, "lessons", len(course.Lessons))

	return Result{
		Text:    strings.TrimRight(b.String(), "\n"),
		Sources: []models.Source{{Course: course.Title, Link: course.Link}},
	}, nil
}
