// Package parser turns raw course documents into course metadata and
// context-annotated chunks ready for embedding.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/raphaelgruber/coursechat-go/internal/models"
)

// ErrMalformedDocument indicates a document that does not follow the course
// file contract. Ingestion reports it per file and moves on.
var ErrMalformedDocument = errors.New("malformed course document")

// Document header prefixes. The title line is mandatory, the rest optional.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

// headerLines is how far into the document we look for header fields.
const headerLines = 4

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// LessonSpan is a contiguous slice of document text belonging to one lesson,
// or to the course itself when Lesson is nil (text before the first marker).
type LessonSpan struct {
	Lesson *models.Lesson
	Body   string
}

// ParseDocument parses a course document into course metadata and the raw
// lesson spans. It returns ErrMalformedDocument when the title line is
// missing; everything else in the header is optional.
func ParseDocument(text string) (*models.Course, []LessonSpan, error) {
	lines := strings.Split(text, "\n")

	course := &models.Course{}
	bodyStart := 0
	for i := 0; i < len(lines) && i < headerLines; i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, titlePrefix):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, titlePrefix))
			bodyStart = i + 1
		case strings.HasPrefix(line, linkPrefix):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, linkPrefix))
			bodyStart = i + 1
		case strings.HasPrefix(line, instructorPrefix):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, instructorPrefix))
			bodyStart = i + 1
		}
	}
	if course.Title == "" {
		return nil, nil, fmt.Errorf("%w: missing %q line", ErrMalformedDocument, titlePrefix)
	}

	spans := parseLessonSpans(lines[bodyStart:])
	for _, span := range spans {
		if span.Lesson != nil {
			course.Lessons = append(course.Lessons, *span.Lesson)
		}
	}
	return course, spans, nil
}

// parseLessonSpans splits the document body at lesson marker lines. Text
// before the first marker becomes a course-level span.
func parseLessonSpans(lines []string) []LessonSpan {
	var spans []LessonSpan
	var current *LessonSpan
	var body []string

	flush := func() {
		if current == nil {
			text := strings.TrimSpace(strings.Join(body, "\n"))
			if text != "" {
				spans = append(spans, LessonSpan{Body: text})
			}
		} else {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			spans = append(spans, *current)
		}
		body = body[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		m := lessonMarker.FindStringSubmatch(line)
		if m == nil {
			body = append(body, lines[i])
			continue
		}

		flush()
		number, err := strconv.Atoi(m[1])
		if err != nil {
			// Regex guarantees digits; overflow is the only way here.
			body = append(body, lines[i])
			continue
		}
		current = &LessonSpan{Lesson: &models.Lesson{Number: number, Title: strings.TrimSpace(m[2])}}

		// Optional link line directly after the marker.
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if strings.HasPrefix(next, lessonLinkPrefix) {
				current.Lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, lessonLinkPrefix))
				i++
			}
		}
	}
	flush()

	return spans
}
