package parser

import "github.com/raphaelgruber/coursechat-go/internal/models"

// ChunkCourse converts parsed lesson spans into indexed, context-annotated
// chunks. The sequence index is zero-based across the whole course, so the
// (course title, index) identity is deterministic for an unchanged document.
func ChunkCourse(course *models.Course, spans []LessonSpan, config ChunkConfig) []models.Chunk {
	var chunks []models.Chunk
	index := 0

	for _, span := range spans {
		var lessonNumber *int
		if span.Lesson != nil {
			n := span.Lesson.Number
			lessonNumber = &n
		}
		label := ContextLabel(course.Title, lessonNumber)

		for _, text := range ChunkSpan(span.Body, config) {
			chunks = append(chunks, models.Chunk{
				CourseTitle:  course.Title,
				LessonNumber: lessonNumber,
				Index:        index,
				Content:      label + text,
			})
			index++
		}
	}

	return chunks
}

// ChunkDocument runs the full document-to-chunks pipeline: header parsing,
// lesson splitting and sentence chunking.
func ChunkDocument(text string, config ChunkConfig) (*models.Course, []models.Chunk, error) {
	course, spans, err := ParseDocument(text)
	if err != nil {
		return nil, nil, err
	}
	return course, ChunkCourse(course, spans, config), nil
}
