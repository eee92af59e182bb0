package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/coursechat-go/internal/models"
)

// knnEF is the HNSW search effort factor. Higher values trade latency for
// recall; 40 keeps recall near-exact for corpora of a few thousand chunks.
const knnEF = 40

// courseRecord mirrors the course table row.
type courseRecord struct {
	Title      string          `json:"title"`
	Link       *string         `json:"link,omitempty"`
	Instructor *string         `json:"instructor,omitempty"`
	Lessons    []models.Lesson `json:"lessons"`
}

// chunkRecord mirrors the chunk table row. The embedding field is
// write-only from the application's point of view.
type chunkRecord struct {
	CourseTitle  string    `json:"course_title"`
	LessonNumber *int      `json:"lesson_number,omitempty"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// hitRecord is a chunk row plus its KNN distance projection.
type hitRecord struct {
	CourseTitle  string  `json:"course_title"`
	LessonNumber *int    `json:"lesson_number,omitempty"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	Distance     float64 `json:"distance"`
}

// HasCourse reports whether a course with the exact title exists.
func (c *Client) HasCourse(ctx context.Context, title string) (bool, error) {
	query := `SELECT title FROM course WHERE title = $title LIMIT 1`
	res, err := surrealdb.Query[[]courseRecord](ctx, c.db, query, map[string]any{
		"title": title,
	})
	if err != nil {
		return false, wrapQueryError("has course", err)
	}
	return len(*res) > 0 && len((*res)[0].Result) > 0, nil
}

// UpsertCourse replaces a course and all of its chunks in a single
// transaction. Re-ingesting the same document is idempotent: old chunks are
// deleted before the new set is created, so a crash never leaves a course
// half indexed.
func (c *Client) UpsertCourse(ctx context.Context, course *models.Course, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("upsert course: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	rows := make([]chunkRecord, len(chunks))
	for i, ch := range chunks {
		rows[i] = chunkRecord{
			CourseTitle:  ch.CourseTitle,
			LessonNumber: ch.LessonNumber,
			ChunkIndex:   ch.Index,
			Content:      ch.Content,
			Embedding:    embeddings[i],
		}
	}

	rec := courseRecord{Title: course.Title, Lessons: course.Lessons}
	if course.Link != "" {
		rec.Link = &course.Link
	}
	if course.Instructor != "" {
		rec.Instructor = &course.Instructor
	}
	if rec.Lessons == nil {
		rec.Lessons = []models.Lesson{}
	}

	query := `
        BEGIN TRANSACTION;
        DELETE chunk WHERE course_title = $course.title;
        DELETE course WHERE title = $course.title;
        CREATE course CONTENT $course;
        FOR $row IN $chunks {
            CREATE chunk CONTENT $row;
        };
        COMMIT TRANSACTION;
    `
	_, err := surrealdb.Query[any](ctx, c.db, query, map[string]any{
		"course": rec,
		"chunks": rows,
	})
	if err != nil {
		return wrapQueryError("upsert course", err)
	}

	c.logger.Info("course indexed", "title", course.Title, "chunks", len(rows))
	return nil
}

// SearchChunks runs a KNN search over chunk embeddings, optionally filtered
// to one course title and/or one lesson number. Results are ordered by
// ascending cosine distance. k must be positive; callers short-circuit k=0.
func (c *Client) SearchChunks(ctx context.Context, embedding []float32, k int, courseTitle string, lessonNumber *int) ([]models.SearchHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search chunks: k must be positive, got %d", k)
	}

	vars := map[string]any{
		"embedding": embedding,
	}

	var filters []string
	if courseTitle != "" {
		filters = append(filters, "course_title = $course_title")
		vars["course_title"] = courseTitle
	}
	if lessonNumber != nil {
		filters = append(filters, "lesson_number = $lesson_number")
		vars["lesson_number"] = *lessonNumber
	}

	where := fmt.Sprintf("embedding <|%d,%d|> $embedding", k, knnEF)
	if len(filters) > 0 {
		where = strings.Join(filters, " AND ") + " AND " + where
	}

	query := fmt.Sprintf(`
        SELECT course_title, lesson_number, chunk_index, content,
               vector::distance::knn() AS distance
        FROM chunk
        WHERE %s
        ORDER BY distance ASC
    `, where)

	res, err := surrealdb.Query[[]hitRecord](ctx, c.db, query, vars)
	if err != nil {
		return nil, wrapQueryError("search chunks", err)
	}
	if len(*res) == 0 {
		return nil, nil
	}

	rows := (*res)[0].Result
	hits := make([]models.SearchHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, models.SearchHit{
			Chunk: models.Chunk{
				CourseTitle:  row.CourseTitle,
				LessonNumber: row.LessonNumber,
				Index:        row.ChunkIndex,
				Content:      row.Content,
			},
			Distance: row.Distance,
		})
	}
	return hits, nil
}

// GetCourse fetches a course's metadata by exact title.
func (c *Client) GetCourse(ctx context.Context, title string) (*models.Course, error) {
	query := `SELECT title, link, instructor, lessons FROM course WHERE title = $title LIMIT 1`
	res, err := surrealdb.Query[[]courseRecord](ctx, c.db, query, map[string]any{
		"title": title,
	})
	if err != nil {
		return nil, wrapQueryError("get course", err)
	}
	if len(*res) == 0 || len((*res)[0].Result) == 0 {
		return nil, fmt.Errorf("get course %q: %w", title, ErrCourseNotFound)
	}

	row := (*res)[0].Result[0]
	course := &models.Course{Title: row.Title, Lessons: row.Lessons}
	if row.Link != nil {
		course.Link = *row.Link
	}
	if row.Instructor != nil {
		course.Instructor = *row.Instructor
	}
	return course, nil
}

// CourseTitles returns all course titles in lexicographic order.
func (c *Client) CourseTitles(ctx context.Context) ([]string, error) {
	query := `SELECT title FROM course ORDER BY title ASC`
	res, err := surrealdb.Query[[]courseRecord](ctx, c.db, query, nil)
	if err != nil {
		return nil, wrapQueryError("course titles", err)
	}
	if len(*res) == 0 {
		return nil, nil
	}

	rows := (*res)[0].Result
	titles := make([]string, 0, len(rows))
	for _, row := range rows {
		titles = append(titles, row.Title)
	}
	return titles, nil
}

// DeleteCourse removes a course and its chunks atomically.
func (c *Client) DeleteCourse(ctx context.Context, title string) error {
	query := `
        BEGIN TRANSACTION;
        DELETE chunk WHERE course_title = $title;
        DELETE course WHERE title = $title;
        COMMIT TRANSACTION;
    `
	_, err := surrealdb.Query[any](ctx, c.db, query, map[string]any{
		"title": title,
	})
	if err != nil {
		return wrapQueryError("delete course", err)
	}
	c.logger.Info("course removed", "title", title)
	return nil
}

// countRow holds a single aggregate count result.
type countRow struct {
	Count int `json:"count"`
}

// CountCourses returns the number of indexed courses.
func (c *Client) CountCourses(ctx context.Context) (int, error) {
	return c.count(ctx, "course")
}

// CountChunks returns the number of indexed chunks.
func (c *Client) CountChunks(ctx context.Context) (int, error) {
	return c.count(ctx, "chunk")
}

func (c *Client) count(ctx context.Context, table string) (int, error) {
	query := fmt.Sprintf(`SELECT count() AS count FROM %s GROUP ALL`, table)
	res, err := surrealdb.Query[[]countRow](ctx, c.db, query, nil)
	if err != nil {
		return 0, wrapQueryError("count "+table, err)
	}
	if len(*res) == 0 || len((*res)[0].Result) == 0 {
		return 0, nil
	}
	return (*res)[0].Result[0].Count, nil
}
