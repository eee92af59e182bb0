// Package corpus manages the course corpus: ingestion of course documents,
// similarity search over their chunks and fuzzy course-name resolution.
package corpus

import (
	"context"

	"github.com/raphaelgruber/coursechat-go/internal/db"
	"github.com/raphaelgruber/coursechat-go/internal/models"
)

// Index is the persistence backend for the corpus. The SurrealDB client is
// the production implementation; memory.Index backs tests and the
// zero-dependency dev mode.
type Index interface {
	// HasCourse reports whether a course with the exact title is indexed.
	HasCourse(ctx context.Context, title string) (bool, error)

	// UpsertCourse atomically replaces a course's metadata and chunks.
	// embeddings[i] belongs to chunks[i].
	UpsertCourse(ctx context.Context, course *models.Course, chunks []models.Chunk, embeddings [][]float32) error

	// SearchChunks returns up to k chunks nearest to the embedding, ordered
	// by ascending distance, optionally filtered by course title and lesson.
	// k must be positive.
	SearchChunks(ctx context.Context, embedding []float32, k int, courseTitle string, lessonNumber *int) ([]models.SearchHit, error)

	// GetCourse fetches course metadata by exact title.
	GetCourse(ctx context.Context, title string) (*models.Course, error)

	// CourseTitles lists all indexed course titles in lexicographic order.
	CourseTitles(ctx context.Context) ([]string, error)

	// DeleteCourse removes a course and its chunks.
	DeleteCourse(ctx context.Context, title string) error

	// CountCourses and CountChunks report corpus size.
	CountCourses(ctx context.Context) (int, error)
	CountChunks(ctx context.Context) (int, error)
}

// Compile-time check that the SurrealDB client satisfies Index.
var _ Index = (*db.Client)(nil)
