// Package memory provides a brute-force in-memory corpus index. It backs
// unit tests and the db-less dev mode; production uses the SurrealDB index.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/db"
	"github.com/raphaelgruber/coursechat-go/internal/models"
)

type entry struct {
	chunk  models.Chunk
	vector []float32
}

// Index keeps courses and chunk vectors in process memory and searches
// with exact cosine distance.
type Index struct {
	mu      sync.RWMutex
	courses map[string]models.Course
	entries []entry
}

var _ corpus.Index = (*Index)(nil)

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{courses: map[string]models.Course{}}
}

func (m *Index) HasCourse(_ context.Context, title string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.courses[title]
	return ok, nil
}

func (m *Index) UpsertCourse(_ context.Context, course *models.Course, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return corpus.ErrChunkEmbeddingMismatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.chunk.CourseTitle != course.Title {
			kept = append(kept, e)
		}
	}
	m.entries = kept

	for i, ch := range chunks {
		m.entries = append(m.entries, entry{chunk: ch, vector: embeddings[i]})
	}
	m.courses[course.Title] = *course
	return nil
}

func (m *Index) SearchChunks(_ context.Context, embedding []float32, k int, courseTitle string, lessonNumber *int) ([]models.SearchHit, error) {
	if k <= 0 {
		return nil, corpus.ErrInvalidK
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []models.SearchHit
	for _, e := range m.entries {
		if courseTitle != "" && e.chunk.CourseTitle != courseTitle {
			continue
		}
		if lessonNumber != nil {
			if e.chunk.LessonNumber == nil || *e.chunk.LessonNumber != *lessonNumber {
				continue
			}
		}
		hits = append(hits, models.SearchHit{
			Chunk:    e.chunk,
			Distance: cosineDistance(e.vector, embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *Index) GetCourse(_ context.Context, title string) (*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	course, ok := m.courses[title]
	if !ok {
		return nil, db.ErrCourseNotFound
	}
	return &course, nil
}

func (m *Index) CourseTitles(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := make([]string, 0, len(m.courses))
	for title := range m.courses {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles, nil
}

func (m *Index) DeleteCourse(_ context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.courses, title)
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.chunk.CourseTitle != title {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *Index) CountCourses(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courses), nil
}

func (m *Index) CountChunks(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// cosineDistance is 1 - cosine similarity. Zero vectors are maximally
// distant.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
