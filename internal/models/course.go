// Package models defines the core data types shared across the corpus,
// retrieval and orchestration layers.
package models

import "fmt"

// Lesson is a single numbered lesson within a course. Lesson numbers are
// unique within a course but not necessarily contiguous.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course holds the metadata parsed from a course document header.
// The title is the unique key for the whole corpus.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// LessonLink returns the link for the given lesson number, or "" if the
// lesson is unknown or has no link.
func (c *Course) LessonLink(number int) string {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l.Link
		}
	}
	return ""
}

// Chunk is the atomic indexed unit of course text. Identity is the tuple
// (CourseTitle, Index), stable across re-ingestion of the same document.
type Chunk struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"` // nil for course-level text
	Index        int    `json:"chunk_index"`             // zero-based within the course
	Content      string `json:"content"`                 // context-prefixed text
}

// ID returns the deterministic record identifier for the chunk.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s::%d", c.CourseTitle, c.Index)
}

// SearchHit is a single similarity match.
type SearchHit struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// SearchResult is the ephemeral projection of one similarity query,
// ordered by ascending distance and truncated to at most K hits.
type SearchResult struct {
	Hits []SearchHit `json:"hits"`
}

// IsEmpty reports whether the query matched nothing (or K was zero).
func (r SearchResult) IsEmpty() bool {
	return len(r.Hits) == 0
}

// Source records the provenance of one retrieval hit for display to the
// caller alongside the final answer.
type Source struct {
	Course string `json:"course"`
	Lesson *int   `json:"lesson,omitempty"`
	Link   string `json:"link,omitempty"`
}

// Label formats the source the way the retrieval tool labels hits.
func (s Source) Label() string {
	if s.Lesson != nil {
		return fmt.Sprintf("%s - Lesson %d", s.Course, *s.Lesson)
	}
	return s.Course
}
