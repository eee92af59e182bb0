package parser

import (
	"errors"
	"strings"
	"testing"
)

const sampleDocument = `Course Title: Intro to X
Course Link: http://example.com/intro-x
Course Instructor: Ada Lovelace

Lesson 0: Getting Started
Lesson Link: http://example.com/intro-x/0
Cats are mammals. Dogs are mammals too.

Lesson 2: Going Deeper
Whales are also mammals. They live in the ocean.
`

func TestParseDocument(t *testing.T) {
	course, spans, err := ParseDocument(sampleDocument)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if course.Title != "Intro to X" {
		t.Errorf("Title = %q, want 'Intro to X'", course.Title)
	}
	if course.Link != "http://example.com/intro-x" {
		t.Errorf("Link = %q", course.Link)
	}
	if course.Instructor != "Ada Lovelace" {
		t.Errorf("Instructor = %q", course.Instructor)
	}

	if len(course.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(course.Lessons))
	}
	if course.Lessons[0].Number != 0 || course.Lessons[0].Title != "Getting Started" {
		t.Errorf("lesson[0] = %+v", course.Lessons[0])
	}
	if course.Lessons[0].Link != "http://example.com/intro-x/0" {
		t.Errorf("lesson[0].Link = %q", course.Lessons[0].Link)
	}
	// Lesson numbers need not be contiguous.
	if course.Lessons[1].Number != 2 {
		t.Errorf("lesson[1].Number = %d, want 2", course.Lessons[1].Number)
	}

	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if !strings.Contains(spans[0].Body, "Cats are mammals.") {
		t.Errorf("span[0].Body = %q", spans[0].Body)
	}
	if !strings.Contains(spans[1].Body, "Whales are also mammals.") {
		t.Errorf("span[1].Body = %q", spans[1].Body)
	}
}

func TestParseDocument_MissingTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty document", ""},
		{"no header at all", "Lesson 0: Intro\nSome text."},
		{"link but no title", "Course Link: http://example.com\nLesson 0: Intro\nText."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDocument(tt.text)
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("ParseDocument() error = %v, want ErrMalformedDocument", err)
			}
		})
	}
}

func TestParseDocument_OptionalHeaderFields(t *testing.T) {
	course, _, err := ParseDocument("Course Title: Minimal\nLesson 1: Only\nBody text here.")
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if course.Link != "" || course.Instructor != "" {
		t.Errorf("expected empty optional fields, got link=%q instructor=%q", course.Link, course.Instructor)
	}
	if len(course.Lessons) != 1 {
		t.Fatalf("got %d lessons, want 1", len(course.Lessons))
	}
}

func TestParseDocument_PreambleBecomesCourseLevelSpan(t *testing.T) {
	text := "Course Title: With Preamble\n\nA general overview of the course.\n\nLesson 1: Start\nLesson body."
	_, spans, err := ParseDocument(text)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Lesson != nil {
		t.Errorf("span[0] should be course-level, got lesson %+v", spans[0].Lesson)
	}
	if !strings.Contains(spans[0].Body, "general overview") {
		t.Errorf("span[0].Body = %q", spans[0].Body)
	}
}

func TestParseDocument_EmptyLessonBody(t *testing.T) {
	text := "Course Title: Sparse\nLesson 1: Empty\nLesson 2: Full\nActual content lives here."
	course, spans, err := ParseDocument(text)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if len(course.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(course.Lessons))
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Body != "" {
		t.Errorf("empty lesson body = %q, want \"\"", spans[0].Body)
	}
}
