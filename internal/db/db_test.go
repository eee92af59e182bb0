// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/raphaelgruber/coursechat-go/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	// Schema dimension matches the test embedding vectors below
	if err := testDB.InitSchema(ctx, 4); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func intPtr(n int) *int { return &n }

// testCourse builds a course with two lessons plus matching chunks and
// orthogonal embeddings so distance ordering is deterministic.
func testCourse(title string) (*models.Course, []models.Chunk, [][]float32) {
	course := &models.Course{
		Title:      title,
		Link:       "https://example.com/" + title,
		Instructor: "Test Instructor",
		Lessons: []models.Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/lesson0"},
			{Number: 1, Title: "Basics"},
		},
	}
	chunks := []models.Chunk{
		{CourseTitle: title, LessonNumber: intPtr(0), Index: 0, Content: "Course " + title + " Lesson 0 content: intro text."},
		{CourseTitle: title, LessonNumber: intPtr(0), Index: 1, Content: "Course " + title + " Lesson 0 content: more intro."},
		{CourseTitle: title, LessonNumber: intPtr(1), Index: 2, Content: "Course " + title + " Lesson 1 content: basics text."},
	}
	embeddings := [][]float32{
		{1, 0, 0, 0},
		{0.9, 0.1, 0, 0},
		{0, 1, 0, 0},
	}
	return course, chunks, embeddings
}

func TestUpsertAndGetCourse(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	course, chunks, embeddings := testCourse("Upsert Course")
	if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	got, err := testDB.GetCourse(ctx, "Upsert Course")
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Title != course.Title {
		t.Errorf("Expected title %q, got %q", course.Title, got.Title)
	}
	if got.Link != course.Link {
		t.Errorf("Expected link %q, got %q", course.Link, got.Link)
	}
	if got.Instructor != course.Instructor {
		t.Errorf("Expected instructor %q, got %q", course.Instructor, got.Instructor)
	}
	if len(got.Lessons) != 2 {
		t.Fatalf("Expected 2 lessons, got %d", len(got.Lessons))
	}
	if got.Lessons[0].Link != "https://example.com/lesson0" {
		t.Errorf("Expected lesson link preserved, got %q", got.Lessons[0].Link)
	}
}

func TestHasCourse(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	course, chunks, embeddings := testCourse("Exists Course")
	if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	exists, err := testDB.HasCourse(ctx, "Exists Course")
	if err != nil {
		t.Fatalf("HasCourse failed: %v", err)
	}
	if !exists {
		t.Error("Expected course to exist")
	}

	exists, err = testDB.HasCourse(ctx, "Nope")
	if err != nil {
		t.Fatalf("HasCourse failed: %v", err)
	}
	if exists {
		t.Error("Expected course to not exist")
	}
}

func TestUpsertCourseReplacesChunks(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	course, chunks, embeddings := testCourse("Replace Course")
	if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		t.Fatalf("First UpsertCourse failed: %v", err)
	}

	// Second ingest carries fewer chunks; stale ones must disappear
	if err := testDB.UpsertCourse(ctx, course, chunks[:1], embeddings[:1]); err != nil {
		t.Fatalf("Second UpsertCourse failed: %v", err)
	}

	n, err := testDB.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 chunk after re-ingest, got %d", n)
	}

	courses, err := testDB.CountCourses(ctx)
	if err != nil {
		t.Fatalf("CountCourses failed: %v", err)
	}
	if courses != 1 {
		t.Errorf("Expected 1 course after re-ingest, got %d", courses)
	}
}

func TestUpsertCourseEmbeddingMismatch(t *testing.T) {
	ctx := context.Background()

	course, chunks, embeddings := testCourse("Mismatch Course")
	err := testDB.UpsertCourse(ctx, course, chunks, embeddings[:1])
	if err == nil {
		t.Fatal("Expected error for chunk/embedding count mismatch")
	}
}

func TestSearchChunks(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	course, chunks, embeddings := testCourse("Search Course")
	if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	hits, err := testDB.SearchChunks(ctx, []float32{1, 0, 0, 0}, 2, "", nil)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.Index != 0 {
		t.Errorf("Expected nearest chunk index 0, got %d", hits[0].Chunk.Index)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Errorf("Expected ascending distance order, got %f then %f",
			hits[0].Distance, hits[1].Distance)
	}
}

func TestSearchChunksCourseFilter(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	courseA, chunksA, embA := testCourse("Filter Course A")
	courseB, chunksB, embB := testCourse("Filter Course B")
	if err := testDB.UpsertCourse(ctx, courseA, chunksA, embA); err != nil {
		t.Fatalf("UpsertCourse A failed: %v", err)
	}
	if err := testDB.UpsertCourse(ctx, courseB, chunksB, embB); err != nil {
		t.Fatalf("UpsertCourse B failed: %v", err)
	}

	hits, err := testDB.SearchChunks(ctx, []float32{1, 0, 0, 0}, 10, "Filter Course B", nil)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Expected hits for filtered course")
	}
	for _, h := range hits {
		if h.Chunk.CourseTitle != "Filter Course B" {
			t.Errorf("Hit leaked from course %q", h.Chunk.CourseTitle)
		}
	}
}

func TestSearchChunksLessonFilter(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	course, chunks, embeddings := testCourse("Lesson Filter Course")
	if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	hits, err := testDB.SearchChunks(ctx, []float32{1, 0, 0, 0}, 10, "Lesson Filter Course", intPtr(1))
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit for lesson 1, got %d", len(hits))
	}
	if hits[0].Chunk.LessonNumber == nil || *hits[0].Chunk.LessonNumber != 1 {
		t.Errorf("Expected lesson 1 hit, got %v", hits[0].Chunk.LessonNumber)
	}
}

func TestSearchChunksRejectsZeroK(t *testing.T) {
	ctx := context.Background()

	_, err := testDB.SearchChunks(ctx, []float32{1, 0, 0, 0}, 0, "", nil)
	if err == nil {
		t.Fatal("Expected error for k=0")
	}
}

func TestCourseTitlesOrdered(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	for _, title := range []string{"Zebra Course", "Alpha Course", "Mid Course"} {
		course, chunks, embeddings := testCourse(title)
		if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
			t.Fatalf("UpsertCourse %q failed: %v", title, err)
		}
	}

	titles, err := testDB.CourseTitles(ctx)
	if err != nil {
		t.Fatalf("CourseTitles failed: %v", err)
	}
	want := []string{"Alpha Course", "Mid Course", "Zebra Course"}
	if len(titles) != len(want) {
		t.Fatalf("Expected %d titles, got %d", len(want), len(titles))
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("Expected title %d to be %q, got %q", i, want[i], titles[i])
		}
	}
}

func TestGetCourseNotFound(t *testing.T) {
	ctx := context.Background()

	_, err := testDB.GetCourse(ctx, "No Such Course")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("Expected ErrCourseNotFound, got %v", err)
	}
}

func TestDeleteCourse(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = testDB.WipeData(ctx) })

	course, chunks, embeddings := testCourse("Delete Course")
	if err := testDB.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	if err := testDB.DeleteCourse(ctx, "Delete Course"); err != nil {
		t.Fatalf("DeleteCourse failed: %v", err)
	}

	exists, err := testDB.HasCourse(ctx, "Delete Course")
	if err != nil {
		t.Fatalf("HasCourse failed: %v", err)
	}
	if exists {
		t.Error("Expected course to be gone")
	}

	n, err := testDB.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 chunks after delete, got %d", n)
	}
}
