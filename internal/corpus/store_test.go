package corpus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/corpus/memory"
	"github.com/raphaelgruber/coursechat-go/internal/metrics"
	"github.com/raphaelgruber/coursechat-go/internal/models"
	"github.com/raphaelgruber/coursechat-go/internal/parser"
)

// stubEmbedder returns fixed vectors keyed by exact text, falling back to
// a constant vector. It counts calls so short-circuit tests can assert the
// embedder was never touched.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0, 0}
		}
	}
	return out, nil
}

func (s *stubEmbedder) Model() string  { return "stub" }
func (s *stubEmbedder) Dimension() int { return 3 }

func intPtr(n int) *int { return &n }

func seedCourse(t *testing.T, index *memory.Index, title string) {
	t.Helper()
	course := &models.Course{
		Title: title,
		Link:  "https://example.com/" + title,
		Lessons: []models.Lesson{
			{Number: 0, Title: "Intro", Link: "https://example.com/" + title + "/0"},
			{Number: 1, Title: "Deep Dive"},
		},
	}
	chunks := []models.Chunk{
		{CourseTitle: title, LessonNumber: intPtr(0), Index: 0, Content: title + " chunk zero"},
		{CourseTitle: title, LessonNumber: intPtr(1), Index: 1, Content: title + " chunk one"},
	}
	embeddings := [][]float32{{1, 0, 0}, {0, 1, 0}}
	require.NoError(t, index.UpsertCourse(context.Background(), course, chunks, embeddings))
}

func newStore(index *memory.Index, emb *stubEmbedder, k int) *corpus.Store {
	return corpus.NewStore(index, emb, corpus.Options{
		MaxResults: k,
		Chunking:   parser.DefaultChunkConfig(),
	}, nil)
}

func TestSearchReturnsNearestChunks(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	emb := &stubEmbedder{vectors: map[string][]float32{"what is go": {1, 0, 0}}}
	store := newStore(index, emb, 5)

	result, err := store.Search(context.Background(), "what is go", "", nil)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "Intro to Go chunk zero", result.Hits[0].Chunk.Content)
	assert.LessOrEqual(t, result.Hits[0].Distance, result.Hits[1].Distance)
}

func TestSearchRespectsMaxResults(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	store := newStore(index, &stubEmbedder{}, 1)

	result, err := store.Search(context.Background(), "anything", "", nil)
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
}

func TestSearchZeroMaxResultsShortCircuits(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	emb := &stubEmbedder{}
	store := newStore(index, emb, 0)

	result, err := store.Search(context.Background(), "anything", "", nil)
	require.NoError(t, err)
	assert.True(t, result.IsEmpty(), "zero cap must yield an empty result")
	assert.Equal(t, 0, emb.calls, "zero cap must not reach the embedder")
}

func TestSearchCourseFilter(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	seedCourse(t, index, "Advanced Rust")
	store := newStore(index, &stubEmbedder{}, 10)

	result, err := store.Search(context.Background(), "anything", "rust", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	for _, h := range result.Hits {
		assert.Equal(t, "Advanced Rust", h.Chunk.CourseTitle)
	}
}

func TestSearchLessonFilter(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	store := newStore(index, &stubEmbedder{}, 10)

	result, err := store.Search(context.Background(), "anything", "", intPtr(1))
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 1, *result.Hits[0].Chunk.LessonNumber)
}

func TestSearchUnknownCourse(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	store := newStore(index, &stubEmbedder{}, 10)

	_, err := store.Search(context.Background(), "anything", "xqzw", nil)
	assert.ErrorIs(t, err, corpus.ErrNoMatchingCourse)
}

func TestResolveCourseName(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Introduction to MCP")
	seedCourse(t, index, "Prompt Compression Techniques")
	store := newStore(index, &stubEmbedder{}, 5)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"exact title", "Introduction to MCP", "Introduction to MCP", false},
		{"case-insensitive substring", "mcp", "Introduction to MCP", false},
		{"partial word", "compression", "Prompt Compression Techniques", false},
		{"typo falls back to edit distance", "Introduction to MPC", "Introduction to MCP", false},
		{"unrelated name", "zzzzqqqq", "", true},
		{"empty name", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ResolveCourseName(context.Background(), tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, corpus.ErrNoMatchingCourse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCourseNameEmptyCorpus(t *testing.T) {
	store := newStore(memory.NewIndex(), &stubEmbedder{}, 5)

	_, err := store.ResolveCourseName(context.Background(), "anything")
	assert.ErrorIs(t, err, corpus.ErrNoMatchingCourse)
}

func TestOutline(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	store := newStore(index, &stubEmbedder{}, 5)

	course, err := store.Outline(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", course.Title)
	assert.Len(t, course.Lessons, 2)
}

func TestSourceLink(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	store := newStore(index, &stubEmbedder{}, 5)

	ctx := context.Background()
	assert.Equal(t, "https://example.com/Intro to Go/0",
		store.SourceLink(ctx, "Intro to Go", intPtr(0)),
		"lesson link wins when present")
	assert.Equal(t, "https://example.com/Intro to Go",
		store.SourceLink(ctx, "Intro to Go", intPtr(1)),
		"falls back to course link when the lesson has none")
	assert.Equal(t, "https://example.com/Intro to Go",
		store.SourceLink(ctx, "Intro to Go", nil))
	assert.Equal(t, "", store.SourceLink(ctx, "Unknown", nil))
}

const syncDocument = `Course Title: Sync Test Course
Course Link: https://example.com/sync
Course Instructor: Sam Doe

Lesson 0: Getting Started
Lesson Link: https://example.com/sync/0
This lesson explains the basics. Every concept builds on the previous one.

Lesson 1: Going Further
More advanced material lives here. It assumes the basics are understood.
`

func TestSyncDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course1.txt"), []byte(syncDocument), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.txt"), []byte("no header here"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	index := memory.NewIndex()
	store := newStore(index, &stubEmbedder{}, 5)

	report, err := store.SyncDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.Skipped)
	assert.Greater(t, report.Chunks, 0)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed["broken.txt"], parser.ErrMalformedDocument)

	// Second run skips the already indexed course.
	report, err = store.SyncDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Skipped)
}

func TestSyncDirectoryForceReingests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course1.txt"), []byte(syncDocument), 0o644))

	index := memory.NewIndex()
	store := newStore(index, &stubEmbedder{}, 5)

	_, err := store.SyncDirectory(context.Background(), dir, false)
	require.NoError(t, err)

	report, err := store.SyncDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	n, err := index.CountCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "force re-ingest must not duplicate the course")
}

func TestSyncDirectoryMissing(t *testing.T) {
	store := newStore(memory.NewIndex(), &stubEmbedder{}, 5)

	_, err := store.SyncDirectory(context.Background(), "/does/not/exist", false)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	seedCourse(t, index, "Advanced Rust")
	store := newStore(index, &stubEmbedder{}, 5)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Courses)
	assert.Equal(t, 4, stats.Chunks)
	assert.Equal(t, []string{"Advanced Rust", "Intro to Go"}, stats.Titles)
}

func TestAddCourse(t *testing.T) {
	index := memory.NewIndex()
	store := newStore(index, &stubEmbedder{}, 5)

	title, chunks, err := store.AddCourse(context.Background(), syncDocument)
	require.NoError(t, err)
	assert.Equal(t, "Sync Test Course", title)
	assert.Greater(t, chunks, 0)

	exists, err := index.HasCourse(context.Background(), "Sync Test Course")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddCourseMalformed(t *testing.T) {
	store := newStore(memory.NewIndex(), &stubEmbedder{}, 5)

	_, _, err := store.AddCourse(context.Background(), "garbage")
	assert.True(t, errors.Is(err, parser.ErrMalformedDocument))
}

func TestStoreRecordsMetrics(t *testing.T) {
	index := memory.NewIndex()
	seedCourse(t, index, "Intro to Go")
	collector := metrics.NewCollector()
	store := corpus.NewStore(index, &stubEmbedder{}, corpus.Options{
		MaxResults: 5,
		Chunking:   parser.DefaultChunkConfig(),
		Metrics:    collector,
	}, nil)

	_, err := store.Search(context.Background(), "anything", "", nil)
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.NotNil(t, snap.Embedding)
	assert.EqualValues(t, 1, snap.Embedding.Count)
	require.NotNil(t, snap.CorpusSearch)
	assert.EqualValues(t, 1, snap.CorpusSearch.Count)

	_, _, err = store.AddCourse(context.Background(), syncDocument)
	require.NoError(t, err)

	snap = collector.Snapshot()
	assert.EqualValues(t, 2, snap.Embedding.Count, "batch embedding during ingestion is timed too")
	assert.EqualValues(t, 1, snap.CorpusSearch.Count)
}
