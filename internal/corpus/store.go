package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/raphaelgruber/coursechat-go/internal/db"
	"github.com/raphaelgruber/coursechat-go/internal/embedding"
	"github.com/raphaelgruber/coursechat-go/internal/metrics"
	"github.com/raphaelgruber/coursechat-go/internal/models"
	"github.com/raphaelgruber/coursechat-go/internal/parser"
)

// ErrNoMatchingCourse is returned when fuzzy resolution finds no course
// for the requested name.
var ErrNoMatchingCourse = errors.New("no matching course")

// Options configures a Store.
type Options struct {
	// MaxResults is the similarity search result cap. Zero disables
	// retrieval entirely: Search returns an empty result without calling
	// the embedder or the index.
	MaxResults int

	// Chunking controls sentence chunking during ingestion.
	Chunking parser.ChunkConfig

	// OnProgress, if set, is called after each file during SyncDirectory.
	OnProgress func(done, total int, file string)

	// Metrics receives embedding and search timings. Share one collector
	// across services to get a single process-wide snapshot.
	Metrics *metrics.Collector
}

// Store ties the embedder and the index together behind the corpus
// operations the tools and CLI need.
type Store struct {
	index    Index
	embedder embedding.Embedder
	opts     Options
	logger   *slog.Logger
}

// NewStore creates a corpus store. A zero MaxResults is accepted but makes
// every search come back empty, so it is logged loudly at construction.
func NewStore(index Index, embedder embedding.Embedder, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxResults == 0 {
		logger.Warn("corpus store created with MaxResults=0: every search will return no results")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	return &Store{index: index, embedder: embedder, opts: opts, logger: logger}
}

// Search embeds the query and returns the nearest chunks, optionally
// restricted to one course (fuzzy-matched by name) and/or one lesson.
//
// MaxResults == 0 short-circuits to an empty result before any embedder or
// index call, so a misconfigured deployment degrades to "nothing found"
// instead of erroring on every query.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) (models.SearchResult, error) {
	if s.opts.MaxResults == 0 {
		s.logger.Debug("search short-circuited", "reason", "max_results=0")
		return models.SearchResult{}, nil
	}

	resolvedCourse := ""
	if courseName != "" {
		title, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return models.SearchResult{}, err
		}
		resolvedCourse = title
	}

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, query)
	s.opts.Metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("embed query: %w: %w", ErrBackendUnavailable, err)
	}

	start = time.Now()
	hits, err := s.index.SearchChunks(ctx, vec, s.opts.MaxResults, resolvedCourse, lessonNumber)
	s.opts.Metrics.RecordTiming(metrics.OpCorpusSearch, time.Since(start))
	if err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return models.SearchResult{}, fmt.Errorf("search index: %w: %w", ErrBackendUnavailable, err)
		}
		return models.SearchResult{}, fmt.Errorf("search index: %w", err)
	}

	s.logger.Debug("search complete",
		"query_len", len(query), "course", resolvedCourse, "hits", len(hits))
	return models.SearchResult{Hits: hits}, nil
}

// ResolveCourseName maps a partial or misspelled course name to an indexed
// title. Case-insensitive substring matches win; otherwise the title with
// the lowest Levenshtein distance is chosen. Ties break lexicographically.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	titles, err := s.index.CourseTitles(ctx)
	if err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return "", fmt.Errorf("list courses: %w: %w", ErrBackendUnavailable, err)
		}
		return "", fmt.Errorf("list courses: %w", err)
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("resolve %q: %w", name, ErrNoMatchingCourse)
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", fmt.Errorf("resolve empty name: %w", ErrNoMatchingCourse)
	}

	// Titles arrive sorted, so the first substring match is the
	// lexicographically smallest one.
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), needle) {
			return title, nil
		}
	}

	best := titles[0]
	bestDist := levenshtein.ComputeDistance(needle, strings.ToLower(best))
	for _, title := range titles[1:] {
		if d := levenshtein.ComputeDistance(needle, strings.ToLower(title)); d < bestDist {
			best, bestDist = title, d
		}
	}

	// Reject matches worse than replacing the entire query, which would
	// mean the name shares nothing with any title.
	if bestDist >= len(needle) && bestDist >= len(best) {
		return "", fmt.Errorf("resolve %q: %w", name, ErrNoMatchingCourse)
	}

	s.logger.Debug("course name resolved", "input", name, "title", best, "distance", bestDist)
	return best, nil
}

// Outline returns the full metadata of the course fuzzy-matched by name.
func (s *Store) Outline(ctx context.Context, name string) (*models.Course, error) {
	title, err := s.ResolveCourseName(ctx, name)
	if err != nil {
		return nil, err
	}
	course, err := s.index.GetCourse(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// SourceLink returns the best link for a hit: the lesson link when the hit
// is lesson-scoped and the lesson carries one, the course link otherwise.
// Lookup failures degrade to an empty link rather than failing the search.
func (s *Store) SourceLink(ctx context.Context, courseTitle string, lessonNumber *int) string {
	course, err := s.index.GetCourse(ctx, courseTitle)
	if err != nil {
		s.logger.Debug("source link lookup failed", "course", courseTitle, "error", err)
		return ""
	}
	if lessonNumber != nil {
		if link := course.LessonLink(*lessonNumber); link != "" {
			return link
		}
	}
	return course.Link
}

// AddCourse parses, chunks, embeds and indexes one course document.
// Returns the course title and the number of chunks indexed.
func (s *Store) AddCourse(ctx context.Context, text string) (string, int, error) {
	course, chunks, err := parser.ChunkDocument(text, s.opts.Chunking)
	if err != nil {
		return "", 0, err
	}

	contents := make([]string, len(chunks))
	for i, ch := range chunks {
		contents[i] = ch.Content
	}

	start := time.Now()
	embeddings, err := s.embedder.EmbedBatch(ctx, contents)
	s.opts.Metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))
	if err != nil {
		return "", 0, fmt.Errorf("embed course %q: %w", course.Title, err)
	}

	if err := s.index.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
		return "", 0, err
	}
	return course.Title, len(chunks), nil
}

// DeleteCourse removes a course and its chunks by exact title.
func (s *Store) DeleteCourse(ctx context.Context, title string) error {
	if err := s.index.DeleteCourse(ctx, title); err != nil {
		return fmt.Errorf("delete course %q: %w", title, err)
	}
	s.logger.Info("course deleted", "title", title)
	return nil
}

// SyncReport summarizes one SyncDirectory run.
type SyncReport struct {
	Added   int
	Skipped int
	Chunks  int
	Failed  map[string]error
}

// SyncDirectory ingests every .txt document in dir, in filename order.
// Courses whose title is already indexed are skipped unless force is set.
// Per-file failures are collected rather than aborting the run.
func (s *Store) SyncDirectory(ctx context.Context, dir string, force bool) (SyncReport, error) {
	report := SyncReport{Failed: map[string]error{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for i, name := range files {
		if s.opts.OnProgress != nil {
			s.opts.OnProgress(i, len(files), name)
		}
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			report.Failed[name] = err
			continue
		}

		course, spans, err := parser.ParseDocument(string(raw))
		if err != nil {
			report.Failed[name] = err
			s.logger.Warn("skipping malformed document", "file", name, "error", err)
			continue
		}

		if !force {
			exists, err := s.index.HasCourse(ctx, course.Title)
			if err != nil {
				report.Failed[name] = err
				continue
			}
			if exists {
				report.Skipped++
				s.logger.Debug("course already indexed", "file", name, "title", course.Title)
				continue
			}
		}

		chunks := parser.ChunkCourse(course, spans, s.opts.Chunking)
		contents := make([]string, len(chunks))
		for i, ch := range chunks {
			contents[i] = ch.Content
		}

		embedStart := time.Now()
		embeddings, err := s.embedder.EmbedBatch(ctx, contents)
		s.opts.Metrics.RecordTiming(metrics.OpEmbedding, time.Since(embedStart))
		if err != nil {
			report.Failed[name] = fmt.Errorf("embed: %w", err)
			continue
		}

		if err := s.index.UpsertCourse(ctx, course, chunks, embeddings); err != nil {
			report.Failed[name] = err
			continue
		}

		report.Added++
		report.Chunks += len(chunks)
		s.logger.Info("course ingested", "file", name, "title", course.Title, "chunks", len(chunks))
	}

	if s.opts.OnProgress != nil {
		s.opts.OnProgress(len(files), len(files), "")
	}
	return report, nil
}

// Stats describes the current corpus contents.
type Stats struct {
	Courses int      `json:"total_courses"`
	Chunks  int      `json:"total_chunks"`
	Titles  []string `json:"course_titles"`
}

// Stats returns corpus-wide counts and the full title list.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	courses, err := s.index.CountCourses(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count courses: %w", err)
	}
	chunks, err := s.index.CountChunks(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	titles, err := s.index.CourseTitles(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list courses: %w", err)
	}
	return Stats{Courses: courses, Chunks: chunks, Titles: titles}, nil
}
