package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/parser"
	"github.com/raphaelgruber/coursechat-go/internal/service"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest course documents into the corpus",
	Long: `Parse, chunk, embed and index every .txt course document in the
directory. Courses that are already indexed are skipped unless --force
is given, so re-running after adding a file only processes the new one.

The directory defaults to the configured docs_dir.

Examples:
  coursechat ingest ./docs
  coursechat ingest --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "re-ingest courses that are already indexed")
}

// syncTracker receives per-file progress callbacks from the corpus store
// and is polled by the progress UI.
type syncTracker struct {
	mu    sync.Mutex
	done  int
	total int
	file  string
}

func (t *syncTracker) update(done, total int, file string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done, t.total, t.file = done, total, file
}

func (t *syncTracker) snapshot() (done, total int, file string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done, t.total, t.file
}

var ingestTracker = &syncTracker{}

// corpusOptions maps config to corpus store options. The progress callback
// is a no-op outside the ingest command.
func corpusOptions() corpus.Options {
	return corpus.Options{
		MaxResults: cfg.MaxResults,
		Chunking: parser.ChunkConfig{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
		},
		OnProgress: ingestTracker.update,
		Metrics:    collector,
	}
}

type syncOutcome struct {
	report corpus.SyncReport
	err    error
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := cfg.DocsDir
	if len(args) > 0 {
		dir = args[0]
	}

	ingestor := service.NewIngestor(store, collector, logger)

	resultCh := make(chan syncOutcome, 1)
	go func() {
		report, err := ingestor.SyncDirectory(context.Background(), dir, ingestForce)
		resultCh <- syncOutcome{report: report, err: err}
	}()

	report, err := runIngestProgress(ingestTracker, resultCh)
	if err != nil {
		return err
	}

	printSyncReport(report)
	return nil
}

func printSyncReport(report corpus.SyncReport) {
	fmt.Printf("  Courses added:   %d\n", report.Added)
	fmt.Printf("  Courses skipped: %d\n", report.Skipped)
	fmt.Printf("  Chunks indexed:  %d\n", report.Chunks)
	if len(report.Failed) > 0 {
		fmt.Printf("\nFailures (%d):\n", len(report.Failed))
		names := make([]string, 0, len(report.Failed))
		for name := range report.Failed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  • %s: %v\n", name, report.Failed[name])
		}
	}
}
