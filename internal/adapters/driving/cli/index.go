package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

var (
	indexClear      bool
	indexForce      bool
	indexSimilarity bool
	indexStatsJSON  bool
	watchDebounce   time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
	Long: `Build and inspect the vector index over published course content.

Use subcommands to rebuild the index, show its statistics or watch the
platform database for changes.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index",
	Long: `Runs one ingestion pass: chunks published content units, embeds the
chunks and writes them to the index. Units already indexed are skipped
unless --force or --clear is given. Units that fail to embed are
reported and skipped; the run continues.`,
	RunE: runIndexRebuild,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

var indexWatchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch the platform database and reindex on change",
	Long: `Watches the platform database file and triggers an incremental
rebuild whenever it changes. Rapid successive writes are coalesced into
one rebuild. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndexWatch,
}

func init() {
	indexRebuildCmd.Flags().BoolVar(&indexClear, "clear", false, "remove all existing entries first")
	indexRebuildCmd.Flags().BoolVar(&indexForce, "force", false, "re-ingest units that are already indexed")
	indexRebuildCmd.Flags().BoolVar(&indexSimilarity, "similarity", false, "also embed whole units for recommendations")
	indexStatsCmd.Flags().BoolVar(&indexStatsJSON, "json", false, "output statistics as JSON")
	indexWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before a rebuild triggers")

	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexWatchCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	cmd.Println("Rebuilding index...")
	summary, err := ingestService.Rebuild(context.Background(), driving.IngestOptions{
		Clear:             indexClear,
		Force:             indexForce,
		ComputeSimilarity: indexSimilarity,
	})
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary *driving.IngestSummary) {
	cmd.Printf("Indexed %d units (%d chunks) in %s\n",
		summary.UnitsProcessed, summary.ChunksIndexed, summary.Duration.Round(time.Millisecond))
	if summary.UnitsSkipped > 0 {
		cmd.Printf("Skipped %d units already indexed.\n", summary.UnitsSkipped)
	}
	if len(summary.FailedUnitIDs) > 0 {
		cmd.Printf("Failed units (%d):\n", len(summary.FailedUnitIDs))
		for _, id := range summary.FailedUnitIDs {
			cmd.Printf("  - %s\n", id)
		}
	}
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats, err := ingestService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if indexStatsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index statistics")
	cmd.Printf("  Chunk entries: %d\n", stats.EntryCount)
	cmd.Printf("  Unit entries:  %d\n", stats.UnitEntryCount)
	cmd.Printf("  Dimensions:    %d\n", stats.Dimensions)
	if stats.LastBuildTime.IsZero() {
		cmd.Println("  Last build:    never")
	} else {
		cmd.Printf("  Last build:    %s\n", stats.LastBuildTime.Format(time.RFC3339))
	}
	return nil
}

func runIndexWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := contentDBPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no database path configured; pass one as an argument")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (debounce %s). Press Ctrl+C to stop.\n", path, watchDebounce)
	return watchAndReindex(ctx, cmd, path, watchDebounce)
}

// watchAndReindex runs the fsnotify loop. SQLite writes arrive as bursts
// of events on the database and its -wal sibling, so rebuilds fire only
// after the debounce window has been quiet.
func watchAndReindex(ctx context.Context, cmd *cobra.Command, path string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // Best-effort cleanup

	// Watch the directory: SQLite replaces the -wal file, and watching
	// the file itself loses the watch on rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	base := filepath.Base(path)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if name != base && name != base+"-wal" {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("change detected: %s", event.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error: %v", err)

		case <-timerC:
			timer = nil
			timerC = nil

			summary, err := ingestService.Rebuild(ctx, driving.IngestOptions{})
			if err != nil {
				if errors.Is(err, domain.ErrIngestInProgress) {
					// Another rebuild is still running; the next change
					// will try again.
					continue
				}
				cmd.Printf("rebuild failed: %v\n", err)
				continue
			}
			printSummary(cmd, summary)
		}
	}
}
