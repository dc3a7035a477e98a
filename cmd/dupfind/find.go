package main

import (
	"context"
	"encoding/json"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/infrastructure/config"
	infraServices "go-local-duplicates/internal/infrastructure/services"
	"go-local-duplicates/internal/interfaces/console"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/interfaces/tui"
	"go-local-duplicates/internal/usecases"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [root]",
	Short: "Find groups of identical files",
	Long: `Find groups of byte-identical files under root (default: the working directory).

Press Ctrl+C to stop early; the groups found so far are still printed.

Examples:
  dupfind find ~/Pictures --include jpg,png --min-size 10kb
  dupfind find . --order lexicographic --delete --dry-run
  dupfind find ~/Downloads --delete --cleanup-folders
  dupfind find /data --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

func init() {
	addMatchFlags(findCmd)
	findCmd.Flags().Bool("contents", true, "compare contents; false matches on size alone")
	findCmd.Flags().String("chunk-size", "", "read size of a content comparison (default 4MiB)")
	findCmd.Flags().Int("workers", 1, "size buckets compared in parallel")
	findCmd.Flags().String("order", "none", "member order: none, lexicographic or reverse; the last member survives deletion")
	findCmd.Flags().Bool("delete", false, "remove all but one member of each group")
	findCmd.Flags().Bool("trash", true, "with --delete, move files to the trash instead of deleting them")
	findCmd.Flags().Bool("dry-run", false, "with --delete, only print what would be removed")
	findCmd.Flags().Bool("cleanup-folders", false, "with --delete, also remove folders left empty under root")
	findCmd.Flags().Bool("watch", false, "show a live progress view")
	findCmd.Flags().Bool("json", false, "print the groups as JSON")
}

// findOutput is the --json document
type findOutput struct {
	OperationID    string                      `json:"operationId"`
	Root           string                      `json:"root"`
	Cancelled      bool                        `json:"cancelled"`
	Groups         []*presenters.MatchGroupDTO `json:"groups"`
	DuplicatesSize int64                       `json:"duplicatesSize"`
	Errors         []string                    `json:"errors,omitempty"`
	Deleted        []string                    `json:"deleted,omitempty"`
	Failed         []string                    `json:"failed,omitempty"`
	RemovedFolders []string                    `json:"removedFolders,omitempty"`
}

// searchResult is what one Run produced
type searchResult struct {
	results *entities.MatchCollection
	errs    []error
	err     error
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root, err := rootArg(args)
	if err != nil {
		return err
	}
	settings, err := cfg.MatchSettings(root)
	if err != nil {
		return err
	}
	if err := applyMatchFlags(cmd, &settings); err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	watch, _ := cmd.Flags().GetBool("watch")
	notifier := newNotifier(cmd, cfg)

	op := usecases.NewOperation(settings,
		infraServices.NewLocalScanner(false),
		infraServices.NewSizeSorter(),
		infraServices.NewBucketGrouper(infraServices.NewChunkComparator()))
	defer op.Dispose()
	settings = op.Settings()

	ctx, stop := signalContext(cmd)
	defer stop()

	if !asJSON && !watch {
		notifier.ScanningDirectory(settings)
		op.OnProgress(throttled(notifier, time.Second))
	}

	started := time.Now()
	var res searchResult
	if watch {
		res, err = runWatched(ctx, op)
		if err != nil {
			return err
		}
	} else {
		res.results, res.errs, res.err = op.Run(ctx)
	}
	if res.err != nil {
		return res.err
	}

	cancelled := op.ProgressRecord().Status == entities.StatusCancelled
	res.results.SortMatches(settings.Ordering)
	groups := res.results.Groups()

	out := findOutput{
		OperationID:    op.ID(),
		Root:           settings.Root,
		Cancelled:      cancelled,
		Groups:         presenters.ToMatchGroupDTOList(groups),
		DuplicatesSize: res.results.DuplicatesSize(),
		Errors:         entities.ErrorStrings(res.errs),
	}

	if !asJSON {
		for i, g := range groups {
			notifier.MatchGroup(i, len(groups), g)
		}
		notifier.ErrorList(res.errs, 20)
		notifier.SearchFinished(res.results, len(res.errs), cancelled, time.Since(started))
	}

	if del, _ := cmd.Flags().GetBool("delete"); del && !cancelled && len(groups) > 0 {
		result, err := deleteGroups(cmd, cfg, notifier, groups, settings.Ordering, asJSON)
		if err != nil {
			return err
		}
		if result != nil {
			out.Deleted, out.Failed = result.DeletedPaths, result.FailedPaths
		}

		if clean, _ := cmd.Flags().GetBool("cleanup-folders"); clean && result != nil {
			folders, err := cleanupFolders(cmd, notifier, settings, asJSON)
			if err != nil {
				return err
			}
			out.RemovedFolders = folders.DeletedFolders
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return nil
}

// runWatched runs the operation behind the live view
func runWatched(ctx context.Context, op *usecases.Operation) (searchResult, error) {
	done := make(chan searchResult, 1)
	go func() {
		var r searchResult
		r.results, r.errs, r.err = op.Run(ctx)
		done <- r
	}()

	if _, err := tui.Run(tui.New(op.Settings().Root, op.Snapshots(), op.Results(), op.RequestCancel)); err != nil {
		op.RequestCancel()
		<-done
		return searchResult{}, fmt.Errorf("live view failed: %w", err)
	}
	return <-done, nil
}

// throttled prints at most one progress line per interval
func throttled(n *console.Notifier, interval time.Duration) func(entities.ProgressSnapshot) {
	var mu sync.Mutex
	var last time.Time
	return func(snap entities.ProgressSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(last) < interval && !snap.Complete {
			return
		}
		last = time.Now()
		n.Progress(snap)
	}
}

// deleteGroups returns nil on a dry run
func deleteGroups(cmd *cobra.Command, cfg *config.Config, notifier *console.Notifier, groups []*entities.MatchGroup, order entities.MatchOrdering, quiet bool) (*entities.DeletionResult, error) {
	trash := cfg.Deletion.MoveToTrash
	if cmd.Flags().Changed("trash") {
		trash, _ = cmd.Flags().GetBool("trash")
	}
	deleter := infraServices.NewFileDeleter()
	planner := usecases.NewDeletionPlanner(deleter, deleter)

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		if !quiet {
			notifier.DeletionPlan(planner.Plan(groups, order))
		}
		return nil, nil
	}

	var onPath func(string, error)
	if !quiet {
		onPath = notifier.RemovingFile
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	result := planner.Execute(ctx, groups, order, trash, onPath)
	if !quiet {
		notifier.DeletionFinished(result)
	}
	return result, nil
}

// cleanupFolders removes the folders under root left empty by a deletion.
// Only subfolders are visited when the search was not recursive.
func cleanupFolders(cmd *cobra.Command, notifier *console.Notifier, settings entities.MatchSettings, quiet bool) (*entities.FolderCleanResult, error) {
	var onFolder func(string, error)
	if !quiet {
		onFolder = notifier.RemovingFolder
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	result, err := infraServices.NewEmptyFolderCleaner().CleanEmptyFolders(ctx, settings.Root, settings.Recursive, onFolder)
	if err != nil {
		return nil, err
	}
	if !quiet {
		notifier.FoldersCleaned(result)
	}
	return result, nil
}
