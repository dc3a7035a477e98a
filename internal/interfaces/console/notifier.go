// Package console prints the progress and results of command line runs.
package console

import (
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Notifier writes timestamped, coloured lines to w
type Notifier struct {
	w   io.Writer
	now func() time.Time

	bold   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	faint  *color.Color
}

// NewNotifier creates a notifier. With noColor set every line is plain text.
func NewNotifier(w io.Writer, noColor bool) *Notifier {
	n := &Notifier{
		w:      w,
		now:    time.Now,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{n.bold, n.green, n.yellow, n.red, n.faint} {
			c.DisableColor()
		}
	}
	return n
}

func (n *Notifier) stamp() string {
	return n.now().Format("2006-01-02 15:04:05")
}

func (n *Notifier) line(c *color.Color, format string, args ...interface{}) {
	c.Fprintf(n.w, "%s %s\n", n.stamp(), fmt.Sprintf(format, args...))
}

// Heading prints a bold line
func (n *Notifier) Heading(format string, args ...interface{}) {
	n.line(n.bold, format, args...)
}

// Info prints a plain line
func (n *Notifier) Info(format string, args ...interface{}) {
	fmt.Fprintf(n.w, "%s %s\n", n.stamp(), fmt.Sprintf(format, args...))
}

// Success prints a green line
func (n *Notifier) Success(format string, args ...interface{}) {
	n.line(n.green, format, args...)
}

// Warning prints a yellow line
func (n *Notifier) Warning(format string, args ...interface{}) {
	n.line(n.yellow, format, args...)
}

// Failure prints a red line
func (n *Notifier) Failure(format string, args ...interface{}) {
	n.line(n.red, format, args...)
}

// ScanningDirectory announces the start of a search
func (n *Notifier) ScanningDirectory(settings entities.MatchSettings) {
	mode := "contents"
	if !settings.MatchContents {
		mode = "size only"
	}
	n.Heading("scanning directory: %s (recursive: %v, match: %s, chunk: %s)",
		settings.Root, settings.Recursive, mode, humanize.IBytes(uint64(settings.ChunkSize)))
}

// Progress prints one progress line
func (n *Notifier) Progress(snap entities.ProgressSnapshot) {
	n.line(n.faint, "  %5.1f%% (%d/%d) %s", snap.Percentage(), snap.Current, snap.Max, snap.Message)
}

// MatchGroup prints one group, survivor last when the group is ordered
func (n *Notifier) MatchGroup(index, total int, group *entities.MatchGroup) {
	n.line(n.bold, "group %d/%d (%d files @ %s each, %s reclaimable)",
		index+1, total, group.Count(),
		humanize.IBytes(uint64(group.FileSize)),
		humanize.IBytes(uint64(group.DuplicatesSize())))
	for _, member := range group.Members {
		fmt.Fprintf(n.w, "    %s\n", member)
	}
}

// ErrorList prints non-fatal errors, at most limit of them
func (n *Notifier) ErrorList(errs []error, limit int) {
	if len(errs) == 0 {
		return
	}
	n.Warning("%d files could not be read or compared", len(errs))
	for i, err := range errs {
		if limit > 0 && i >= limit {
			fmt.Fprintf(n.w, "    ... and %d more\n", len(errs)-limit)
			break
		}
		fmt.Fprintf(n.w, "    %v\n", err)
	}
}

// SearchFinished prints the totals of a search
func (n *Notifier) SearchFinished(results *entities.MatchCollection, errCount int, cancelled bool, elapsed time.Duration) {
	if cancelled {
		n.Warning("search cancelled after %v, partial results: %d groups, %d files, %s reclaimable",
			elapsed.Round(time.Millisecond), results.Len(), results.FileCount(),
			humanize.IBytes(uint64(results.DuplicatesSize())))
		return
	}
	if results.Len() == 0 {
		n.Success("no duplicates found in %v", elapsed.Round(time.Millisecond))
		return
	}
	n.Success("found %d groups, %d files, %s reclaimable in %v (%d errors)",
		results.Len(), results.FileCount(),
		humanize.IBytes(uint64(results.DuplicatesSize())),
		elapsed.Round(time.Millisecond), errCount)
}

// DeletionPlan prints what a deletion would do without touching the disk
func (n *Notifier) DeletionPlan(plan []entities.DeletionPlanEntry) {
	var files int
	var size int64
	for _, entry := range plan {
		n.Info("keep   %s", entry.Survivor)
		for _, path := range entry.Removals {
			n.line(n.yellow, "remove %s (%s)", path, humanize.IBytes(uint64(entry.FileSize)))
		}
		files += len(entry.Removals)
		size += entry.FileSize * int64(len(entry.Removals))
	}
	n.Heading("dry run: %d files, %s would be removed", files, humanize.IBytes(uint64(size)))
}

// RemovingFile reports the outcome of one removal
func (n *Notifier) RemovingFile(path string, err error) {
	if err != nil {
		n.Failure("  failed to remove %s: %v", path, err)
		return
	}
	n.Success("  removed duplicate file [%s]", path)
}

// DeletionFinished prints the totals of a deletion
func (n *Notifier) DeletionFinished(result *entities.DeletionResult) {
	if result.HasFailures() {
		n.Warning("removed %d files, %d failed, freed %s of %s",
			len(result.DeletedPaths), len(result.FailedPaths),
			humanize.IBytes(uint64(result.BytesFreed)),
			humanize.IBytes(uint64(result.DuplicatesSize)))
		return
	}
	n.Success("removed %d files, freed %s",
		len(result.DeletedPaths), humanize.IBytes(uint64(result.BytesFreed)))
}

// RemovingFolder reports one empty-folder removal
func (n *Notifier) RemovingFolder(path string, err error) {
	if err != nil {
		n.Failure("  failed to remove folder %s: %v", path, err)
		return
	}
	n.Success("  removed empty folder [%s]", path)
}

// FoldersCleaned prints the totals of an empty-folder cleanup
func (n *Notifier) FoldersCleaned(result *entities.FolderCleanResult) {
	if len(result.FailedFolders) > 0 {
		n.Warning("removed %d empty folders under %s, %d failed",
			len(result.DeletedFolders), result.Root, len(result.FailedFolders))
		return
	}
	n.Success("removed %d empty folders under %s", len(result.DeletedFolders), result.Root)
}

// ScanFinished prints scan statistics
func (n *Notifier) ScanFinished(stats *entities.ScanStatistics, top []*entities.ExtensionStats) {
	n.Success("%d files, %s total, average %s",
		stats.TotalFiles, humanize.IBytes(uint64(stats.TotalSize)),
		humanize.IBytes(uint64(stats.GetAverageFileSize())))
	if stats.SizeCollisions > 0 {
		n.Info("%s files share their size with another file", humanize.Comma(int64(stats.SizeCollisions)))
	}
	for _, ext := range top {
		fmt.Fprintf(n.w, "    %-10s %8s files %10s\n", ext.Extension,
			humanize.Comma(int64(ext.Count)), humanize.IBytes(uint64(ext.TotalSize)))
	}
	if stats.ErrorCount > 0 {
		n.Warning("%d entries could not be read", stats.ErrorCount)
	}
}

// ComparisonFinished prints a folder comparison
func (n *Notifier) ComparisonFinished(result *entities.ComparisonResult) {
	n.Heading("%s vs %s", result.SourceRoot, result.TargetRoot)
	for _, f := range result.DuplicateFiles {
		fmt.Fprintf(n.w, "    %s (%s)\n", f.Path, humanize.IBytes(uint64(f.Size)))
	}
	if !result.HasDuplicates() {
		n.Success("no target file exists in the source")
		return
	}
	n.Success("%d of %d target files (%.1f%%, %s) already exist in the source",
		result.DuplicateCount, result.TargetFileCount, result.DuplicationPercentage,
		humanize.IBytes(uint64(result.DuplicateSize)))
	if result.CanDeleteTarget {
		n.Warning("every target file is duplicated: the target can be deleted")
	}
}
