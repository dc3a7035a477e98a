package console

import (
	"bytes"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestNotifier() (*Notifier, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	n := NewNotifier(buf, true)
	n.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return n, buf
}

func TestNotifier_TimestampPrefix(t *testing.T) {
	n, buf := newTestNotifier()

	n.Info("hello %d", 1)
	n.Success("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"2024-05-01 12:00:00 hello 1", "2024-05-01 12:00:00 done"}, lines)
}

func TestNotifier_MatchGroup(t *testing.T) {
	n, buf := newTestNotifier()

	g := entities.NewMatchGroup(2048, "/a/x")
	g.Add("/b/x")
	g.Add("/c/x")
	n.MatchGroup(0, 2, g)

	out := buf.String()
	assert.Contains(t, out, "group 1/2 (3 files @ 2.0 KiB each, 4.0 KiB reclaimable)")
	assert.Contains(t, out, "    /b/x\n")
}

func TestNotifier_SearchFinished(t *testing.T) {
	results := entities.NewMatchCollection()
	g := entities.NewMatchGroup(10, "/a")
	g.Add("/b")
	results.Add(g)

	tests := []struct {
		name      string
		results   *entities.MatchCollection
		cancelled bool
		want      string
	}{
		{"none", entities.NewMatchCollection(), false, "no duplicates found"},
		{"found", results, false, "found 1 groups, 2 files, 10 B reclaimable"},
		{"cancelled", results, true, "search cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, buf := newTestNotifier()
			n.SearchFinished(tt.results, 0, tt.cancelled, time.Second)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNotifier_DeletionPlanAndResult(t *testing.T) {
	n, buf := newTestNotifier()

	n.DeletionPlan([]entities.DeletionPlanEntry{
		{FileSize: 1024, Survivor: "/keep", Removals: []string{"/r1", "/r2"}},
	})
	assert.Contains(t, buf.String(), "keep   /keep")
	assert.Contains(t, buf.String(), "remove /r1 (1.0 KiB)")
	assert.Contains(t, buf.String(), "dry run: 2 files, 2.0 KiB would be removed")

	buf.Reset()
	result := entities.NewDeletionResult()
	result.DuplicatesSize = 2048
	result.RecordDeleted("/r1", 1024)
	result.RecordFailed("/r2", errors.New("denied"))
	n.DeletionFinished(result)
	assert.Contains(t, buf.String(), "removed 1 files, 1 failed, freed 1.0 KiB of 2.0 KiB")
}

func TestNotifier_ErrorListLimit(t *testing.T) {
	n, buf := newTestNotifier()

	n.ErrorList([]error{errors.New("e1"), errors.New("e2"), errors.New("e3")}, 2)
	out := buf.String()
	assert.Contains(t, out, "3 files could not be read or compared")
	assert.Contains(t, out, "e2")
	assert.NotContains(t, out, "e3")
	assert.Contains(t, out, "... and 1 more")
}

func TestNotifier_FoldersCleaned(t *testing.T) {
	n, buf := newTestNotifier()

	result := entities.NewFolderCleanResult("/data")
	result.RecordDeleted("/data/old")
	n.RemovingFolder("/data/old", nil)
	n.FoldersCleaned(result)
	assert.Contains(t, buf.String(), "removed empty folder [/data/old]")
	assert.Contains(t, buf.String(), "removed 1 empty folders under /data")

	buf.Reset()
	result.RecordFailed("/data/busy", errors.New("busy"))
	n.RemovingFolder("/data/busy", errors.New("busy"))
	n.FoldersCleaned(result)
	assert.Contains(t, buf.String(), "failed to remove folder /data/busy: busy")
	assert.Contains(t, buf.String(), "1 failed")
}
