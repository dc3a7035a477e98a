package usecases

import (
	"context"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroups() []*entities.MatchGroup {
	a := entities.NewMatchGroup(10, "/d/b")
	a.Add("/d/a")
	a.Add("/d/c")
	b := entities.NewMatchGroup(20, "/e/y")
	b.Add("/e/x")
	single := entities.NewMatchGroup(30, "/f/only")
	return []*entities.MatchGroup{a, b, single}
}

func TestDeletionPlanner_Plan(t *testing.T) {
	tests := []struct {
		name      string
		order     entities.MatchOrdering
		survivors []string
	}{
		{"none keeps discovery order", entities.OrderNone, []string{"/d/c", "/e/x"}},
		{"lexicographic keeps the largest", entities.OrderLexicographic, []string{"/d/c", "/e/y"}},
		{"reverse keeps the smallest", entities.OrderReverseLexicographic, []string{"/d/a", "/e/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := testGroups()
			planner := NewDeletionPlanner(&recordingDeleter{}, &recordingDeleter{})

			plan := planner.Plan(groups, tt.order)
			require.Len(t, plan, 2)

			survivors := []string{plan[0].Survivor, plan[1].Survivor}
			assert.Equal(t, tt.survivors, survivors)
			assert.Len(t, plan[0].Removals, 2)
			assert.Len(t, plan[1].Removals, 1)
			assert.NotContains(t, plan[0].Removals, plan[0].Survivor)

			// Planning never mutates the groups
			assert.Equal(t, []string{"/d/b", "/d/a", "/d/c"}, groups[0].Members)
		})
	}
}

func TestDeletionPlanner_ExecuteTrash(t *testing.T) {
	groups := testGroups()
	deleter := &recordingDeleter{}
	planner := NewDeletionPlanner(deleter, deleter)

	var seen []string
	result := planner.Execute(context.Background(), groups, entities.OrderLexicographic, true, func(path string, err error) {
		seen = append(seen, path)
	})

	assert.ElementsMatch(t, []string{"/d/a", "/d/b", "/e/x"}, result.DeletedPaths)
	assert.Empty(t, result.FailedPaths)
	assert.Equal(t, int64(2*10+20), result.DuplicatesSize)
	assert.Equal(t, int64(2*10+20), result.BytesFreed)
	assert.ElementsMatch(t, result.DeletedPaths, deleter.trashed)
	assert.Empty(t, deleter.removed)
	assert.ElementsMatch(t, result.DeletedPaths, seen)

	// Groups were drained down to their survivors
	assert.Equal(t, []string{"/d/c"}, groups[0].Members)
	assert.Equal(t, []string{"/e/y"}, groups[1].Members)
}

func TestDeletionPlanner_FailuresContinueBatch(t *testing.T) {
	groups := testGroups()
	deleter := &recordingDeleter{fail: map[string]bool{"/d/b": true}}
	planner := NewDeletionPlanner(deleter, deleter)

	result := planner.Execute(context.Background(), groups, entities.OrderNone, false, nil)

	assert.ElementsMatch(t, []string{"/d/a", "/e/y"}, result.DeletedPaths)
	assert.Equal(t, []string{"/d/b"}, result.FailedPaths)
	require.Len(t, result.Errors, 1)
	var delErr *entities.DeletionError
	require.True(t, errors.As(result.Errors[0], &delErr))
	assert.Equal(t, "/d/b", delErr.Path)
	assert.True(t, result.HasFailures())

	// The reported total does not depend on the outcome of each path
	assert.Equal(t, int64(40), result.DuplicatesSize)
	assert.Equal(t, int64(10+20), result.BytesFreed)
}

func TestDeletionPlanner_TrashRefusalIsDeletionError(t *testing.T) {
	g := entities.NewMatchGroup(5, "/a")
	g.Add("/b")
	deleter := &recordingDeleter{fail: map[string]bool{"/a": true}}

	result := NewDeletionPlanner(deleter, deleter).Execute(context.Background(), []*entities.MatchGroup{g}, entities.OrderNone, true, nil)

	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], entities.ErrTrashFailed)
	assert.Equal(t, entities.ErrorKindDeletion, entities.ErrorKind(result.Errors[0]))
}

func TestDeletionPlanner_CancelledContextDeletesNothing(t *testing.T) {
	groups := testGroups()
	deleter := &recordingDeleter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewDeletionPlanner(deleter, deleter).Execute(ctx, groups, entities.OrderNone, true, nil)

	assert.Empty(t, result.DeletedPaths)
	assert.Empty(t, result.FailedPaths)
	assert.Empty(t, deleter.trashed)

	// Nothing was attempted, so nothing leaves the groups
	assert.Len(t, groups[0].Members, 3)
	assert.Len(t, groups[1].Members, 2)
	assert.Equal(t, int64(40), result.DuplicatesSize)
}

func TestCountRemovals(t *testing.T) {
	assert.Equal(t, 3, CountRemovals(testGroups()))
	assert.Equal(t, 0, CountRemovals(nil))
}
