package usecases

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"log"
)

// DeletionPlanner removes all but one member of each group, either into the
// trash or permanently, and records the outcome of every path
type DeletionPlanner struct {
	trash services.TrashDeleter
	hard  services.HardDeleter
}

// NewDeletionPlanner creates a planner over the two deletion collaborators
func NewDeletionPlanner(trash services.TrashDeleter, hard services.HardDeleter) *DeletionPlanner {
	return &DeletionPlanner{trash: trash, hard: hard}
}

// Plan previews survivors and removals without touching the groups
func (p *DeletionPlanner) Plan(groups []*entities.MatchGroup, order entities.MatchOrdering) []entities.DeletionPlanEntry {
	plan := make([]entities.DeletionPlanEntry, 0, len(groups))
	for _, g := range groups {
		c := g.Clone()
		c.SortMembers(order)
		removals := c.RemoveAllButOne()
		if len(removals) == 0 {
			continue
		}
		plan = append(plan, entities.DeletionPlanEntry{
			GroupID:  g.ID,
			FileSize: g.FileSize,
			Survivor: c.Survivor(),
			Removals: removals,
		})
	}
	return plan
}

// Execute drains the groups and deletes every removed path. Failures are
// recorded and the batch continues; cancellation stops before the next path.
// onPath, if set, is called after each attempted path.
func (p *DeletionPlanner) Execute(ctx context.Context, groups []*entities.MatchGroup, order entities.MatchOrdering, moveToTrash bool, onPath func(path string, err error)) *entities.DeletionResult {
	result := entities.NewDeletionResult()

	sizes := make(map[string]int64)
	collection := entities.NewMatchCollection()
	for _, g := range groups {
		for _, m := range g.Members {
			sizes[m] = g.FileSize
		}
		collection.Add(g)
	}

	result.DuplicatesSize = collection.DeleteMatches(order, func(path string) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", entities.ErrStopDeletion, err)
		}

		err := p.deletePath(path, moveToTrash)
		if err != nil {
			log.Printf("❌ 파일 삭제 실패: %s (%v)", path, err)
			result.RecordFailed(path, err)
		} else {
			result.RecordDeleted(path, sizes[path])
		}
		if onPath != nil {
			onPath(path, err)
		}
		return err
	})

	return result
}

func (p *DeletionPlanner) deletePath(path string, moveToTrash bool) error {
	if moveToTrash {
		if p.trash == nil || !p.trash.TrashDelete(path) {
			return entities.ErrTrashFailed
		}
		return nil
	}
	if p.hard == nil {
		return fmt.Errorf("no hard delete available")
	}
	return p.hard.HardDelete(path)
}

// CountRemovals returns how many paths Execute would try to delete
func CountRemovals(groups []*entities.MatchGroup) int {
	n := 0
	for _, g := range groups {
		if len(g.Members) > 1 {
			n += len(g.Members) - 1
		}
	}
	return n
}
