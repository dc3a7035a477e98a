package usecases

import (
	"context"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	"sort"
	"sync"
	"time"
)

type memoryProgressService struct {
	mu      sync.Mutex
	nextID  int
	records map[int]*entities.Progress
}

func newMemoryProgressService() *memoryProgressService {
	return &memoryProgressService{records: make(map[int]*entities.Progress)}
}

func (s *memoryProgressService) StartOperation(ctx context.Context, operationType, operationID string) (*entities.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := entities.NewProgress(operationType)
	p.ID = s.nextID
	p.OperationID = operationID
	s.records[p.ID] = cloneProgress(p)
	return p, nil
}

func (s *memoryProgressService) UpdateOperation(ctx context.Context, progress *entities.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[progress.ID] = cloneProgress(progress)
	return nil
}

func (s *memoryProgressService) setStatus(id int, fn func(p *entities.Progress)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok {
		return errors.New("progress not found")
	}
	fn(p)
	return nil
}

func (s *memoryProgressService) CompleteOperation(ctx context.Context, id int) error {
	return s.setStatus(id, func(p *entities.Progress) { p.Finish() })
}

func (s *memoryProgressService) CancelOperation(ctx context.Context, id int) error {
	return s.setStatus(id, func(p *entities.Progress) { p.Cancel() })
}

func (s *memoryProgressService) FailOperation(ctx context.Context, id int, msg string) error {
	return s.setStatus(id, func(p *entities.Progress) { p.Fail(msg) })
}

func (s *memoryProgressService) GetProgress(ctx context.Context, id int) (*entities.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok {
		return nil, errors.New("progress not found")
	}
	return cloneProgress(p), nil
}

func (s *memoryProgressService) GetByOperationID(ctx context.Context, operationID string) (*entities.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.records {
		if p.OperationID == operationID {
			return cloneProgress(p), nil
		}
	}
	return nil, errors.New("progress not found")
}

func (s *memoryProgressService) GetRecentOperations(ctx context.Context, limit int) ([]*entities.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.Progress, 0, len(s.records))
	for _, p := range s.records {
		out = append(out, cloneProgress(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryGroupRepo struct {
	mu     sync.Mutex
	nextID int
	groups map[int]*entities.MatchGroup
}

func newMemoryGroupRepo() *memoryGroupRepo {
	return &memoryGroupRepo{groups: make(map[int]*entities.MatchGroup)}
}

func (r *memoryGroupRepo) Save(ctx context.Context, g *entities.MatchGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == 0 {
		r.nextID++
		g.ID = r.nextID
	}
	r.groups[g.ID] = g.Clone()
	return nil
}

func (r *memoryGroupRepo) SaveBatch(ctx context.Context, groups []*entities.MatchGroup) error {
	for _, g := range groups {
		if err := r.Save(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryGroupRepo) GetByID(ctx context.Context, id int) (*entities.MatchGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

func (r *memoryGroupRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	return nil
}

func (r *memoryGroupRepo) RemoveMember(ctx context.Context, id int, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return errors.New("group not found")
	}
	return g.Remove(path)
}

func (r *memoryGroupRepo) GetByOperation(ctx context.Context, operationID string) ([]*entities.MatchGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.MatchGroup, 0)
	for _, g := range r.groups {
		if g.OperationID == operationID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryGroupRepo) GetPaginated(ctx context.Context, operationID string, offset, limit int) ([]*entities.MatchGroup, error) {
	all, _ := r.GetByOperation(ctx, operationID)
	if offset >= len(all) {
		return []*entities.MatchGroup{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryGroupRepo) Count(ctx context.Context, operationID string) (int, error) {
	all, _ := r.GetByOperation(ctx, operationID)
	return len(all), nil
}

func (r *memoryGroupRepo) GetTotalDuplicatesSize(ctx context.Context, operationID string) (int64, error) {
	all, _ := r.GetByOperation(ctx, operationID)
	var total int64
	for _, g := range all {
		total += g.DuplicatesSize()
	}
	return total, nil
}

func (r *memoryGroupRepo) DeleteByOperation(ctx context.Context, operationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, g := range r.groups {
		if g.OperationID == operationID {
			delete(r.groups, id)
		}
	}
	return nil
}

type memoryErrorRepo struct {
	mu   sync.Mutex
	errs []*entities.OperationError
}

func (r *memoryErrorRepo) SaveBatch(ctx context.Context, errs []*entities.OperationError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, errs...)
	return nil
}

func (r *memoryErrorRepo) GetByOperation(ctx context.Context, operationID string, limit int) ([]*entities.OperationError, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.OperationError, 0)
	for _, e := range r.errs {
		if e.OperationID == operationID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryErrorRepo) CountByKind(ctx context.Context, operationID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range r.errs {
		if e.OperationID == operationID {
			counts[e.Kind]++
		}
	}
	return counts, nil
}

func (r *memoryErrorRepo) DeleteByOperation(ctx context.Context, operationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.errs[:0]
	for _, e := range r.errs {
		if e.OperationID != operationID {
			kept = append(kept, e)
		}
	}
	r.errs = kept
	return nil
}

type memoryComparisonRepo struct {
	mu      sync.Mutex
	nextID  int
	results map[int]*entities.ComparisonResult
}

func newMemoryComparisonRepo() *memoryComparisonRepo {
	return &memoryComparisonRepo{results: make(map[int]*entities.ComparisonResult)}
}

func (r *memoryComparisonRepo) Save(ctx context.Context, result *entities.ComparisonResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if result.ID == 0 {
		r.nextID++
		result.ID = r.nextID
	}
	c := *result
	r.results[result.ID] = &c
	return nil
}

func (r *memoryComparisonRepo) GetByID(ctx context.Context, id int) (*entities.ComparisonResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[id], nil
}

func (r *memoryComparisonRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, id)
	return nil
}

func (r *memoryComparisonRepo) GetByRoots(ctx context.Context, sourceRoot, targetRoot string) (*entities.ComparisonResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.results {
		if c.SourceRoot == sourceRoot && c.TargetRoot == targetRoot {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memoryComparisonRepo) GetRecentComparisons(ctx context.Context, limit int) ([]*entities.ComparisonResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.ComparisonResult, 0, len(r.results))
	for _, c := range r.results {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryComparisonRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results), nil
}

// recordingDeleter records deleted paths and fails the ones listed in fail
type recordingDeleter struct {
	mu      sync.Mutex
	fail    map[string]bool
	trashed []string
	removed []string
}

func (d *recordingDeleter) TrashDelete(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[path] {
		return false
	}
	d.trashed = append(d.trashed, path)
	return true
}

func (d *recordingDeleter) HardDelete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[path] {
		return errors.New("permission denied")
	}
	d.removed = append(d.removed, path)
	return nil
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
