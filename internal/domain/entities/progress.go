package entities

import (
	"time"
)

// Progress represents the progress of a long-running operation.
// Current never exceeds Max; MarkComplete forces Current to Max.
type Progress struct {
	ID            int    `json:"id"`
	OperationID   string `json:"operationId"`
	OperationType string `json:"operationType"` // "duplicate_search", "file_scan", "file_cleanup", "folder_cleanup", "folder_comparison"

	// Progress units (abstract, not files or bytes)
	Current  int64 `json:"current"`
	Max      int64 `json:"max"`
	Complete bool  `json:"complete"`

	// Status information
	Status      string `json:"status"` // "pending", "running", "completed", "failed", "cancelled"
	CurrentStep string `json:"currentStep"`
	Message     string `json:"message,omitempty"`

	// Error handling
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Operation-specific data
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Timestamps
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// ProgressSnapshot is an immutable view handed to observers
type ProgressSnapshot struct {
	Current  int64  `json:"current"`
	Max      int64  `json:"max"`
	Complete bool   `json:"complete"`
	Message  string `json:"message"`
}

// Percentage returns the completion percentage (0-100)
func (s ProgressSnapshot) Percentage() float64 {
	if s.Complete {
		return 100
	}
	if s.Max == 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Max) * 100
}

// ProgressStatus constants
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// OperationType constants
const (
	OperationFileScan         = "file_scan"
	OperationDuplicateSearch  = "duplicate_search"
	OperationFolderComparison = "folder_comparison"
	OperationFileCleanup      = "file_cleanup"
	OperationFolderCleanup    = "folder_cleanup"
)

// NewProgress creates a new progress tracker with max=0
func NewProgress(operationType string) *Progress {
	now := time.Now()
	return &Progress{
		OperationType: operationType,
		Status:        StatusPending,
		Metadata:      make(map[string]interface{}),
		StartTime:     now,
		LastUpdated:   now,
	}
}

// Start marks the progress as started
func (p *Progress) Start() {
	p.Status = StatusRunning
	p.StartTime = time.Now()
	p.LastUpdated = p.StartTime
}

// SetMax replaces the amount of known work
func (p *Progress) SetMax(max int64) {
	if max < 0 {
		max = 0
	}
	p.Max = max
	if p.Current > p.Max {
		p.Current = p.Max
	}
	p.LastUpdated = time.Now()
}

// AdvanceMax records newly discovered work
func (p *Progress) AdvanceMax(delta int64) {
	p.SetMax(p.Max + delta)
}

// Advance moves the current counter forward, clamped to Max
func (p *Progress) Advance(delta int64) {
	p.Current += delta
	if p.Current > p.Max {
		p.Current = p.Max
	}
	if p.Current < 0 {
		p.Current = 0
	}
	p.LastUpdated = time.Now()
}

// UpdateStep sets the human-readable step and message
func (p *Progress) UpdateStep(step, message string) {
	p.CurrentStep = step
	p.Message = message
	p.LastUpdated = time.Now()
}

// MarkComplete forces current=max and sets the complete flag.
// Status is left alone so a cancelled run stays cancelled.
func (p *Progress) MarkComplete() {
	p.Current = p.Max
	p.Complete = true
	p.LastUpdated = time.Now()
}

// Finish marks the progress as completed
func (p *Progress) Finish() {
	p.MarkComplete()
	p.Status = StatusCompleted
	p.stop()
}

// Cancel marks the progress as cancelled, keeping current as is
func (p *Progress) Cancel() {
	p.Status = StatusCancelled
	p.stop()
}

// Fail marks the progress as failed with an error message
func (p *Progress) Fail(errorMessage string) {
	p.Status = StatusFailed
	p.ErrorMessage = errorMessage
	p.stop()
}

func (p *Progress) stop() {
	now := time.Now()
	p.EndTime = &now
	p.LastUpdated = now
}

// Snapshot returns an immutable copy of the counters
func (p Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Current:  p.Current,
		Max:      p.Max,
		Complete: p.Complete,
		Message:  p.Message,
	}
}

// GetPercentage returns the completion percentage (0-100)
func (p Progress) GetPercentage() float64 {
	return p.Snapshot().Percentage()
}

// IsCompleted returns true if the operation is completed
func (p Progress) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// IsFailed returns true if the operation failed
func (p Progress) IsFailed() bool {
	return p.Status == StatusFailed
}

// IsCancelled returns true if the operation was cancelled
func (p Progress) IsCancelled() bool {
	return p.Status == StatusCancelled
}

// IsRunning returns true if the operation is currently running
func (p Progress) IsRunning() bool {
	return p.Status == StatusRunning
}

// IsTerminal returns true once the operation can no longer change
func (p Progress) IsTerminal() bool {
	return p.IsCompleted() || p.IsFailed() || p.IsCancelled()
}

// GetDuration returns the duration of the operation
func (p *Progress) GetDuration() time.Duration {
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// GetETA returns estimated time of arrival (completion)
func (p *Progress) GetETA() *time.Time {
	if p.Max == 0 || p.Current == 0 || p.IsTerminal() {
		return nil
	}

	elapsed := time.Since(p.StartTime)
	rate := float64(p.Current) / elapsed.Seconds()
	remaining := p.Max - p.Current

	if rate > 0 {
		eta := time.Now().Add(time.Duration(float64(remaining)/rate) * time.Second)
		return &eta
	}

	return nil
}

// SetMetadata sets a metadata value
func (p *Progress) SetMetadata(key string, value interface{}) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]interface{})
	}
	p.Metadata[key] = value
	p.LastUpdated = time.Now()
}

// GetMetadata gets a metadata value
func (p *Progress) GetMetadata(key string) (interface{}, bool) {
	if p.Metadata == nil {
		return nil, false
	}
	value, exists := p.Metadata[key]
	return value, exists
}
