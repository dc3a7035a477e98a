package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_AdvanceIsClampedToMax(t *testing.T) {
	p := NewProgress(OperationDuplicateSearch)
	p.Start()

	p.SetMax(10)
	p.Advance(4)
	assert.Equal(t, int64(4), p.Current)

	p.Advance(100)
	assert.Equal(t, int64(10), p.Current)

	p.AdvanceMax(5)
	assert.Equal(t, int64(15), p.Max)
	assert.Equal(t, int64(10), p.Current)

	p.SetMax(3)
	assert.Equal(t, int64(3), p.Current)
}

func TestProgress_MarkCompleteForcesCurrent(t *testing.T) {
	p := NewProgress(OperationDuplicateSearch)
	p.SetMax(50)
	p.Advance(7)

	p.MarkComplete()
	snap := p.Snapshot()
	assert.True(t, snap.Complete)
	assert.Equal(t, snap.Max, snap.Current)
	assert.Equal(t, 100.0, snap.Percentage())
}

func TestProgress_TerminalStates(t *testing.T) {
	p := NewProgress(OperationFileCleanup)
	p.Start()
	assert.True(t, p.IsRunning())
	assert.False(t, p.IsTerminal())

	p.Cancel()
	assert.True(t, p.IsCancelled())
	assert.True(t, p.IsTerminal())
	assert.NotNil(t, p.EndTime)

	f := NewProgress(OperationFileScan)
	f.Fail("boom")
	assert.True(t, f.IsFailed())
	assert.Equal(t, "boom", f.ErrorMessage)

	c := NewProgress(OperationFileScan)
	c.SetMax(2)
	c.Finish()
	assert.True(t, c.IsCompleted())
	assert.Equal(t, int64(2), c.Current)
}

func TestProgress_Metadata(t *testing.T) {
	p := &Progress{}
	p.SetMetadata("root", "/tmp")
	v, ok := p.GetMetadata("root")
	assert.True(t, ok)
	assert.Equal(t, "/tmp", v)
}
