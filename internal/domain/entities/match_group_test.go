package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchGroup_Sizes(t *testing.T) {
	g := NewMatchGroup(100, "/a")
	assert.Equal(t, int64(0), g.DuplicatesSize())
	assert.Equal(t, int64(100), g.TotalSize())
	assert.False(t, g.IsValid())

	g.Add("/b")
	g.Add("/c")
	assert.Equal(t, 3, g.Count())
	assert.Equal(t, int64(200), g.DuplicatesSize())
	assert.Equal(t, int64(300), g.TotalSize())
	assert.True(t, g.IsValid())
}

func TestMatchGroup_RemoveAllButOne(t *testing.T) {
	g := NewMatchGroup(10, "/x/1")
	g.Add("/x/2")
	g.Add("/x/3")

	removed := g.RemoveAllButOne()
	assert.Equal(t, []string{"/x/1", "/x/2"}, removed)
	assert.Equal(t, []string{"/x/3"}, g.Members)

	// A drained group yields nothing on the second call
	again := g.RemoveAllButOne()
	assert.Empty(t, again)
	assert.Equal(t, []string{"/x/3"}, g.Members)
}

func TestMatchGroup_RemoveAllButOneSingleMember(t *testing.T) {
	g := NewMatchGroup(10, "/only")
	assert.Empty(t, g.RemoveAllButOne())
	assert.Equal(t, 1, g.Count())
}

func TestMatchGroup_SortMembers(t *testing.T) {
	tests := []struct {
		name  string
		order MatchOrdering
		want  []string
	}{
		{"none keeps discovery order", OrderNone, []string{"/b", "/c", "/a"}},
		{"lexicographic", OrderLexicographic, []string{"/a", "/b", "/c"}},
		{"reverse", OrderReverseLexicographic, []string{"/c", "/b", "/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMatchGroup(1, "/b")
			g.Add("/c")
			g.Add("/a")
			g.SortMembers(tt.order)
			assert.Equal(t, tt.want, g.Members)
			assert.Equal(t, tt.want[len(tt.want)-1], g.Survivor())
		})
	}
}

func TestMatchGroup_SortMembersSurvivorDependsOnOrder(t *testing.T) {
	g := NewMatchGroup(1, "/data/b.txt")
	g.Add("/data/a.txt")

	g.SortMembers(OrderLexicographic)
	removed := g.RemoveAllButOne()
	assert.Equal(t, []string{"/data/a.txt"}, removed)
	assert.Equal(t, "/data/b.txt", g.Survivor())
}

func TestMatchGroup_Remove(t *testing.T) {
	g := NewMatchGroup(1, "/a")
	g.Add("/b")
	require.NoError(t, g.Remove("/a"))
	assert.Equal(t, []string{"/b"}, g.Members)
	assert.Error(t, g.Remove("/missing"))
}

func TestMatchGroup_Clone(t *testing.T) {
	g := NewMatchGroup(1, "/a")
	g.Add("/b")
	c := g.Clone()
	c.RemoveAllButOne()
	assert.Equal(t, 2, g.Count())
	assert.Equal(t, 1, c.Count())
}

func TestParseMatchOrdering(t *testing.T) {
	tests := []struct {
		in      string
		want    MatchOrdering
		wantErr bool
	}{
		{"", OrderNone, false},
		{"none", OrderNone, false},
		{"Lexicographic", OrderLexicographic, false},
		{"reverse", OrderReverseLexicographic, false},
		{"shortest", OrderNone, true},
		{"longest", OrderNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMatchOrdering(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				back, err := ParseMatchOrdering(got.String())
				require.NoError(t, err)
				assert.Equal(t, got, back)
			}
		})
	}
}
