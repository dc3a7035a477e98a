package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MatchOrdering decides which member of a group survives deletion.
// The survivor is always the last member after sorting.
type MatchOrdering int

const (
	OrderNone MatchOrdering = iota
	OrderLexicographic
	OrderReverseLexicographic
)

// String returns the configuration name of the ordering
func (o MatchOrdering) String() string {
	switch o {
	case OrderLexicographic:
		return "lexicographic"
	case OrderReverseLexicographic:
		return "reverse"
	default:
		return "none"
	}
}

// ParseMatchOrdering parses an ordering name as used in config files, flags and requests
func ParseMatchOrdering(s string) (MatchOrdering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return OrderNone, nil
	case "lexicographic", "lex", "asc":
		return OrderLexicographic, nil
	case "reverse", "reverselexicographic", "reverse_lexicographic", "desc":
		return OrderReverseLexicographic, nil
	default:
		return OrderNone, fmt.Errorf("unknown match ordering %q", s)
	}
}

// MatchGroup is a cluster of byte-identical files sharing one size
type MatchGroup struct {
	ID          int       `json:"id"`
	OperationID string    `json:"operationId"`
	FileSize    int64     `json:"fileSize"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewMatchGroup starts a group with its first member
func NewMatchGroup(fileSize int64, first string) *MatchGroup {
	return &MatchGroup{
		FileSize:  fileSize,
		Members:   []string{first},
		CreatedAt: time.Now(),
	}
}

// Add appends a member to the group
func (g *MatchGroup) Add(path string) {
	g.Members = append(g.Members, path)
}

// Count returns the number of members
func (g *MatchGroup) Count() int {
	return len(g.Members)
}

// DuplicatesSize is the space held by every member except one
func (g *MatchGroup) DuplicatesSize() int64 {
	if len(g.Members) <= 1 {
		return 0
	}
	return g.FileSize * int64(len(g.Members)-1)
}

// TotalSize is the space held by all members
func (g *MatchGroup) TotalSize() int64 {
	return g.FileSize * int64(len(g.Members))
}

// IsValid returns true if the group holds actual duplicates
func (g *MatchGroup) IsValid() bool {
	return len(g.Members) > 1
}

// Contains reports whether path is a member
func (g *MatchGroup) Contains(path string) bool {
	for _, m := range g.Members {
		if m == path {
			return true
		}
	}
	return false
}

// Remove drops a member by path
func (g *MatchGroup) Remove(path string) error {
	for i, m := range g.Members {
		if m == path {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("file %s not found in match group", path)
}

// SortMembers orders members so that the survivor ends up last.
// Lexicographic ordering uses the root collation (language.Und).
func (g *MatchGroup) SortMembers(order MatchOrdering) {
	switch order {
	case OrderLexicographic:
		col := collate.New(language.Und)
		sort.SliceStable(g.Members, func(i, j int) bool {
			return col.CompareString(g.Members[i], g.Members[j]) < 0
		})
	case OrderReverseLexicographic:
		col := collate.New(language.Und)
		sort.SliceStable(g.Members, func(i, j int) bool {
			return col.CompareString(g.Members[i], g.Members[j]) > 0
		})
	}
}

// Survivor returns the member that RemoveAllButOne would keep
func (g *MatchGroup) Survivor() string {
	if len(g.Members) == 0 {
		return ""
	}
	return g.Members[len(g.Members)-1]
}

// RemoveAllButOne removes and returns every member but the last.
// A group with one or zero members yields nothing.
func (g *MatchGroup) RemoveAllButOne() []string {
	if len(g.Members) <= 1 {
		return []string{}
	}
	last := len(g.Members) - 1
	removed := make([]string, last)
	copy(removed, g.Members[:last])
	g.Members = []string{g.Members[last]}
	return removed
}

// Clone returns a deep copy of the group
func (g *MatchGroup) Clone() *MatchGroup {
	c := *g
	c.Members = append([]string(nil), g.Members...)
	return &c
}
