package entities

import (
	"math"
	"strings"
)

// DefaultChunkSize is the read size of a content comparison
const DefaultChunkSize int64 = 4 * 1024 * 1024

// MatchSettings is the immutable input of a duplicate search
type MatchSettings struct {
	Root          string        `json:"root"`
	Recursive     bool          `json:"recursive"`
	MatchContents bool          `json:"matchContents"`
	ChunkSize     int64         `json:"chunkSize"`
	MinSize       int64         `json:"minSize"`
	MaxSize       int64         `json:"maxSize"`
	IncludeExt    []string      `json:"includeExt,omitempty"`
	ExcludeExt    []string      `json:"excludeExt,omitempty"`
	Workers       int           `json:"workers"`
	Ordering      MatchOrdering `json:"ordering"`
	MoveToTrash   bool          `json:"moveToTrash"`
	AutoDelete    bool          `json:"autoDelete"`
}

// DefaultMatchSettings returns settings for a content match over root
func DefaultMatchSettings(root string) MatchSettings {
	return MatchSettings{
		Root:          root,
		Recursive:     true,
		MatchContents: true,
		ChunkSize:     DefaultChunkSize,
		MinSize:       0,
		MaxSize:       math.MaxInt64,
		Workers:       1,
		MoveToTrash:   true,
	}
}

// SetSizeRange stores a size window: a negative max means unbounded,
// a max below min swaps the two and a negative min becomes zero.
func (s *MatchSettings) SetSizeRange(min, max int64) {
	if max < 0 {
		max = math.MaxInt64
	}
	if max < min {
		min, max = max, min
	}
	if min < 0 {
		min = 0
	}
	s.MinSize = min
	s.MaxSize = max
}

// Normalize fills defaults and canonicalizes extension lists
func (s MatchSettings) Normalize() MatchSettings {
	if s.ChunkSize <= 0 {
		s.ChunkSize = DefaultChunkSize
	}
	if s.MaxSize == 0 {
		s.MaxSize = math.MaxInt64
	}
	s.SetSizeRange(s.MinSize, s.MaxSize)
	if s.Workers <= 0 {
		s.Workers = 1
	}
	s.IncludeExt = NormalizeExtensions(s.IncludeExt)
	s.ExcludeExt = NormalizeExtensions(s.ExcludeExt)
	return s
}

// NormalizeExtensions canonicalizes a list, splitting comma separated entries
func NormalizeExtensions(exts []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range exts {
		for _, part := range strings.Split(raw, ",") {
			ext := NormalizeExtension(part)
			if ext == "" || seen[ext] {
				continue
			}
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out
}
