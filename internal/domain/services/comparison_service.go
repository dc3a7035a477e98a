package services

// ContentComparator decides whether two equal-size files have identical bytes.
// cancelled is polled after each chunk; a cancelled comparison reports false.
type ContentComparator interface {
	Compare(pathA, pathB string, size, chunkSize int64, cancelled func() bool) (bool, error)
}
